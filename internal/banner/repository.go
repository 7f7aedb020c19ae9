package banner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]*Banner, error)
	GetByID(ctx context.Context, id string) (*Banner, error)
	Create(ctx context.Context, b *Banner) (*Banner, error)
	Update(ctx context.Context, b *Banner) (*Banner, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const bannerColumns = `id, title, image_url, link_url, type, position, is_active, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBanner(s scanner) (*Banner, error) {
	var b Banner
	if err := s.Scan(&b.ID, &b.Title, &b.ImageURL, &b.LinkURL, &b.Type, &b.Position,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Banner, error) {
	var where []string
	args := []any{}

	if opts.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if opts.Type != nil {
		args = append(args, string(*opts.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}

	query := "SELECT " + bannerColumns + " FROM banners"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY type ASC, position ASC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id string) (*Banner, error) {
	b, err := scanBanner(r.db.QueryRowContext(ctx,
		"SELECT "+bannerColumns+" FROM banners WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBannerNotFound
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, b *Banner) (*Banner, error) {
	return scanBanner(r.db.QueryRowContext(ctx, `
		INSERT INTO banners (id, title, image_url, link_url, type, position, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+bannerColumns,
		uuid.NewString(), b.Title, b.ImageURL, b.LinkURL, string(b.Type), b.Position, b.IsActive,
	))
}

func (r *repository) Update(ctx context.Context, b *Banner) (*Banner, error) {
	updated, err := scanBanner(r.db.QueryRowContext(ctx, `
		UPDATE banners
		SET title = $1, image_url = $2, link_url = $3, type = $4, position = $5,
			is_active = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING `+bannerColumns,
		b.Title, b.ImageURL, b.LinkURL, string(b.Type), b.Position, b.IsActive, b.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBannerNotFound
	}
	return updated, err
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM banners WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBannerNotFound
	}
	return nil
}
