package manufacturer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pcshop/internal/logger"
	"pcshop/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]*Manufacturer, int64, error)
	GetByID(ctx context.Context, id string) (*Manufacturer, error)
	GetBySlug(ctx context.Context, slug string) (*Manufacturer, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, m *Manufacturer) (*Manufacturer, error)
	Update(ctx context.Context, m *Manufacturer) (*Manufacturer, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const columns = "id, name, slug, logo_url, country, created_at, updated_at"

func scan(row interface{ Scan(dest ...any) error }) (*Manufacturer, error) {
	var m Manufacturer
	err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.LogoURL, &m.Country, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Manufacturer, int64, error) {
	page, limit := utils.NormalizePage(opts.Page, opts.Limit)
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListManufacturers"),
	)

	where := []string{}
	args := []any{}

	if opts.Search != nil && *opts.Search != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+*opts.Search+"%")
	}
	if opts.Country != nil && *opts.Country != "" {
		where = append(where, fmt.Sprintf("country = $%d", len(args)+1))
		args = append(args, *opts.Country)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM manufacturers"+whereClause, args...).Scan(&total); err != nil {
		log.Error("failed to count manufacturers", zap.Error(err))
		return nil, 0, err
	}

	query := "SELECT " + columns + " FROM manufacturers" + whereClause +
		" ORDER BY name ASC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, utils.Offset(page, limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query manufacturers", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	list := []*Manufacturer{}
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id string) (*Manufacturer, error) {
	m, err := scan(r.db.QueryRowContext(ctx, "SELECT "+columns+" FROM manufacturers WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrManufacturerNotFound
	}
	return m, err
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Manufacturer, error) {
	m, err := scan(r.db.QueryRowContext(ctx, "SELECT "+columns+" FROM manufacturers WHERE slug = $1", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrManufacturerNotFound
	}
	return m, err
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM manufacturers WHERE slug = $1)",
		slug,
	).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, m *Manufacturer) (*Manufacturer, error) {
	created, err := scan(r.db.QueryRowContext(ctx, `
		INSERT INTO manufacturers (id, name, slug, logo_url, country)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+columns,
		uuid.NewString(), m.Name, m.Slug, m.LogoURL, m.Country,
	))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert manufacturer",
			zap.String("name", m.Name),
			zap.Error(err),
		)
		return nil, fmt.Errorf("add manufacturer failed: %w", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, m *Manufacturer) (*Manufacturer, error) {
	updated, err := scan(r.db.QueryRowContext(ctx, `
		UPDATE manufacturers
		SET name = $1, slug = $2, logo_url = $3, country = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+columns,
		m.Name, m.Slug, m.LogoURL, m.Country, m.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrManufacturerNotFound
	}
	return updated, err
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM manufacturers WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrManufacturerNotFound
	}
	return nil
}
