package category

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
	List(ctx context.Context, opts ListOptions) ([]*Category, int64, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, c *Category) (*Category, error)
	Update(ctx context.Context, c *Category) (*Category, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const categoryColumns = "c.id, c.name, c.slug, c.description, c.created_at, c.updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (*Category, error) {
	var c Category
	if err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Category, int64, error) {
	page, limit := utils.NormalizePage(opts.Page, opts.Limit)

	log := logger.FromCtx(ctx).With(
		zap.String("filter", utils.PtrString(opts.Search)),
		zap.Int("limit", limit),
		zap.Int("page", page),
	)

	where := []string{}
	args := []interface{}{}

	// ---------- FILTER ----------
	if opts.Search != nil && *opts.Search != "" {
		where = append(where, fmt.Sprintf("c.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+*opts.Search+"%")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	// ---------- COUNT ----------
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories c"+whereClause, args...).Scan(&total); err != nil {
		log.Error("DB count failed ListCategories", zap.Error(err))
		return nil, 0, err
	}

	// ---------- PAGINATION ----------
	query := "SELECT " + categoryColumns + " FROM categories c" + whereClause +
		" ORDER BY c.name ASC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, utils.Offset(page, limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("DB query failed ListCategories", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	categories := make([]*Category, 0, limit)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			log.Error("Row scan failed", zap.Error(err))
			return nil, 0, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		log.Error("Rows iteration failed", zap.Error(err))
		return nil, 0, err
	}

	return categories, total, nil
}

func (r *repository) getOne(ctx context.Context, column, value string) (*Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories c WHERE c."+column+" = $1",
		value,
	)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Category, error) {
	return r.getOne(ctx, "id", id)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)",
		slug,
	).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, c *Category) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("category_name", c.Name),
	)

	query := `
		INSERT INTO categories (id, name, slug, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, slug, description, created_at, updated_at
	`

	created, err := scanCategory(r.db.QueryRowContext(ctx, query, uuid.NewString(), c.Name, c.Slug, c.Description))
	if err != nil {
		log.Error("AddCategory DB query failed", zap.Error(err))
		return nil, fmt.Errorf("add category failed: %w", err)
	}

	log.Info("AddCategory success", zap.String("category_id", created.ID))
	return created, nil
}

func (r *repository) Update(ctx context.Context, c *Category) (*Category, error) {
	query := `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, name, slug, description, created_at, updated_at
	`

	updated, err := scanCategory(r.db.QueryRowContext(ctx, query, c.Name, c.Slug, c.Description, c.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	return updated, err
}

// Delete removes the category; products keep existing with a NULL category.
func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
