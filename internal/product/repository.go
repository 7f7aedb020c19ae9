package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pcshop/internal/logger"
	"pcshop/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]*Product, int64, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `
	p.id, p.name, p.slug, p.type, p.category_id, p.manufacturer_id,
	p.description, p.stock, p.original_price, p.discount, p.final_price,
	p.images, p.specs, p.sold_count, p.is_redeemable, p.point_cost,
	p.created_at, p.updated_at`

const returningColumns = `
	id, name, slug, type, category_id, manufacturer_id,
	description, stock, original_price, discount, final_price,
	images, specs, sold_count, is_redeemable, point_cost,
	created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*Product, error) {
	var p Product
	err := s.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Type, &p.CategoryID, &p.ManufacturerID,
		&p.Description, &p.Stock, &p.OriginalPrice, &p.Discount, &p.FinalPrice,
		pq.Array(&p.Images), &p.Specs, &p.SoldCount, &p.IsRedeemable, &p.PointCost,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func orderByClause(sort SortField) string {
	switch sort {
	case SortPriceAsc:
		return "p.final_price ASC, p.created_at DESC"
	case SortPriceDesc:
		return "p.final_price DESC, p.created_at DESC"
	case SortBestSelling:
		return "p.sold_count DESC, p.created_at DESC"
	default:
		return "p.created_at DESC"
	}
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Product, int64, error) {
	page, limit := utils.NormalizePage(opts.Page, opts.Limit)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListProducts"),
		zap.Int("limit", limit),
		zap.Int("page", page),
	)

	// ---------- FILTERING ----------
	var conditions []string
	args := []any{}
	argIndex := 1

	if opts.Type != nil {
		conditions = append(conditions, fmt.Sprintf("p.type = $%d", argIndex))
		args = append(args, string(*opts.Type))
		argIndex++
	}

	if opts.CategoryID != nil && *opts.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, *opts.CategoryID)
		argIndex++
	}

	if opts.ManufacturerID != nil && *opts.ManufacturerID != "" {
		conditions = append(conditions, fmt.Sprintf("p.manufacturer_id = $%d", argIndex))
		args = append(args, *opts.ManufacturerID)
		argIndex++
	}

	if opts.Search != nil && *opts.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*opts.Search+"%")
		argIndex++
	}

	if opts.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("p.final_price >= $%d", argIndex))
		args = append(args, *opts.MinPrice)
		argIndex++
	}

	if opts.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("p.final_price <= $%d", argIndex))
		args = append(args, *opts.MaxPrice)
		argIndex++
	}

	if opts.InStock != nil {
		if *opts.InStock {
			conditions = append(conditions, "p.stock > 0")
		} else {
			conditions = append(conditions, "p.stock = 0")
		}
	}

	if opts.Redeemable != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_redeemable = $%d", argIndex))
		args = append(args, *opts.Redeemable)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// ---------- COUNT ----------
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p"+whereClause, args...).Scan(&total); err != nil {
		log.Error("failed to count products", zap.Error(err))
		return nil, 0, err
	}

	// ---------- QUERY ----------
	query := "SELECT " + productColumns + " FROM products p" + whereClause +
		" ORDER BY " + orderByClause(opts.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, utils.Offset(page, limit))

	log.Debug("executing query",
		zap.String("query", query),
		zap.Any("args", args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]*Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, 0, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products p WHERE p.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products p WHERE p.slug = $1", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE slug = $1)", slug,
	).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, p *Product) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateProduct"),
		zap.String("slug", p.Slug),
	)

	query := `
		INSERT INTO products (
			id, name, slug, type, category_id, manufacturer_id,
			description, stock, original_price, discount, final_price,
			images, specs, is_redeemable, point_cost
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING ` + returningColumns

	created, err := scanProduct(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), p.Name, p.Slug, string(p.Type), p.CategoryID, p.ManufacturerID,
		p.Description, p.Stock, p.OriginalPrice, p.Discount, p.FinalPrice,
		pq.Array(p.Images), p.Specs, p.IsRedeemable, p.PointCost,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		log.Error("failed to insert product", zap.Error(err))
		return nil, err
	}

	return created, nil
}

func (r *repository) Update(ctx context.Context, p *Product) (*Product, error) {
	query := `
		UPDATE products SET
			name = $1, slug = $2, type = $3, category_id = $4, manufacturer_id = $5,
			description = $6, stock = $7, original_price = $8, discount = $9,
			final_price = $10, images = $11, specs = $12, is_redeemable = $13,
			point_cost = $14, updated_at = NOW()
		WHERE id = $15
		RETURNING ` + returningColumns

	updated, err := scanProduct(r.db.QueryRowContext(ctx, query,
		p.Name, p.Slug, string(p.Type), p.CategoryID, p.ManufacturerID,
		p.Description, p.Stock, p.OriginalPrice, p.Discount,
		p.FinalPrice, pq.Array(p.Images), p.Specs, p.IsRedeemable,
		p.PointCost, p.ID,
	))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrProductNotFound
	case isForeignKeyViolation(err):
		return nil, ErrInvalidReference
	case err != nil:
		logger.FromCtx(ctx).Error("failed to update product", zap.String("product_id", p.ID), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == PgForeignKeyViolation
}
