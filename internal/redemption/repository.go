package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pcshop/internal/db"
	"pcshop/internal/logger"
	"pcshop/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	// Redeem deducts points and records the redemption atomically. It
	// returns the user's remaining balance.
	Redeem(ctx context.Context, r *Redemption) (int64, error)
	List(ctx context.Context, opts ListOptions) ([]*Redemption, int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Redeem(ctx context.Context, red *Redemption) (int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Redeem"),
		zap.Uint("user_id", red.UserID),
		zap.String("product_id", red.ProductID),
	)

	var remaining int64
	err := db.WithTx(ctx, r.db, func(tx db.Querier) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE users
			SET points = points - $1, updated_at = NOW()
			WHERE id = $2 AND points >= $1
			RETURNING points`,
			red.PointCost, red.UserID,
		).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientPoints
		}
		if err != nil {
			return fmt.Errorf("deduct points: %w", err)
		}

		red.ID = uuid.NewString()
		err = tx.QueryRowContext(ctx, `
			INSERT INTO redemptions (id, user_id, product_id, product_name, point_cost)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`,
			red.ID, red.UserID, red.ProductID, red.ProductName, red.PointCost,
		).Scan(&red.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert redemption: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientPoints) {
			log.Error("redeem failed", zap.Error(err))
		}
		return 0, err
	}

	return remaining, nil
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Redemption, int64, error) {
	page, limit := utils.NormalizePage(opts.Page, opts.Limit)

	where := ""
	args := []any{}
	if opts.UserID != nil {
		args = append(args, *opts.UserID)
		where = fmt.Sprintf(" WHERE r.user_id = $%d", len(args))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM redemptions r"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT r.id, r.user_id, u.email, r.product_id, r.product_name, r.point_cost, r.created_at
		FROM redemptions r
		JOIN users u ON u.id = r.user_id` + where +
		fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, utils.Offset(page, limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query redemptions", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*Redemption, 0, limit)
	for rows.Next() {
		var red Redemption
		if err := rows.Scan(&red.ID, &red.UserID, &red.UserEmail, &red.ProductID,
			&red.ProductName, &red.PointCost, &red.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &red)
	}
	return out, total, rows.Err()
}
