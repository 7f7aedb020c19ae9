package refund

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pcshop/internal/db"
	"pcshop/internal/logger"
	"pcshop/internal/order"
	"pcshop/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuantityCheck validates a request against the quantities already claimed
// by earlier non-rejected requests of the same order.
type QuantityCheck func(prior map[string]int) error

type Repository interface {
	Create(ctx context.Context, r *RefundRequest, check QuantityCheck) error
	GetByID(ctx context.Context, id string) (*RefundRequest, error)
	List(ctx context.Context, opts ListOptions) ([]*RefundRequest, int64, error)
	// UpdateStatus moves a request from one status to another and, when
	// orderStatus is set, updates the order in the same transaction.
	UpdateStatus(ctx context.Context, id string, from, to Status, note string, orderStatus *order.Status) (*RefundRequest, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const refundColumns = `id, order_id, user_id, items, reason, status, admin_note, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRefund(s scanner) (*RefundRequest, error) {
	var r RefundRequest
	if err := s.Scan(&r.ID, &r.OrderID, &r.UserID, &r.Items, &r.Reason, &r.Status,
		&r.AdminNote, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *repository) Create(ctx context.Context, req *RefundRequest, check QuantityCheck) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateRefund"),
		zap.Uint("order_id", req.OrderID),
	)

	err := db.WithTx(ctx, r.db, func(tx db.Querier) error {
		// Serialises concurrent requests for the same order.
		var locked uint
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM orders WHERE id = $1 FOR UPDATE`, req.OrderID,
		).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return order.ErrOrderNotFound
			}
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT items FROM refund_requests WHERE order_id = $1 AND status <> $2`,
			req.OrderID, string(StatusRejected),
		)
		if err != nil {
			return err
		}
		prior := map[string]int{}
		for rows.Next() {
			var items Items
			if err := rows.Scan(&items); err != nil {
				rows.Close()
				return err
			}
			for _, it := range items {
				prior[it.ProductID] += it.Quantity
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		if err := check(prior); err != nil {
			return err
		}

		req.ID = uuid.NewString()
		err = tx.QueryRowContext(ctx, `
			INSERT INTO refund_requests (id, order_id, user_id, items, reason, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`,
			req.ID, req.OrderID, req.UserID, req.Items, req.Reason, string(req.Status),
		).Scan(&req.CreatedAt, &req.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert refund: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			string(order.StatusRefundRequested), req.OrderID,
		); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Warn("create refund failed", zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*RefundRequest, error) {
	req, err := scanRefund(r.db.QueryRowContext(ctx,
		"SELECT "+refundColumns+" FROM refund_requests WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRefundNotFound
	}
	return req, err
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*RefundRequest, int64, error) {
	page, limit := utils.NormalizePage(opts.Page, opts.Limit)

	var where []string
	args := []any{}
	if opts.UserID != nil {
		args = append(args, *opts.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM refund_requests"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + refundColumns + " FROM refund_requests" + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, utils.Offset(page, limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query refunds", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*RefundRequest, 0, limit)
	for rows.Next() {
		req, err := scanRefund(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status, note string, orderStatus *order.Status) (*RefundRequest, error) {
	var updated *RefundRequest

	err := db.WithTx(ctx, r.db, func(tx db.Querier) error {
		var err error
		updated, err = scanRefund(tx.QueryRowContext(ctx, `
			UPDATE refund_requests
			SET status = $1, admin_note = $2, updated_at = NOW()
			WHERE id = $3 AND status = $4
			RETURNING `+refundColumns,
			string(to), note, id, string(from),
		))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStaleStatus
		}
		if err != nil {
			return err
		}

		if orderStatus == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			string(*orderStatus), updated.OrderID,
		); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
