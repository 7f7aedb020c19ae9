package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pcshop/internal/db"
	"pcshop/internal/logger"
	"pcshop/internal/utils"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	LookupProducts(ctx context.Context, ids []string) (map[string]ProductSnapshot, error)
	// Create inserts the order and its lines. When fulfill is set the
	// fulfillment side effects run in the same transaction.
	Create(ctx context.Context, o *Order, fulfill bool) (*Order, error)
	GetByID(ctx context.Context, id uint) (*Order, error)
	List(ctx context.Context, opts ListOptions) ([]*Order, int64, error)
	UpdateStatus(ctx context.Context, id uint, status Status) error
	// MarkPaid flips payment_status and fulfills the order.
	MarkPaid(ctx context.Context, id uint) (*PaymentUpdate, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	o.id, o.code, o.user_id, o.customer_name, o.customer_email, o.customer_phone,
	o.shipping_address, o.note, o.total, o.payment_method, o.payment_status,
	o.status, o.earned_points, o.fulfilled_at, o.created_at, o.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*Order, error) {
	var o Order
	err := s.Scan(
		&o.ID, &o.Code, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.Note, &o.Total, &o.PaymentMethod, &o.PaymentStatus,
		&o.Status, &o.EarnedPoints, &o.FulfilledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []Item{}
	return &o, nil
}

func (r *repository) LookupProducts(ctx context.Context, ids []string) (map[string]ProductSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, final_price, stock FROM products WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]ProductSnapshot, len(ids))
	for rows.Next() {
		var p ProductSnapshot
		if err := rows.Scan(&p.ID, &p.Name, &p.FinalPrice, &p.Stock); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, o *Order, fulfill bool) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
		zap.String("code", o.Code),
	)

	err := db.WithTx(ctx, r.db, func(tx db.Querier) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (
				code, user_id, customer_name, customer_email, customer_phone,
				shipping_address, note, total, payment_method, payment_status,
				status, earned_points
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING id, created_at, updated_at`,
			o.Code, o.UserID, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
			o.ShippingAddress, o.Note, o.Total, string(o.PaymentMethod), o.PaymentStatus,
			string(o.Status), o.EarnedPoints,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
				return ErrDuplicateOrderCode
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for _, it := range o.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
				VALUES ($1, $2, $3, $4, $5)`,
				o.ID, it.ProductID, it.ProductName, it.Price, it.Quantity,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if !fulfill {
			return nil
		}
		applied, err := applyFulfillment(ctx, tx, o)
		if err != nil {
			return err
		}
		if applied {
			now := time.Now()
			o.FulfilledAt = &now
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientStock):
		case errors.Is(err, ErrDuplicateOrderCode):
			log.Warn("order code collision")
		default:
			log.Error("failed to create order", zap.Error(err))
		}
		return nil, err
	}

	return o, nil
}

// applyFulfillment decrements stock, bumps sold counts and awards points
// exactly once per order. The fulfilled_at guard makes a second call a no-op.
func applyFulfillment(ctx context.Context, tx db.Querier, o *Order) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "applyFulfillment"),
		zap.Uint("order_id", o.ID),
	)

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET fulfilled_at = NOW(), earned_points = $2, updated_at = NOW()
		WHERE id = $1 AND fulfilled_at IS NULL`,
		o.ID, o.EarnedPoints,
	)
	if err != nil {
		return false, fmt.Errorf("claim fulfillment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Info("order already fulfilled")
		return false, nil
	}

	for _, it := range o.Items {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, sold_count = sold_count + $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1`,
			it.Quantity, it.ProductID,
		)
		if err != nil {
			return false, fmt.Errorf("decrement stock: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			log.Warn("insufficient stock",
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
			)
			return false, ErrInsufficientStock
		}
	}

	if o.UserID != nil && o.EarnedPoints > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET points = points + $1, updated_at = NOW() WHERE id = $2`,
			o.EarnedPoints, *o.UserID,
		); err != nil {
			return false, fmt.Errorf("award points: %w", err)
		}
	}

	log.Info("order fulfilled", zap.Int64("earned_points", o.EarnedPoints))
	return true, nil
}

func loadItems(ctx context.Context, q db.Querier, orderIDs ...uint) (map[uint][]Item, error) {
	ids := make([]int64, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = int64(id)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint][]Item, len(orderIDs))
	for rows.Next() {
		var orderID uint
		var it Item
		if err := rows.Scan(&orderID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders o WHERE o.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := loadItems(ctx, r.db, o.ID)
	if err != nil {
		return nil, err
	}
	if lines, ok := items[o.ID]; ok {
		o.Items = lines
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Order, int64, error) {
	page, limit := utils.NormalizePage(opts.Page, opts.Limit)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
		zap.Int("limit", limit),
		zap.Int("page", page),
	)

	// ---------- FILTERING ----------
	var conditions []string
	args := []any{}
	argIndex := 1

	if opts.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argIndex))
		args = append(args, *opts.UserID)
		argIndex++
	}

	if opts.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argIndex))
		args = append(args, string(*opts.Status))
		argIndex++
	}

	if opts.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("o.payment_status = $%d", argIndex))
		args = append(args, *opts.PaymentStatus)
		argIndex++
	}

	if opts.Search != nil && *opts.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(o.code ILIKE $%d OR o.customer_name ILIKE $%d OR o.customer_email ILIKE $%d)",
			argIndex, argIndex, argIndex,
		))
		args = append(args, "%"+*opts.Search+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// ---------- COUNT ----------
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o"+whereClause, args...).Scan(&total); err != nil {
		log.Error("failed to count orders", zap.Error(err))
		return nil, 0, err
	}

	// ---------- QUERY ----------
	query := "SELECT " + orderColumns + " FROM orders o" + whereClause +
		" ORDER BY o.created_at DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, utils.Offset(page, limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*Order, 0, limit)
	ids := make([]uint, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, 0, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if len(orders) == 0 {
		return orders, total, nil
	}

	items, err := loadItems(ctx, r.db, ids...)
	if err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, 0, err
	}
	for _, o := range orders {
		if lines, ok := items[o.ID]; ok {
			o.Items = lines
		}
	}

	return orders, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, status Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) MarkPaid(ctx context.Context, id uint) (*PaymentUpdate, error) {
	var (
		o   *Order
		upd PaymentUpdate
	)

	err := db.WithTx(ctx, r.db, func(tx db.Querier) error {
		var err error
		o, err = scanOrder(tx.QueryRowContext(ctx,
			"SELECT "+orderColumns+" FROM orders o WHERE o.id = $1 FOR UPDATE", id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		items, err := loadItems(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		if lines, ok := items[o.ID]; ok {
			o.Items = lines
		}

		if o.PaymentStatus {
			return nil
		}
		if o.Status == StatusCancelled {
			return ErrOrderCancelled
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET payment_status = TRUE, updated_at = NOW() WHERE id = $1 AND payment_status = FALSE`,
			o.ID,
		); err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
		o.PaymentStatus = true
		upd.Paid = true

		applied, err := applyFulfillment(ctx, tx, o)
		if err != nil {
			return err
		}
		if applied {
			now := time.Now()
			o.FulfilledAt = &now
			upd.Fulfilled = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	upd.Order = o
	return &upd, nil
}
