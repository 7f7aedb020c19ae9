package refund

import (
	"context"
	"testing"
	"time"

	"pcshop/internal/order"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refundCols = []string{"id", "order_id", "user_id", "items", "reason", "status", "admin_note", "created_at", "updated_at"}

func refundRow(status Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(refundCols).AddRow(
		"r1", int64(42), int64(7), []byte(`[{"productId":"p1","quantity":1}]`), "dead on arrival",
		string(status), "", now, now,
	)
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	newReq := func() *RefundRequest {
		return &RefundRequest{OrderID: 42, UserID: 7, Items: Items{{ProductID: "p1", Quantity: 1}}, Reason: "broken", Status: StatusPending}
	}

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM orders WHERE id = \$1 FOR UPDATE`).WithArgs(uint(42)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
		mock.ExpectQuery(`SELECT items FROM refund_requests WHERE order_id = \$1 AND status <> \$2`).
			WithArgs(uint(42), "rejected").
			WillReturnRows(sqlmock.NewRows([]string{"items"}).
				AddRow([]byte(`[{"productId":"p1","quantity":1}]`)).
				AddRow([]byte(`[{"productId":"p1","quantity":2},{"productId":"p2","quantity":1}]`)))
		mock.ExpectQuery(`INSERT INTO refund_requests`).
			WithArgs(sqlmock.AnyArg(), uint(42), uint(7), []byte(`[{"productId":"p1","quantity":1}]`), "broken", "pending").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectExec(`UPDATE orders SET status = \$1`).WithArgs("refund_requested", uint(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		var seen map[string]int
		req := newReq()
		err = NewRepository(db).Create(ctx, req, func(prior map[string]int) error {
			seen = prior
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"p1": 3, "p2": 1}, seen)
		assert.NotEmpty(t, req.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CheckFailsRollsBack", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
		mock.ExpectQuery(`SELECT items FROM refund_requests`).WillReturnRows(sqlmock.NewRows([]string{"items"}))
		mock.ExpectRollback()

		err = NewRepository(db).Create(ctx, newReq(), func(map[string]int) error { return ErrQuantityExceeded })
		assert.ErrorIs(t, err, ErrQuantityExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OrderMissing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		err = NewRepository(db).Create(ctx, newReq(), func(map[string]int) error { return nil })
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("ApproveFlipsOrder", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE refund_requests\s+SET status = \$1, admin_note = \$2, updated_at = NOW\(\)\s+WHERE id = \$3 AND status = \$4`).
			WithArgs("approved", "ok", "r1", "pending").
			WillReturnRows(refundRow(StatusApproved))
		mock.ExpectExec(`UPDATE orders SET status = \$1`).WithArgs("refunded", uint(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		st := order.StatusRefunded
		got, err := NewRepository(db).UpdateStatus(ctx, "r1", StatusPending, StatusApproved, "ok", &st)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, got.Status)
		assert.Equal(t, Items{{ProductID: "p1", Quantity: 1}}, got.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ProcessingLeavesOrder", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE refund_requests`).WillReturnRows(refundRow(StatusProcessing))
		mock.ExpectCommit()

		_, err = NewRepository(db).UpdateStatus(ctx, "r1", StatusPending, StatusProcessing, "", nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stale", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE refund_requests`).WillReturnRows(sqlmock.NewRows(refundCols))
		mock.ExpectRollback()

		_, err = NewRepository(db).UpdateStatus(ctx, "r1", StatusPending, StatusApproved, "", nil)
		assert.ErrorIs(t, err, ErrStaleStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_GetAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`FROM refund_requests WHERE id = \$1`).WithArgs("r1").WillReturnRows(refundRow(StatusPending))
	req, err := repo.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, uint(42), req.OrderID)

	mock.ExpectQuery(`FROM refund_requests WHERE id = \$1`).WithArgs("nope").WillReturnRows(sqlmock.NewRows(refundCols))
	_, err = repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRefundNotFound)

	uid := uint(7)
	status := StatusPending
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM refund_requests WHERE user_id = \$1 AND status = \$2`).
		WithArgs(uid, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(uid, "pending", 20, 0).
		WillReturnRows(refundRow(StatusPending))

	list, total, err := repo.List(context.Background(), ListOptions{UserID: &uid, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatus_CanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusProcessing},
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusProcessing, StatusApproved},
		{StatusProcessing, StatusRejected},
		{StatusApproved, StatusCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, tr[0].CanTransition(tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]Status{
		{StatusPending, StatusCompleted},
		{StatusRejected, StatusApproved},
		{StatusCompleted, StatusPending},
		{StatusApproved, StatusRejected},
		{StatusProcessing, StatusPending},
	}
	for _, tr := range denied {
		assert.False(t, tr[0].CanTransition(tr[1]), "%s -> %s", tr[0], tr[1])
	}
}
