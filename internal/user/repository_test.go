package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{
	"id", "email", "password_hash", "full_name", "phone", "address", "role",
	"is_active", "points", "verification_code", "verification_expires_at",
	"created_at", "updated_at",
}

func userRow(id uint, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(id, email, "hash", "John", "0900", "", "customer", true, 12, nil, nil, now, now)
}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	code := "123456"
	expires := time.Now().Add(time.Minute)
	in := &User{
		Email: "john@example.com", PasswordHash: "hash", FullName: "John", Phone: "0900",
		Role: RoleCustomer, VerificationCode: &code, VerificationExpiresAt: &expires,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("john@example.com", "hash", "John", "0900", "customer", false, &code, &expires).
			WillReturnRows(userRow(1, "john@example.com"))

		u, err := repo.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, uint(1), u.ID)
		assert.Equal(t, RoleCustomer, u.Role)
		assert.Equal(t, int64(12), u.Points)
		assert.Nil(t, u.VerificationCode)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		_, err := repo.Create(ctx, in)
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(errors.New("db error"))

		_, err := repo.Create(ctx, in)
		assert.EqualError(t, err, "db error")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("ByEmail", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
			WithArgs("john@example.com").
			WillReturnRows(userRow(1, "john@example.com"))

		u, err := repo.FindByEmail(ctx, "john@example.com")
		require.NoError(t, err)
		assert.Equal(t, "john@example.com", u.Email)
	})

	t.Run("ByEmailNotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users`).
			WithArgs("x@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByEmail(ctx, "x@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("ByID", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(2).
			WillReturnRows(userRow(2, "a@b.com"))

		u, err := repo.FindByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, uint(2), u.ID)
	})

	t.Run("ByIDNotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(99).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(ctx, 99)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Verification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	expires := time.Now().Add(15 * time.Minute)

	t.Run("SetCode", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users\s+SET verification_code = \$1`).
			WithArgs("654321", expires, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetVerificationCode(ctx, 1, "654321", expires))
	})

	t.Run("SetCodeUnknownUser", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users`).
			WithArgs("654321", expires, 2).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SetVerificationCode(ctx, 2, "654321", expires), ErrUserNotFound)
	})

	t.Run("Activate", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users\s+SET is_active = TRUE`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Activate(ctx, 1))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Profile", func(t *testing.T) {
		name := "John"
		mock.ExpectQuery(`UPDATE users\s+SET full_name = COALESCE\(\$1, full_name\)`).
			WithArgs(&name, nil, nil, 1).
			WillReturnRows(userRow(1, "a@b.com"))

		u, err := repo.UpdateProfile(ctx, 1, UpdateProfileParams{FullName: &name})
		require.NoError(t, err)
		assert.Equal(t, "John", u.FullName)
	})

	t.Run("ProfileNotFound", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users`).WillReturnError(sql.ErrNoRows)

		_, err := repo.UpdateProfile(ctx, 5, UpdateProfileParams{})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Admin", func(t *testing.T) {
		role := RoleAdmin
		active := false
		mock.ExpectQuery(`UPDATE users\s+SET role = COALESCE\(\$1, role\)`).
			WithArgs("admin", false, 3).
			WillReturnRows(userRow(3, "a@b.com"))

		_, err := repo.AdminUpdate(ctx, 3, AdminUpdateParams{Role: &role, IsActive: &active})
		assert.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("WithFilters", func(t *testing.T) {
		search := "john"
		role := RoleCustomer

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE \(email ILIKE \$1 OR full_name ILIKE \$1\) AND role = \$2`).
			WithArgs("%john%", "customer").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT .* FROM users WHERE .* ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
			WithArgs("%john%", "customer", 10, 10).
			WillReturnRows(userRow(1, "john@example.com"))

		users, total, err := repo.List(ctx, ListOptions{Search: &search, Role: &role, Page: 2, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, users, 1)
	})

	t.Run("Defaults", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT .* FROM users ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
			WithArgs(20, 0).
			WillReturnRows(sqlmock.NewRows(userCols))

		users, total, err := repo.List(ctx, ListOptions{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, users)
	})

	t.Run("CountError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT`).WillReturnError(errors.New("boom"))

		_, _, err := repo.List(ctx, ListOptions{})
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(ctx, 1))

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, 2), ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
