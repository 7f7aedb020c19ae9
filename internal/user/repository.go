package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pcshop/internal/logger"
	"pcshop/internal/utils"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	SetVerificationCode(ctx context.Context, id uint, code string, expiresAt time.Time) error
	Activate(ctx context.Context, id uint) error
	UpdateProfile(ctx context.Context, id uint, params UpdateProfileParams) (*User, error)
	AdminUpdate(ctx context.Context, id uint, params AdminUpdateParams) (*User, error)
	List(ctx context.Context, opts ListOptions) ([]*User, int64, error)
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `
	id, email, password_hash, full_name, phone, address, role,
	is_active, points, verification_code, verification_expires_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*User, error) {
	var u User
	err := s.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Address, &u.Role,
		&u.IsActive, &u.Points, &u.VerificationCode, &u.VerificationExpiresAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("email", u.Email),
	)

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (
			email, password_hash, full_name, phone, role,
			is_active, verification_code, verification_expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+userColumns,
		u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role,
		u.IsActive, u.VerificationCode, u.VerificationExpiresAt,
	)

	created, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			log.Warn("email already registered")
			return nil, ErrEmailExists
		}
		log.Error("db: failed to insert user", zap.Error(err))
		return nil, err
	}

	return created, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)",
		email,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByID(ctx context.Context, id uint) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1",
		id,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) SetVerificationCode(ctx context.Context, id uint, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET verification_code = $1, verification_expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`, code, expiresAt, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *repository) Activate(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET is_active = TRUE, verification_code = NULL,
			verification_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *repository) UpdateProfile(ctx context.Context, id uint, params UpdateProfileParams) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET full_name = COALESCE($1, full_name),
			phone = COALESCE($2, phone),
			address = COALESCE($3, address),
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+userColumns,
		params.FullName, params.Phone, params.Address, id,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) AdminUpdate(ctx context.Context, id uint, params AdminUpdateParams) (*User, error) {
	var role *string
	if params.Role != nil {
		role = utils.StrPtr(string(*params.Role))
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET role = COALESCE($1, role),
			is_active = COALESCE($2, is_active),
			updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		role, params.IsActive, id,
	)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*User, int64, error) {
	page, limit := utils.NormalizePage(opts.Page, opts.Limit)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
		zap.Int("page", page),
		zap.Int("limit", limit),
	)

	var conditions []string
	args := []any{}
	argIndex := 1

	if opts.Search != nil && *opts.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(email ILIKE $%d OR full_name ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*opts.Search+"%")
		argIndex++
	}

	if opts.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, string(*opts.Role))
		argIndex++
	}

	if opts.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *opts.IsActive)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+whereClause, args...).Scan(&total); err != nil {
		log.Error("failed to count users", zap.Error(err))
		return nil, 0, err
	}

	query := "SELECT " + userColumns + " FROM users" + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, utils.Offset(page, limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query users", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			log.Error("failed to scan user", zap.Error(err))
			return nil, 0, err
		}
		users = append(users, u)
	}

	return users, total, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
