package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"pcshop/internal/logger"
	"pcshop/internal/utils"

	"go.uber.org/zap"
)

const (
	verificationCodeLength = 6
	verificationCodeTTL    = 15 * time.Minute
	minPasswordLength      = 6
)

// Notifier delivers account emails. Failures are logged, never returned.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, name, code string) error
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Verify(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, id uint) (*User, error)
	UpdateMe(ctx context.Context, id uint, params UpdateProfileParams) (*User, error)
	List(ctx context.Context, opts ListOptions) ([]*User, int64, error)
	Get(ctx context.Context, id uint) (*User, error)
	AdminUpdate(ctx context.Context, id uint, params AdminUpdateParams) (*User, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo     Repository
	tokens   *TokenManager
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, tokens *TokenManager, notifier Notifier) Service {
	return &service{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := normalizeEmail(input.Email)
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
		zap.String("email", email),
	)

	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	code, err := utils.GenerateNumericCode(verificationCodeLength)
	if err != nil {
		log.Error("failed to generate verification code", zap.Error(err))
		return nil, err
	}
	expiresAt := s.now().Add(verificationCodeTTL)

	u, err := s.repo.Create(ctx, &User{
		Email:                 email,
		PasswordHash:          hashed,
		FullName:              strings.TrimSpace(input.FullName),
		Phone:                 strings.TrimSpace(input.Phone),
		Role:                  RoleCustomer,
		IsActive:              false,
		VerificationCode:      &code,
		VerificationExpiresAt: &expiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.sendCode(ctx, u.Email, u.FullName, code)

	log.Info("user registered", zap.Uint("user_id", u.ID))
	return u, nil
}

func (s *service) Verify(ctx context.Context, email, code string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Verify"),
	)

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u.IsActive {
		return ErrAlreadyVerified
	}
	if u.VerificationCode == nil || *u.VerificationCode != strings.TrimSpace(code) {
		return ErrInvalidCode
	}
	if u.VerificationExpiresAt == nil || s.now().After(*u.VerificationExpiresAt) {
		return ErrCodeExpired
	}

	if err := s.repo.Activate(ctx, u.ID); err != nil {
		log.Error("failed to activate user", zap.Uint("user_id", u.ID), zap.Error(err))
		return err
	}

	log.Info("user verified", zap.Uint("user_id", u.ID))
	return nil
}

func (s *service) ResendCode(ctx context.Context, email string) error {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u.IsActive {
		return ErrAlreadyVerified
	}

	code, err := utils.GenerateNumericCode(verificationCodeLength)
	if err != nil {
		return err
	}
	if err := s.repo.SetVerificationCode(ctx, u.ID, code, s.now().Add(verificationCodeTTL)); err != nil {
		return err
	}

	s.sendCode(ctx, u.Email, u.FullName, code)
	return nil
}

func (s *service) sendCode(ctx context.Context, email, name, code string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendVerificationCode(ctx, email, name, code); err != nil {
		logger.FromCtx(ctx).Warn("failed to send verification code",
			zap.String("email", email),
			zap.Error(err),
		)
	}
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Info("email not found")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		log.Info("password not match", zap.Uint("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveAccount
	}

	token, expiresAt, err := s.tokens.Generate(u)
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return nil, err
	}

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt.Unix(),
		User:        u,
	}, nil
}

func (s *service) Me(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateMe(ctx context.Context, id uint, params UpdateProfileParams) (*User, error) {
	if params.FullName == nil && params.Phone == nil && params.Address == nil {
		return nil, ErrNoFieldsToUpdate
	}
	return s.repo.UpdateProfile(ctx, id, params)
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*User, int64, error) {
	if opts.Role != nil && !opts.Role.Valid() {
		return nil, 0, ErrInvalidRole
	}
	return s.repo.List(ctx, opts)
}

func (s *service) Get(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) AdminUpdate(ctx context.Context, id uint, params AdminUpdateParams) (*User, error) {
	if params.Role == nil && params.IsActive == nil {
		return nil, ErrNoFieldsToUpdate
	}
	if params.Role != nil && !params.Role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.repo.AdminUpdate(ctx, id, params)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
