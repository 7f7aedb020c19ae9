package banner

import (
	"context"
	"fmt"
	"strings"

	"pcshop/internal/logger"
	"pcshop/internal/redisx"

	"go.uber.org/zap"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	DeletePattern(ctx context.Context, pattern string) error
}

type Service interface {
	// ListPublic returns active banners, optionally of one type. Results are cached.
	ListPublic(ctx context.Context, typ *Type) ([]*Banner, error)
	ListAll(ctx context.Context) ([]*Banner, error)
	Get(ctx context.Context, id string) (*Banner, error)
	Create(ctx context.Context, input CreateInput) (*Banner, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Banner, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo  Repository
	cache Cache
}

func NewService(repo Repository, cache Cache) Service {
	if cache == nil {
		cache = redisx.Noop{}
	}
	return &service{repo: repo, cache: cache}
}

func publicKey(typ *Type) string {
	suffix := "all"
	if typ != nil {
		suffix = string(*typ)
	}
	return fmt.Sprintf(redisx.KeyBannerList, suffix)
}

func (s *service) ListPublic(ctx context.Context, typ *Type) ([]*Banner, error) {
	if typ != nil && !typ.Valid() {
		return nil, ErrInvalidType
	}

	log := logger.FromCtx(ctx)
	key := publicKey(typ)

	var cached []*Banner
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		log.Warn("banner cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	banners, err := s.repo.List(ctx, ListOptions{Type: typ, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, banners); err != nil {
		log.Warn("banner cache write failed", zap.String("key", key), zap.Error(err))
	}
	return banners, nil
}

func (s *service) ListAll(ctx context.Context) ([]*Banner, error) {
	return s.repo.List(ctx, ListOptions{})
}

func (s *service) Get(ctx context.Context, id string) (*Banner, error) {
	return s.repo.GetByID(ctx, id)
}

func validate(b *Banner) error {
	if b.ImageURL == "" {
		return ErrImageRequired
	}
	if !b.Type.Valid() {
		return ErrInvalidType
	}
	if b.Position < 0 {
		return ErrNegativePosition
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Banner, error) {
	b := &Banner{
		Title:    strings.TrimSpace(input.Title),
		ImageURL: strings.TrimSpace(input.ImageURL),
		LinkURL:  strings.TrimSpace(input.LinkURL),
		Type:     input.Type,
		Position: input.Position,
		IsActive: input.IsActive == nil || *input.IsActive,
	}
	if err := validate(b); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Banner, error) {
	if input == (UpdateInput{}) {
		return nil, ErrNoFieldsToUpdate
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		b.Title = strings.TrimSpace(*input.Title)
	}
	if input.ImageURL != nil {
		b.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.LinkURL != nil {
		b.LinkURL = strings.TrimSpace(*input.LinkURL)
	}
	if input.Type != nil {
		b.Type = *input.Type
	}
	if input.Position != nil {
		b.Position = *input.Position
	}
	if input.IsActive != nil {
		b.IsActive = *input.IsActive
	}
	if err := validate(b); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, b)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, redisx.PatternBannerList); err != nil {
		logger.FromCtx(ctx).Warn("banner cache invalidation failed", zap.Error(err))
	}
}
