package manufacturer

import (
	"context"
	"strings"

	"pcshop/internal/logger"
	"pcshop/internal/redisx"
	"pcshop/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductCache is cleared when products lose their manufacturer reference.
type ProductCache interface {
	DeletePattern(ctx context.Context, pattern string) error
}

type Service interface {
	List(ctx context.Context, opts ListOptions) ([]*Manufacturer, int64, error)
	Get(ctx context.Context, idOrSlug string) (*Manufacturer, error)
	Create(ctx context.Context, input CreateInput) (*Manufacturer, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Manufacturer, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	products ProductCache
}

func NewService(repo Repository, products ProductCache) Service {
	if products == nil {
		products = redisx.Noop{}
	}
	return &service{repo: repo, products: products}
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*Manufacturer, int64, error) {
	return s.repo.List(ctx, opts)
}

func (s *service) Get(ctx context.Context, idOrSlug string) (*Manufacturer, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.GetByID(ctx, idOrSlug)
	}
	return s.repo.GetBySlug(ctx, idOrSlug)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Manufacturer, error) {
	name := strings.TrimSpace(input.Name)
	base := utils.Slugify(name)
	if base == "" {
		return nil, ErrNameRequired
	}

	slug, err := utils.UniqueSlug(ctx, base, s.repo.SlugExists)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.Create(ctx, &Manufacturer{
		Name:    name,
		Slug:    slug,
		LogoURL: strings.TrimSpace(input.LogoURL),
		Country: strings.TrimSpace(input.Country),
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("manufacturer created",
		zap.String("manufacturer_id", m.ID),
		zap.String("slug", m.Slug),
	)
	return m, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Manufacturer, error) {
	if input.Name == nil && input.LogoURL == nil && input.Country == nil {
		return nil, ErrNoFieldsToUpdate
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		base := utils.Slugify(name)
		if base == "" {
			return nil, ErrNameRequired
		}
		if name != m.Name {
			own := m.Slug
			slug, err := utils.UniqueSlug(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
				if candidate == own {
					return false, nil
				}
				return s.repo.SlugExists(ctx, candidate)
			})
			if err != nil {
				return nil, err
			}
			m.Name, m.Slug = name, slug
		}
	}
	if input.LogoURL != nil {
		m.LogoURL = strings.TrimSpace(*input.LogoURL)
	}
	if input.Country != nil {
		m.Country = strings.TrimSpace(*input.Country)
	}

	return s.repo.Update(ctx, m)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.products.DeletePattern(ctx, redisx.PatternProductSlug); err != nil {
		logger.FromCtx(ctx).Warn("product cache invalidation failed",
			zap.String("manufacturer_id", id),
			zap.Error(err),
		)
	}
	return nil
}
