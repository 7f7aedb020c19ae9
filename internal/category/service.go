package category

import (
	"context"
	"strings"

	"pcshop/internal/logger"
	"pcshop/internal/redisx"
	"pcshop/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductCache is cleared when products lose their category reference.
type ProductCache interface {
	DeletePattern(ctx context.Context, pattern string) error
}

type Service interface {
	List(ctx context.Context, opts ListOptions) ([]*Category, int64, error)
	Get(ctx context.Context, idOrSlug string) (*Category, error)
	Create(ctx context.Context, input CreateInput) (*Category, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Category, error)
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

func (s *service) List(ctx context.Context, opts ListOptions) ([]*Category, int64, error) {
	return s.repo.List(ctx, opts)
}

// Get accepts either the uuid or the slug.
func (s *service) Get(ctx context.Context, idOrSlug string) (*Category, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.GetByID(ctx, idOrSlug)
	}
	return s.repo.GetBySlug(ctx, idOrSlug)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.String("name", input.Name),
	)

	name := strings.TrimSpace(input.Name)
	base := utils.Slugify(name)
	if base == "" {
		return nil, ErrNameRequired
	}

	slug, err := utils.UniqueSlug(ctx, base, s.repo.SlugExists)
	if err != nil {
		log.Error("failed to resolve slug", zap.Error(err))
		return nil, err
	}

	c, err := s.repo.Create(ctx, &Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		log.Error("failed to add category", zap.Error(err))
		return nil, err
	}

	return c, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Category, error) {
	if input.Name == nil && input.Description == nil {
		return nil, ErrNoFieldsToUpdate
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		base := utils.Slugify(name)
		if base == "" {
			return nil, ErrNameRequired
		}
		if name != c.Name {
			current := c.Slug
			slug, err := utils.UniqueSlug(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
				if candidate == current {
					return false, nil
				}
				return s.repo.SlugExists(ctx, candidate)
			})
			if err != nil {
				return nil, err
			}
			c.Name, c.Slug = name, slug
		}
	}
	if input.Description != nil {
		c.Description = strings.TrimSpace(*input.Description)
	}

	return s.repo.Update(ctx, c)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	log := logger.FromCtx(ctx).With(zap.String("category_id", id))
	if err := s.products.DeletePattern(ctx, redisx.PatternProductSlug); err != nil {
		log.Warn("product cache invalidation failed", zap.Error(err))
	}
	log.Info("category deleted")
	return nil
}
