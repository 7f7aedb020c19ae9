package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pcshop/internal/logger"
	"pcshop/internal/redisx"
	"pcshop/internal/utils"

	"go.uber.org/zap"
)

// Cache is the subset of redisx.Cache the catalog uses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

type Service interface {
	List(ctx context.Context, opts ListOptions) ([]*Product, int64, error)
	ListRedeemable(ctx context.Context, page, limit int) ([]*Product, int64, error)
	Get(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Create(ctx context.Context, input CreateInput) (*Product, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Product, error)
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

func slugKey(slug string) string {
	return fmt.Sprintf(redisx.KeyProductSlug, slug)
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*Product, int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListProducts"),
	)

	if opts.Type != nil && !opts.Type.Valid() {
		return nil, 0, ErrInvalidType
	}
	if opts.MinPrice != nil && opts.MaxPrice != nil && opts.MinPrice.GreaterThan(*opts.MaxPrice) {
		return nil, 0, ErrInvalidPriceFilter
	}

	start := time.Now()
	products, total, err := s.repo.List(ctx, opts)
	if err != nil {
		log.Error("failed to fetch product list",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, 0, err
	}

	log.Debug("get product list success",
		zap.Int("count", len(products)),
		zap.Int64("total", total),
		zap.Duration("duration", time.Since(start)),
	)
	return products, total, nil
}

func (s *service) ListRedeemable(ctx context.Context, page, limit int) ([]*Product, int64, error) {
	redeemable := true
	return s.repo.List(ctx, ListOptions{
		Redeemable: &redeemable,
		Sort:       SortNewest,
		Page:       page,
		Limit:      limit,
	})
}

func (s *service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug serves the storefront detail page; it is read through the cache.
func (s *service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	log := logger.FromCtx(ctx).With(zap.String("slug", slug))

	var cached Product
	hit, err := s.cache.GetJSON(ctx, slugKey(slug), &cached)
	if err != nil {
		log.Warn("product cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, slugKey(slug), p); err != nil {
		log.Warn("product cache write failed", zap.Error(err))
	}
	return p, nil
}

func validate(p *Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	normalizePricing(p)
	if err := validatePricing(p.OriginalPrice, p.Discount); err != nil {
		return err
	}
	if p.IsRedeemable && p.PointCost <= 0 {
		return ErrInvalidPointCost
	}
	return nil
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
		zap.String("name", input.Name),
	)

	specs, err := NormalizeSpecs(input.Specs)
	if err != nil {
		return nil, err
	}

	p := &Product{
		Name:           strings.TrimSpace(input.Name),
		Type:           input.Type,
		CategoryID:     emptyToNil(input.CategoryID),
		ManufacturerID: emptyToNil(input.ManufacturerID),
		Description:    strings.TrimSpace(input.Description),
		Stock:          input.Stock,
		OriginalPrice:  input.OriginalPrice,
		Discount:       input.Discount,
		Images:         cleanImages(input.Images),
		Specs:          specs,
		IsRedeemable:   input.IsRedeemable,
		PointCost:      input.PointCost,
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if !p.IsRedeemable {
		p.PointCost = 0
	}

	base := utils.Slugify(p.Name)
	if base == "" {
		return nil, ErrNameRequired
	}
	if p.Slug, err = utils.UniqueSlug(ctx, base, s.repo.SlugExists); err != nil {
		log.Error("failed to resolve slug", zap.Error(err))
		return nil, err
	}

	p.FinalPrice = FinalPrice(p.OriginalPrice, p.Discount)

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	log.Info("product created",
		zap.String("product_id", created.ID),
		zap.String("slug", created.Slug),
		zap.String("final_price", created.FinalPrice.String()),
	)
	return created, nil
}

func hasAnyUpdateField(in UpdateInput) bool {
	return in.Name != nil || in.Type != nil || in.CategoryID != nil || in.ManufacturerID != nil ||
		in.Description != nil || in.Stock != nil || in.OriginalPrice != nil || in.Discount != nil ||
		in.Images != nil || in.Specs != nil || in.IsRedeemable != nil || in.PointCost != nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProduct"),
		zap.String("product_id", id),
	)

	if !hasAnyUpdateField(input) {
		return nil, ErrNoFieldsToUpdate
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := p.Slug

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != p.Name {
			base := utils.Slugify(name)
			if base == "" {
				return nil, ErrNameRequired
			}
			slug, err := utils.UniqueSlug(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
				if candidate == oldSlug {
					return false, nil
				}
				return s.repo.SlugExists(ctx, candidate)
			})
			if err != nil {
				return nil, err
			}
			p.Name, p.Slug = name, slug
		}
	}
	if input.Type != nil {
		p.Type = *input.Type
	}
	if input.CategoryID != nil {
		p.CategoryID = emptyToNil(input.CategoryID)
	}
	if input.ManufacturerID != nil {
		p.ManufacturerID = emptyToNil(input.ManufacturerID)
	}
	if input.Description != nil {
		p.Description = strings.TrimSpace(*input.Description)
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.OriginalPrice != nil {
		p.OriginalPrice = *input.OriginalPrice
	}
	if input.Discount != nil {
		p.Discount = *input.Discount
	}
	if input.Images != nil {
		p.Images = cleanImages(*input.Images)
	}
	if input.Specs != nil {
		specs, err := NormalizeSpecs(*input.Specs)
		if err != nil {
			return nil, err
		}
		p.Specs = specs
	}
	if input.IsRedeemable != nil {
		p.IsRedeemable = *input.IsRedeemable
	}
	if input.PointCost != nil {
		p.PointCost = *input.PointCost
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	if !p.IsRedeemable {
		p.PointCost = 0
	}
	p.FinalPrice = FinalPrice(p.OriginalPrice, p.Discount)

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, oldSlug, updated.Slug)
	log.Info("product updated", zap.String("slug", updated.Slug))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, p.Slug)
	return nil
}

func (s *service) invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs))
	seen := map[string]bool{}
	for _, slug := range slugs {
		if !seen[slug] {
			seen[slug] = true
			keys = append(keys, slugKey(slug))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.FromCtx(ctx).Warn("product cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}
