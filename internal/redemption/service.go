package redemption

import (
	"context"

	"pcshop/internal/events"
	"pcshop/internal/logger"
	"pcshop/internal/mailer"
	"pcshop/internal/metrics"
	"pcshop/internal/product"
	"pcshop/internal/user"
	"pcshop/internal/utils"

	"go.uber.org/zap"
)

type ProductReader interface {
	Get(ctx context.Context, id string) (*product.Product, error)
}

type UserReader interface {
	Get(ctx context.Context, id uint) (*user.User, error)
}

type Mailer interface {
	SendRedemption(ctx context.Context, to string, data mailer.RedemptionMail) error
}

type Service interface {
	Redeem(ctx context.Context, productID string) (*Result, error)
	ListMine(ctx context.Context, page, limit int) ([]*Redemption, int64, error)
	ListAll(ctx context.Context, page, limit int) ([]*Redemption, int64, error)
}

type service struct {
	repo     Repository
	products ProductReader
	users    UserReader
	mail     Mailer
	events   events.Publisher
	stats    *metrics.Registry
}

func NewService(repo Repository, products ProductReader, users UserReader, mail Mailer, pub events.Publisher, stats *metrics.Registry) Service {
	if pub == nil {
		pub = events.Noop{}
	}
	if stats == nil {
		stats = metrics.NewRegistry()
	}
	return &service{repo: repo, products: products, users: users, mail: mail, events: pub, stats: stats}
}

// Redeem exchanges the caller's points for a product. Stock is not touched;
// redeemed items are handed out by staff.
func (s *service) Redeem(ctx context.Context, productID string) (*Result, error) {
	uid, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Redeem"),
		zap.Uint("user_id", uid),
		zap.String("product_id", productID),
	)

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsRedeemable || p.PointCost <= 0 {
		return nil, ErrNotRedeemable
	}

	u, err := s.users.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u.Points < p.PointCost {
		return nil, ErrInsufficientPoints
	}

	red := &Redemption{
		UserID:      uid,
		UserEmail:   u.Email,
		ProductID:   p.ID,
		ProductName: p.Name,
		PointCost:   p.PointCost,
	}
	remaining, err := s.repo.Redeem(ctx, red)
	if err != nil {
		return nil, err
	}

	s.stats.PointsRedeemed.Add(uint64(red.PointCost))
	log.Info("points redeemed",
		zap.Int64("point_cost", red.PointCost),
		zap.Int64("remaining", remaining),
	)

	if s.mail != nil {
		if err := s.mail.SendRedemption(ctx, u.Email, mailer.RedemptionMail{
			Name:            u.FullName,
			ProductName:     p.Name,
			PointCost:       red.PointCost,
			RemainingPoints: remaining,
		}); err != nil {
			log.Warn("failed to send redemption email", zap.Error(err))
		}
	}

	if err := s.events.Publish(ctx, events.TypeRedemptionCreated, red.ID, events.RedemptionPayload{
		RedemptionID: red.ID,
		UserID:       uid,
		ProductID:    p.ID,
		PointCost:    red.PointCost,
	}); err != nil {
		log.Warn("failed to publish redemption event", zap.Error(err))
	}

	return &Result{Redemption: red, RemainingPoints: remaining}, nil
}

func (s *service) ListMine(ctx context.Context, page, limit int) ([]*Redemption, int64, error) {
	uid, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, 0, ErrUnauthenticated
	}
	return s.repo.List(ctx, ListOptions{UserID: &uid, Page: page, Limit: limit})
}

func (s *service) ListAll(ctx context.Context, page, limit int) ([]*Redemption, int64, error) {
	return s.repo.List(ctx, ListOptions{Page: page, Limit: limit})
}
