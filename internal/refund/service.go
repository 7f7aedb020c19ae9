package refund

import (
	"context"
	"strings"

	"pcshop/internal/events"
	"pcshop/internal/logger"
	"pcshop/internal/mailer"
	"pcshop/internal/order"
	"pcshop/internal/utils"

	"go.uber.org/zap"
)

type OrderReader interface {
	GetByID(ctx context.Context, id uint) (*order.Order, error)
}

type Mailer interface {
	SendRefundDecision(ctx context.Context, to string, data mailer.RefundMail) error
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*RefundRequest, error)
	List(ctx context.Context, opts ListOptions) ([]*RefundRequest, int64, error)
	Get(ctx context.Context, id string) (*RefundRequest, error)
	UpdateStatus(ctx context.Context, id string, input UpdateStatusInput) (*RefundRequest, error)
}

type service struct {
	repo   Repository
	orders OrderReader
	mail   Mailer
	events events.Publisher
}

func NewService(repo Repository, orders OrderReader, mail Mailer, pub events.Publisher) Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &service{repo: repo, orders: orders, mail: mail, events: pub}
}

func mergeItems(items []Item) (Items, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	index := map[string]int{}
	out := make(Items, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, ErrProductNotInOrder
		}
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, Item{ProductID: id, Quantity: it.Quantity})
	}
	return out, nil
}

// quantityCheck enforces, per product, prior + requested <= ordered.
func quantityCheck(o *order.Order, items Items) QuantityCheck {
	return func(prior map[string]int) error {
		for _, it := range items {
			if prior[it.ProductID]+it.Quantity > o.QuantityOf(it.ProductID) {
				return ErrQuantityExceeded
			}
		}
		return nil
	}
}

func (s *service) Create(ctx context.Context, input CreateInput) (*RefundRequest, error) {
	uid, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateRefund"),
		zap.Uint("order_id", input.OrderID),
	)

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	items, err := mergeItems(input.Items)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(uid) {
		return nil, ErrForbidden
	}
	if !o.PaymentStatus && o.FulfilledAt == nil {
		return nil, ErrOrderNotRefundable
	}
	for _, it := range items {
		if o.QuantityOf(it.ProductID) == 0 {
			return nil, ErrProductNotInOrder
		}
	}

	req := &RefundRequest{
		OrderID: o.ID,
		UserID:  uid,
		Items:   items,
		Reason:  reason,
		Status:  StatusPending,
	}
	if err := s.repo.Create(ctx, req, quantityCheck(o, items)); err != nil {
		return nil, err
	}

	log.Info("refund requested", zap.String("refund_id", req.ID))
	s.publish(ctx, events.TypeRefundRequested, req)
	return req, nil
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*RefundRequest, int64, error) {
	uid, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, 0, ErrUnauthenticated
	}
	if !utils.IsAdmin(ctx) {
		opts.UserID = &uid
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.repo.List(ctx, opts)
}

func (s *service) Get(ctx context.Context, id string) (*RefundRequest, error) {
	uid, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !utils.IsAdmin(ctx) && req.UserID != uid {
		return nil, ErrForbidden
	}
	return req, nil
}

func orderStatusFor(s Status) *order.Status {
	var st order.Status
	switch s {
	case StatusApproved:
		st = order.StatusRefunded
	case StatusRejected:
		st = order.StatusRefundRejected
	default:
		return nil
	}
	return &st
}

func (s *service) UpdateStatus(ctx context.Context, id string, input UpdateStatusInput) (*RefundRequest, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateRefundStatus"),
		zap.String("refund_id", id),
	)

	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(input.Status) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, input.Status,
		strings.TrimSpace(input.AdminNote), orderStatusFor(input.Status))
	if err != nil {
		return nil, err
	}

	log.Info("refund status updated",
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)

	s.notify(ctx, updated)
	s.publish(ctx, events.TypeRefundDecided, updated)
	return updated, nil
}

func (s *service) notify(ctx context.Context, req *RefundRequest) {
	if s.mail == nil {
		return
	}
	switch req.Status {
	case StatusApproved, StatusRejected, StatusCompleted:
	default:
		return
	}

	log := logger.FromCtx(ctx).With(zap.String("refund_id", req.ID))
	o, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		log.Warn("cannot load order for refund email", zap.Error(err))
		return
	}
	if err := s.mail.SendRefundDecision(ctx, o.CustomerEmail, mailer.RefundMail{
		Name:      o.CustomerName,
		OrderCode: o.Code,
		Status:    string(req.Status),
		AdminNote: req.AdminNote,
	}); err != nil {
		log.Warn("failed to send refund email", zap.Error(err))
	}
}

func (s *service) publish(ctx context.Context, eventType string, req *RefundRequest) {
	if err := s.events.Publish(ctx, eventType, req.ID, events.RefundPayload{
		RefundID: req.ID,
		OrderID:  req.OrderID,
		UserID:   req.UserID,
		Status:   string(req.Status),
	}); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish refund event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
