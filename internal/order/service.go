package order

import (
	"context"
	"errors"
	"strings"

	"pcshop/internal/apperror"
	"pcshop/internal/events"
	"pcshop/internal/logger"
	"pcshop/internal/mailer"
	"pcshop/internal/metrics"
	"pcshop/internal/payment"
	"pcshop/internal/redisx"
	"pcshop/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mailer sends the order confirmation.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, to string, data mailer.OrderMail) error
}

// maxCodeAttempts bounds retries when a generated order code is already taken.
const maxCodeAttempts = 3

// CatalogCache drops cached product pages after stock moves.
type CatalogCache interface {
	DeletePattern(ctx context.Context, pattern string) error
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	List(ctx context.Context, opts ListOptions) ([]*Order, int64, error)
	Get(ctx context.Context, id uint) (*Order, error)
	UpdateStatus(ctx context.Context, id uint, status Status) (*Order, error)
	MarkPaid(ctx context.Context, id uint) (*Order, error)
	PaymentQR(ctx context.Context, id uint) (*payment.Info, error)
}

type service struct {
	repo    Repository
	qr      payment.QRBuilder
	mail    Mailer
	events  events.Publisher
	stats   *metrics.Registry
	catalog CatalogCache
}

func NewService(repo Repository, qr payment.QRBuilder, mail Mailer, pub events.Publisher, stats *metrics.Registry, catalog CatalogCache) Service {
	if pub == nil {
		pub = events.Noop{}
	}
	if stats == nil {
		stats = metrics.NewRegistry()
	}
	if catalog == nil {
		catalog = redisx.Noop{}
	}
	return &service{repo: repo, qr: qr, mail: mail, events: pub, stats: stats, catalog: catalog}
}

func normalizeInput(in CreateInput) (CreateInput, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	in.Note = strings.TrimSpace(in.Note)

	switch {
	case in.CustomerName == "":
		return in, ErrCustomerNameRequired
	case !utils.IsValidEmail(in.CustomerEmail):
		return in, ErrInvalidEmail
	case in.CustomerPhone == "":
		return in, ErrPhoneRequired
	case in.ShippingAddress == "":
		return in, ErrAddressRequired
	case !in.PaymentMethod.Valid():
		return in, ErrInvalidPayment
	case len(in.Items) == 0:
		return in, ErrEmptyItems
	}

	merged, err := mergeItems(in.Items)
	if err != nil {
		return in, err
	}
	in.Items = merged
	return in, nil
}

// mergeItems sums quantities of repeated products, keeping first-seen order.
func mergeItems(items []ItemInput) ([]ItemInput, error) {
	index := make(map[string]int, len(items))
	out := make([]ItemInput, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, ErrUnknownProduct
		}
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, ItemInput{ProductID: id, Quantity: it.Quantity})
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
	)

	in, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(in.Items))
	for i, it := range in.Items {
		ids[i] = it.ProductID
	}
	catalog, err := s.repo.LookupProducts(ctx, ids)
	if err != nil {
		log.Error("failed to load products", zap.Error(err))
		return nil, err
	}

	o := &Order{
		Code:            utils.GenerateOrderCode(),
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		ShippingAddress: in.ShippingAddress,
		Note:            in.Note,
		PaymentMethod:   in.PaymentMethod,
		Status:          StatusPending,
		Items:           make([]Item, 0, len(in.Items)),
		Total:           decimal.Zero,
	}
	if uid, ok := utils.GetUserIDFromContext(ctx); ok {
		o.UserID = &uid
	}

	for _, it := range in.Items {
		p, ok := catalog[it.ProductID]
		if !ok {
			return nil, ErrUnknownProduct
		}
		if p.Stock < it.Quantity {
			log.Info("rejecting order: insufficient stock",
				zap.String("product_id", p.ID),
				zap.Int("stock", p.Stock),
				zap.Int("quantity", it.Quantity),
			)
			return nil, ErrInsufficientStock
		}
		line := Item{ProductID: p.ID, ProductName: p.Name, Price: p.FinalPrice, Quantity: it.Quantity}
		o.Items = append(o.Items, line)
		o.Total = o.Total.Add(line.Subtotal())
	}
	o.EarnedPoints = EarnedPoints(o.Total)

	fulfillNow := o.PaymentMethod == payment.MethodCOD
	var created *Order
	for attempt := 1; ; attempt++ {
		created, err = s.repo.Create(ctx, o, fulfillNow)
		if !errors.Is(err, ErrDuplicateOrderCode) || attempt == maxCodeAttempts {
			break
		}
		o.Code = utils.GenerateOrderCode()
	}
	if err != nil {
		return nil, err
	}

	log = log.With(zap.Uint("order_id", created.ID), zap.String("code", created.Code))
	log.Info("order created",
		zap.String("total", created.Total.String()),
		zap.String("payment_method", string(created.PaymentMethod)),
	)

	if created.FulfilledAt != nil {
		s.recordFulfillment(ctx, created)
	}

	result := &CreateResult{Order: created}
	info, err := s.qr.BuildInfo(created.PaymentMethod, created.Code, created.Total)
	if err != nil {
		log.Warn("payment info unavailable", zap.Error(err))
	} else {
		result.Payment = info
	}

	s.sendConfirmation(ctx, created, result.Payment)
	s.publish(ctx, events.TypeOrderCreated, created, events.OrderCreatedPayload{
		OrderID:       created.ID,
		Code:          created.Code,
		UserID:        created.UserID,
		PaymentMethod: string(created.PaymentMethod),
		Total:         created.Total.String(),
		Items:         eventLines(created.Items),
	})

	return result, nil
}

func eventLines(items []Item) []events.OrderLine {
	out := make([]events.OrderLine, len(items))
	for i, it := range items {
		out[i] = events.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price.String()}
	}
	return out
}

func (s *service) sendConfirmation(ctx context.Context, o *Order, info *payment.Info) {
	if s.mail == nil {
		return
	}

	lines := make([]mailer.OrderLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = mailer.OrderLine{Name: it.ProductName, Quantity: it.Quantity, Price: it.Price.StringFixed(0)}
	}
	data := mailer.OrderMail{
		CustomerName:  o.CustomerName,
		Code:          o.Code,
		Items:         lines,
		Total:         o.Total.StringFixed(0),
		PaymentMethod: string(o.PaymentMethod),
	}
	if info != nil {
		data.QRURL = info.QRURL
	}

	if err := s.mail.SendOrderConfirmation(ctx, o.CustomerEmail, data); err != nil {
		logger.FromCtx(ctx).Warn("failed to send order confirmation",
			zap.Uint("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (s *service) publish(ctx context.Context, eventType string, o *Order, payload any) {
	if err := s.events.Publish(ctx, eventType, o.Code, payload); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order event",
			zap.String("event_type", eventType),
			zap.Uint("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (s *service) recordFulfillment(ctx context.Context, o *Order) {
	// Stock and sold counts changed under the cached product pages.
	if err := s.catalog.DeletePattern(ctx, redisx.PatternProductSlug); err != nil {
		logger.FromCtx(ctx).Warn("product cache invalidation failed",
			zap.Uint("order_id", o.ID),
			zap.Error(err),
		)
	}

	s.stats.OrdersFulfilled.Inc()
	if o.UserID != nil && o.EarnedPoints > 0 {
		s.stats.PointsAwarded.Add(uint64(o.EarnedPoints))
	}
	s.publish(ctx, events.TypeOrderFulfilled, o, events.OrderFulfilledPayload{
		OrderID:      o.ID,
		UserID:       o.UserID,
		EarnedPoints: o.EarnedPoints,
	})
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*Order, int64, error) {
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

func (s *service) Get(ctx context.Context, id uint) (*Order, error) {
	uid, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !utils.IsAdmin(ctx) && !o.IsOwnedBy(uid) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uint, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order status updated",
		zap.Uint("order_id", id),
		zap.String("status", string(status)),
	)
	return s.repo.GetByID(ctx, id)
}

// MarkPaid is idempotent: paying an already paid order changes nothing.
func (s *service) MarkPaid(ctx context.Context, id uint) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MarkPaid"),
		zap.Uint("order_id", id),
	)

	upd, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}
	if !upd.Paid {
		log.Info("order already paid")
		return upd.Order, nil
	}

	log.Info("order marked as paid", zap.Bool("fulfilled", upd.Fulfilled))
	s.publish(ctx, events.TypeOrderPaid, upd.Order, events.OrderCreatedPayload{
		OrderID:       upd.Order.ID,
		Code:          upd.Order.Code,
		UserID:        upd.Order.UserID,
		PaymentMethod: string(upd.Order.PaymentMethod),
		Total:         upd.Order.Total.String(),
		Items:         eventLines(upd.Order.Items),
	})
	if upd.Fulfilled {
		s.recordFulfillment(ctx, upd.Order)
	}
	return upd.Order, nil
}

func (s *service) PaymentQR(ctx context.Context, id uint) (*payment.Info, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != payment.MethodBankTransfer {
		return nil, ErrNotBankTransfer
	}

	info, err := s.qr.BuildInfo(o.PaymentMethod, o.Code, o.Total)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, ErrQRUnavailable.Message, err)
	}
	return info, nil
}
