package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"pcshop/internal/apperror"
	"pcshop/internal/events"
	"pcshop/internal/mailer"
	"pcshop/internal/metrics"
	"pcshop/internal/payment"
	"pcshop/internal/redisx"
	"pcshop/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) LookupProducts(ctx context.Context, ids []string) (map[string]ProductSnapshot, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]ProductSnapshot), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, o *Order, fulfill bool) (*Order, error) {
	args := m.Called(ctx, o, fulfill)
	if fn, ok := args.Get(0).(func(*Order) *Order); ok {
		return fn(o), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uint) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, opts ListOptions) ([]*Order, int64, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uint, status Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockRepository) MarkPaid(ctx context.Context, id uint) (*PaymentUpdate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentUpdate), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOrderConfirmation(ctx context.Context, to string, data mailer.OrderMail) error {
	return m.Called(ctx, to, data).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	return m.Called(ctx, eventType, key, payload).Error(0)
}

var testQR = payment.QRBuilder{BankID: "VCB", AccountNo: "0123456789", AccountName: "PC SHOP"}

func customerCtx(id uint) context.Context {
	return utils.SetUserContext(context.Background(), id, "lan@example.com", utils.RoleCustomer)
}

func adminCtx() context.Context {
	return utils.SetUserContext(context.Background(), 1, "admin@pcshop.local", utils.RoleAdmin)
}

func validInput(method payment.Method) CreateInput {
	return CreateInput{
		CustomerName:    " Lan ",
		CustomerEmail:   "Lan@Example.com",
		CustomerPhone:   "0901234567",
		ShippingAddress: "12 Nguyen Hue",
		PaymentMethod:   method,
		Items: []ItemInput{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
		},
	}
}

var catalog = map[string]ProductSnapshot{
	"p1": {ID: "p1", Name: "RTX 4070", FinalPrice: decimal.NewFromInt(15000000), Stock: 5},
	"p2": {ID: "p2", Name: "DDR5 32GB", FinalPrice: decimal.NewFromInt(2550000), Stock: 2},
}

func echo(o *Order) *Order { return o }

// echoCreate returns the order the service built, stamped as the repository would.
func echoCreate(fulfilled bool) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		o := args.Get(1).(*Order)
		o.ID = 42
		if fulfilled {
			now := time.Now()
			o.FulfilledAt = &now
		}
	}
}

func TestService_Create_COD(t *testing.T) {
	ctx := customerCtx(7)
	repo := new(MockRepository)
	mail := new(MockMailer)
	pub := new(MockPublisher)
	stats := metrics.NewRegistry()

	repo.On("LookupProducts", ctx, []string{"p1", "p2"}).Return(catalog, nil)

	var built *Order
	repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool {
		built = o
		return true
	}), true).Run(echoCreate(true)).Return(echo, nil)

	mail.On("SendOrderConfirmation", ctx, "lan@example.com", mock.MatchedBy(func(d mailer.OrderMail) bool {
		return d.Total == "20100000" && len(d.Items) == 2 && d.QRURL == ""
	})).Return(nil)
	pub.On("Publish", ctx, events.TypeOrderFulfilled, mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", ctx, events.TypeOrderCreated, mock.Anything, mock.Anything).Return(nil)

	res, err := NewService(repo, testQR, mail, pub, stats, nil).Create(ctx, validInput(payment.MethodCOD))
	require.NoError(t, err)

	require.NotNil(t, built)
	assert.Equal(t, "Lan", built.CustomerName)
	assert.Equal(t, uint(7), *built.UserID)
	require.Len(t, built.Items, 2)
	assert.Equal(t, 2, built.Items[1].Quantity)
	assert.True(t, decimal.NewFromInt(20100000).Equal(built.Total))
	assert.Equal(t, int64(2010), built.EarnedPoints)
	assert.True(t, strings.HasPrefix(built.Code, "PC"))

	assert.Equal(t, uint(42), res.Order.ID)
	require.NotNil(t, res.Payment)
	assert.Empty(t, res.Payment.QRURL)

	assert.Equal(t, uint64(1), stats.OrdersFulfilled.Load())
	assert.Equal(t, uint64(2010), stats.PointsAwarded.Load())
	mail.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func newProductCache(t *testing.T) (*redisx.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr(), "")
	t.Cleanup(func() { rdb.Close() })
	return redisx.NewCache(rdb, time.Minute), mr
}

func TestService_FulfillmentDropsProductCache(t *testing.T) {
	ctx := context.Background()
	p1 := fmt.Sprintf(redisx.KeyProductSlug, "rtx-4070")
	p2 := fmt.Sprintf(redisx.KeyProductSlug, "ddr5-32gb")

	t.Run("COD", func(t *testing.T) {
		cache, mr := newProductCache(t)
		require.NoError(t, mr.Set(p1, `{"id":"p1","stock":5}`))
		require.NoError(t, mr.Set(p2, `{"id":"p2","stock":2}`))
		require.NoError(t, mr.Set("banners:public:all", "[]"))

		repo := new(MockRepository)
		repo.On("LookupProducts", ctx, mock.Anything).Return(catalog, nil)
		repo.On("Create", ctx, mock.Anything, true).Run(echoCreate(true)).Return(echo, nil)

		_, err := NewService(repo, testQR, nil, nil, nil, cache).Create(ctx, validInput(payment.MethodCOD))
		require.NoError(t, err)

		var cached map[string]any
		hit, err := cache.GetJSON(ctx, p1, &cached)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.False(t, mr.Exists(p2))
		assert.True(t, mr.Exists("banners:public:all"))
	})

	t.Run("BankTransferKeepsCache", func(t *testing.T) {
		cache, mr := newProductCache(t)
		require.NoError(t, mr.Set(p1, `{"id":"p1"}`))

		repo := new(MockRepository)
		repo.On("LookupProducts", ctx, mock.Anything).Return(catalog, nil)
		repo.On("Create", ctx, mock.Anything, false).Run(echoCreate(false)).Return(echo, nil)

		_, err := NewService(repo, testQR, nil, nil, nil, cache).Create(ctx, validInput(payment.MethodBankTransfer))
		require.NoError(t, err)
		assert.True(t, mr.Exists(p1))
	})

	t.Run("MarkPaid", func(t *testing.T) {
		cache, mr := newProductCache(t)
		require.NoError(t, mr.Set(p1, `{"id":"p1"}`))

		admin := adminCtx()
		repo := new(MockRepository)
		o := &Order{ID: 42, Code: "PC1", PaymentStatus: true}
		repo.On("MarkPaid", admin, uint(42)).Return(&PaymentUpdate{Order: o, Paid: true, Fulfilled: true}, nil)

		_, err := NewService(repo, testQR, nil, nil, nil, cache).MarkPaid(admin, 42)
		require.NoError(t, err)
		assert.False(t, mr.Exists(p1))
	})
}

func TestService_Create_RetriesTakenCode(t *testing.T) {
	ctx := context.Background()

	t.Run("SecondCodeWins", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LookupProducts", ctx, mock.Anything).Return(catalog, nil)

		var codes []string
		record := func(args mock.Arguments) { codes = append(codes, args.Get(1).(*Order).Code) }
		repo.On("Create", ctx, mock.Anything, false).Run(record).Return(nil, ErrDuplicateOrderCode).Once()
		repo.On("Create", ctx, mock.Anything, false).Run(record).Return(echo, nil).Once()

		res, err := NewService(repo, testQR, nil, nil, nil, nil).Create(ctx, validInput(payment.MethodBankTransfer))
		require.NoError(t, err)
		require.Len(t, codes, 2)
		assert.NotEqual(t, codes[0], codes[1])
		assert.Equal(t, codes[1], res.Order.Code)
		assert.Contains(t, res.Payment.QRURL, "addInfo="+codes[1])
	})

	t.Run("GivesUp", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LookupProducts", ctx, mock.Anything).Return(catalog, nil)
		repo.On("Create", ctx, mock.Anything, true).Return(nil, ErrDuplicateOrderCode).Times(maxCodeAttempts)

		_, err := NewService(repo, testQR, nil, nil, nil, nil).Create(ctx, validInput(payment.MethodCOD))
		assert.ErrorIs(t, err, ErrDuplicateOrderCode)
		repo.AssertNumberOfCalls(t, "Create", maxCodeAttempts)
	})
}

func TestService_Create_BankTransfer(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	stats := metrics.NewRegistry()

	repo.On("LookupProducts", ctx, mock.Anything).Return(catalog, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool { return o.UserID == nil }), false).
		Run(echoCreate(false)).
		Return(echo, nil)

	res, err := NewService(repo, testQR, nil, nil, stats, nil).Create(ctx, validInput(payment.MethodBankTransfer))
	require.NoError(t, err)
	require.NotNil(t, res.Payment)
	assert.Contains(t, res.Payment.QRURL, "https://img.vietqr.io/image/vcb-0123456789-compact2.png")
	assert.Contains(t, res.Payment.QRURL, "amount=20100000")
	assert.Contains(t, res.Payment.QRURL, "addInfo="+res.Order.Code)
	assert.Zero(t, stats.OrdersFulfilled.Load())
}

func TestService_Create_SideEffectFailuresAreNonCritical(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	mail := new(MockMailer)
	pub := new(MockPublisher)

	repo.On("LookupProducts", ctx, mock.Anything).Return(catalog, nil)
	repo.On("Create", ctx, mock.Anything, false).Run(echoCreate(false)).
		Return(echo, nil)
	mail.On("SendOrderConfirmation", ctx, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	pub.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(events.ErrProducerBusy)

	// An unconfigured QR account still lets the order through.
	res, err := NewService(repo, payment.QRBuilder{}, mail, pub, nil, nil).Create(ctx, validInput(payment.MethodBankTransfer))
	require.NoError(t, err)
	assert.Nil(t, res.Payment)
	mail.AssertExpectations(t)
}

func TestService_Create_Validation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"NoName", func(in *CreateInput) { in.CustomerName = " " }, ErrCustomerNameRequired},
		{"BadEmail", func(in *CreateInput) { in.CustomerEmail = "lan" }, ErrInvalidEmail},
		{"NoPhone", func(in *CreateInput) { in.CustomerPhone = "" }, ErrPhoneRequired},
		{"NoAddress", func(in *CreateInput) { in.ShippingAddress = "" }, ErrAddressRequired},
		{"BadMethod", func(in *CreateInput) { in.PaymentMethod = "crypto" }, ErrInvalidPayment},
		{"NoItems", func(in *CreateInput) { in.Items = nil }, ErrEmptyItems},
		{"ZeroQuantity", func(in *CreateInput) { in.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"BlankProduct", func(in *CreateInput) { in.Items[0].ProductID = " " }, ErrUnknownProduct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(payment.MethodCOD)
			tc.mutate(&in)
			repo := new(MockRepository)

			_, err := NewService(repo, testQR, nil, nil, nil, nil).Create(ctx, in)
			assert.ErrorIs(t, err, tc.want)
			repo.AssertNotCalled(t, "LookupProducts", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Create_CatalogChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownProduct", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LookupProducts", ctx, mock.Anything).
			Return(map[string]ProductSnapshot{"p1": catalog["p1"]}, nil)

		_, err := NewService(repo, testQR, nil, nil, nil, nil).Create(ctx, validInput(payment.MethodCOD))
		assert.ErrorIs(t, err, ErrUnknownProduct)
	})

	t.Run("MergedQuantityExceedsStock", func(t *testing.T) {
		in := validInput(payment.MethodCOD)
		in.Items = append(in.Items, ItemInput{ProductID: "p2", Quantity: 1})

		repo := new(MockRepository)
		repo.On("LookupProducts", ctx, mock.Anything).Return(catalog, nil)

		_, err := NewService(repo, testQR, nil, nil, nil, nil).Create(ctx, in)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RaceLostInTransaction", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LookupProducts", ctx, mock.Anything).Return(catalog, nil)
		repo.On("Create", ctx, mock.Anything, true).Return(nil, ErrInsufficientStock)

		_, err := NewService(repo, testQR, nil, nil, nil, nil).Create(ctx, validInput(payment.MethodCOD))
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func TestMergeItems(t *testing.T) {
	got, err := mergeItems([]ItemInput{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
		{ProductID: " b ", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []ItemInput{{ProductID: "b", Quantity: 4}, {ProductID: "a", Quantity: 2}}, got)
}

func TestEarnedPoints(t *testing.T) {
	assert.Equal(t, int64(0), EarnedPoints(decimal.NewFromInt(9999)))
	assert.Equal(t, int64(1), EarnedPoints(decimal.NewFromInt(10000)))
	assert.Equal(t, int64(2010), EarnedPoints(decimal.NewFromInt(20109999)))
	assert.Equal(t, int64(0), EarnedPoints(decimal.NewFromInt(-5)))
}

func TestService_List(t *testing.T) {
	t.Run("CustomerSeesOwnOrders", func(t *testing.T) {
		ctx := customerCtx(7)
		repo := new(MockRepository)
		repo.On("List", ctx, mock.MatchedBy(func(o ListOptions) bool {
			return o.UserID != nil && *o.UserID == 7
		})).Return([]*Order{}, int64(0), nil)

		other := uint(99)
		_, _, err := NewService(repo, testQR, nil, nil, nil, nil).List(ctx, ListOptions{UserID: &other})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("AdminSeesAll", func(t *testing.T) {
		ctx := adminCtx()
		repo := new(MockRepository)
		repo.On("List", ctx, ListOptions{}).Return([]*Order{}, int64(0), nil)

		_, _, err := NewService(repo, testQR, nil, nil, nil, nil).List(ctx, ListOptions{})
		require.NoError(t, err)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		status := Status("lost")
		_, _, err := NewService(new(MockRepository), testQR, nil, nil, nil, nil).List(adminCtx(), ListOptions{Status: &status})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("Anonymous", func(t *testing.T) {
		_, _, err := NewService(new(MockRepository), testQR, nil, nil, nil, nil).List(context.Background(), ListOptions{})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestService_Get(t *testing.T) {
	owner := uint(7)

	t.Run("Owner", func(t *testing.T) {
		ctx := customerCtx(7)
		repo := new(MockRepository)
		repo.On("GetByID", ctx, uint(42)).Return(&Order{ID: 42, UserID: &owner}, nil)

		o, err := NewService(repo, testQR, nil, nil, nil, nil).Get(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, uint(42), o.ID)
	})

	t.Run("OtherCustomer", func(t *testing.T) {
		ctx := customerCtx(8)
		repo := new(MockRepository)
		repo.On("GetByID", ctx, uint(42)).Return(&Order{ID: 42, UserID: &owner}, nil)

		_, err := NewService(repo, testQR, nil, nil, nil, nil).Get(ctx, 42)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("GuestOrderVisibleToAdminOnly", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", mock.Anything, uint(43)).Return(&Order{ID: 43}, nil)
		svc := NewService(repo, testQR, nil, nil, nil, nil)

		_, err := svc.Get(customerCtx(7), 43)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = svc.Get(adminCtx(), 43)
		assert.NoError(t, err)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := adminCtx()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("UpdateStatus", ctx, uint(42), StatusShipping).Return(nil)
		repo.On("GetByID", ctx, uint(42)).Return(&Order{ID: 42, Status: StatusShipping}, nil)

		o, err := NewService(repo, testQR, nil, nil, nil, nil).UpdateStatus(ctx, 42, StatusShipping)
		require.NoError(t, err)
		assert.Equal(t, StatusShipping, o.Status)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := NewService(new(MockRepository), testQR, nil, nil, nil, nil).UpdateStatus(ctx, 42, "teleported")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestService_MarkPaid(t *testing.T) {
	ctx := adminCtx()
	uid := uint(7)

	t.Run("FirstPayment", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		stats := metrics.NewRegistry()

		o := &Order{ID: 42, Code: "PC1", UserID: &uid, EarnedPoints: 150, PaymentStatus: true}
		repo.On("MarkPaid", ctx, uint(42)).Return(&PaymentUpdate{Order: o, Paid: true, Fulfilled: true}, nil)
		pub.On("Publish", ctx, events.TypeOrderPaid, "PC1", mock.Anything).Return(nil).Once()
		pub.On("Publish", ctx, events.TypeOrderFulfilled, "PC1", mock.Anything).Return(nil).Once()

		got, err := NewService(repo, testQR, nil, pub, stats, nil).MarkPaid(ctx, 42)
		require.NoError(t, err)
		assert.True(t, got.PaymentStatus)
		assert.Equal(t, uint64(1), stats.OrdersFulfilled.Load())
		assert.Equal(t, uint64(150), stats.PointsAwarded.Load())
		pub.AssertExpectations(t)
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		stats := metrics.NewRegistry()

		repo.On("MarkPaid", ctx, uint(42)).Return(&PaymentUpdate{Order: &Order{ID: 42, PaymentStatus: true}}, nil)

		_, err := NewService(repo, testQR, nil, pub, stats, nil).MarkPaid(ctx, 42)
		require.NoError(t, err)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Zero(t, stats.OrdersFulfilled.Load())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("MarkPaid", ctx, uint(42)).Return(nil, ErrOrderNotFound)

		_, err := NewService(repo, testQR, nil, nil, nil, nil).MarkPaid(ctx, 42)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_PaymentQR(t *testing.T) {
	ctx := adminCtx()

	t.Run("BankTransfer", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, uint(42)).Return(&Order{
			ID: 42, Code: "PC1", PaymentMethod: payment.MethodBankTransfer, Total: decimal.NewFromInt(500000),
		}, nil)

		info, err := NewService(repo, testQR, nil, nil, nil, nil).PaymentQR(ctx, 42)
		require.NoError(t, err)
		assert.Contains(t, info.QRURL, "amount=500000")
		assert.Equal(t, "PC1", info.Memo)
	})

	t.Run("COD", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, uint(42)).Return(&Order{ID: 42, PaymentMethod: payment.MethodCOD}, nil)

		_, err := NewService(repo, testQR, nil, nil, nil, nil).PaymentQR(ctx, 42)
		assert.ErrorIs(t, err, ErrNotBankTransfer)
	})

	t.Run("NotConfigured", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, uint(42)).Return(&Order{ID: 42, PaymentMethod: payment.MethodBankTransfer}, nil)

		_, err := NewService(repo, payment.QRBuilder{}, nil, nil, nil, nil).PaymentQR(ctx, 42)
		assert.Equal(t, apperror.Internal, apperror.CodeOf(err))
		assert.ErrorIs(t, err, payment.ErrQRNotConfigured)
	})
}
