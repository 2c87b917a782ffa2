package order

import (
	"context"
	"testing"
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/checkout"
	"dropmart-be/internal/discount"
	"dropmart-be/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) CreateFromSessionTx(ctx context.Context, o *Order, sess *checkout.Session) error {
	args := m.Called(ctx, o, sess)
	return args.Error(0)
}

// MockSessionRepository is a mock for the checkout session store
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, s *checkout.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSession(ctx context.Context, sessionID string) (*checkout.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Session), args.Error(1)
}

func (m *MockSessionRepository) MarkExpired(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionRepository) MarkCancelled(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockDiscountRepository is a mock for the discount store
type MockDiscountRepository struct {
	mock.Mock
}

func (m *MockDiscountRepository) GetByCode(ctx context.Context, code string) (*discount.Discount, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discount.Discount), args.Error(1)
}

// MockSplitter records fulfillment split calls
type MockSplitter struct {
	mock.Mock
}

func (m *MockSplitter) SplitOrder(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

type serviceFixture struct {
	repo      *MockRepository
	sessions  *MockSessionRepository
	discounts *MockDiscountRepository
	splitter  *MockSplitter
	bus       *events.Bus
	svc       *service
	now       time.Time
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		repo:      new(MockRepository),
		sessions:  new(MockSessionRepository),
		discounts: new(MockDiscountRepository),
		splitter:  new(MockSplitter),
		bus:       events.NewBus(),
		now:       time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, f.sessions, f.discounts, f.splitter, f.bus).(*service)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func pendingSession(id string, now time.Time) *checkout.Session {
	userID := int64(7)
	return &checkout.Session{
		ID:     id,
		CartID: uuid.New(),
		UserID: &userID,
		Status: checkout.StatusPending,
		Items: []checkout.SessionItem{
			{
				ID:          uuid.New(),
				SessionID:   id,
				VariantID:   "var-1",
				Name:        "Shirt / M",
				SupplierID:  "sup-1",
				SupplierSKU: "SUP-SKU-1",
				Quantity:    2,
				UnitPrice:   2500,
				UnitCost:    1100,
				Subtotal:    5000,
			},
		},
		Subtotal:         5000,
		Shipping:         499,
		Tax:              0,
		Deduction:        0,
		Total:            5499,
		Currency:         "USD",
		ShippingMethodID: "standard",
		ExpiresAt:        now.Add(30 * time.Minute),
	}
}

func TestConfirmFromSession_CreatesOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := pendingSession("cs_1", f.now)

	f.sessions.On("GetSession", ctx, "cs_1").Return(sess, nil)
	f.repo.On("GetBySessionID", ctx, "cs_1").Return(nil, nil)
	f.repo.On("CreateFromSessionTx", ctx, mock.Anything, sess).Return(nil)
	f.splitter.On("SplitOrder", ctx, mock.Anything).Return(nil)

	o, err := f.svc.ConfirmFromSession(ctx, "cs_1")
	require.NoError(t, err)
	require.NotNil(t, o)

	assert.Equal(t, StatusProcessing, o.Status)
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, ShippingStatusUnshipped, o.ShippingStatus)
	assert.Equal(t, "cs_1", o.CheckoutSessionID)
	assert.EqualValues(t, 5499, o.Total)
	assert.NotEmpty(t, o.OrderNumber)

	// Items frozen from the session snapshot, supplier fields included.
	require.Len(t, o.Items, 1)
	assert.Equal(t, "sup-1", o.Items[0].SupplierID)
	assert.EqualValues(t, 2500, o.Items[0].UnitPrice)
	assert.EqualValues(t, 1100, o.Items[0].UnitCost)

	f.splitter.AssertCalled(t, "SplitOrder", ctx, mock.Anything)
	f.repo.AssertExpectations(t)
}

func TestConfirmFromSession_DuplicateReturnsExisting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := pendingSession("cs_1", f.now)
	sess.Status = checkout.StatusCompleted

	existing := &Order{ID: uuid.New(), OrderNumber: "ORD-X", CheckoutSessionID: "cs_1"}

	f.sessions.On("GetSession", ctx, "cs_1").Return(sess, nil)
	f.repo.On("GetBySessionID", ctx, "cs_1").Return(existing, nil)

	o, err := f.svc.ConfirmFromSession(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, o.ID)

	// No second order, no second split.
	f.repo.AssertNotCalled(t, "CreateFromSessionTx", mock.Anything, mock.Anything, mock.Anything)
	f.splitter.AssertNotCalled(t, "SplitOrder", mock.Anything, mock.Anything)
}

func TestConfirmFromSession_CommitRaceResolvesToWinner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := pendingSession("cs_1", f.now)

	winner := &Order{ID: uuid.New(), OrderNumber: "ORD-W", CheckoutSessionID: "cs_1"}

	f.sessions.On("GetSession", ctx, "cs_1").Return(sess, nil)
	f.repo.On("GetBySessionID", ctx, "cs_1").Return(nil, nil).Once()
	f.repo.On("CreateFromSessionTx", ctx, mock.Anything, sess).Return(ErrDuplicateConfirmation)
	f.repo.On("GetBySessionID", ctx, "cs_1").Return(winner, nil).Once()

	o, err := f.svc.ConfirmFromSession(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, o.ID)
	f.splitter.AssertNotCalled(t, "SplitOrder", mock.Anything, mock.Anything)
}

func TestConfirmFromSession_ExpiredSessionRejectedWithoutMutation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := pendingSession("cs_1", f.now)
	sess.ExpiresAt = f.now.Add(-time.Minute)

	f.sessions.On("GetSession", ctx, "cs_1").Return(sess, nil)
	f.repo.On("GetBySessionID", ctx, "cs_1").Return(nil, nil)
	f.sessions.On("MarkExpired", ctx, "cs_1").Return(nil)

	_, err := f.svc.ConfirmFromSession(ctx, "cs_1")
	assert.True(t, apperr.IsKind(err, apperr.KindExpired))

	f.repo.AssertNotCalled(t, "CreateFromSessionTx", mock.Anything, mock.Anything, mock.Anything)
	f.sessions.AssertCalled(t, "MarkExpired", ctx, "cs_1")
}

func TestConfirmFromSession_CancelledSessionConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := pendingSession("cs_1", f.now)
	sess.Status = checkout.StatusCancelled

	f.sessions.On("GetSession", ctx, "cs_1").Return(sess, nil)
	f.repo.On("GetBySessionID", ctx, "cs_1").Return(nil, nil)

	_, err := f.svc.ConfirmFromSession(ctx, "cs_1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	f.repo.AssertNotCalled(t, "CreateFromSessionTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmFromSession_ExhaustedDiscountRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := pendingSession("cs_1", f.now)
	code := "SAVE10"
	sess.DiscountCode = &code

	limit := 100
	exhausted := &discount.Discount{
		Code:       code,
		Kind:       discount.KindPercentage,
		Value:      10,
		UsageLimit: &limit,
		UsageCount: 100,
		Active:     true,
	}

	f.sessions.On("GetSession", ctx, "cs_1").Return(sess, nil)
	f.repo.On("GetBySessionID", ctx, "cs_1").Return(nil, nil)
	f.discounts.On("GetByCode", ctx, code).Return(exhausted, nil)

	_, err := f.svc.ConfirmFromSession(ctx, "cs_1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	f.repo.AssertNotCalled(t, "CreateFromSessionTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmFromSession_SplitFailureDoesNotFailConfirmation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := pendingSession("cs_1", f.now)

	f.sessions.On("GetSession", ctx, "cs_1").Return(sess, nil)
	f.repo.On("GetBySessionID", ctx, "cs_1").Return(nil, nil)
	f.repo.On("CreateFromSessionTx", ctx, mock.Anything, sess).Return(nil)
	f.splitter.On("SplitOrder", ctx, mock.Anything).Return(assert.AnError)

	o, err := f.svc.ConfirmFromSession(ctx, "cs_1")
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestConfirmFromSession_UnknownSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.sessions.On("GetSession", ctx, "cs_missing").Return(nil, nil)

	_, err := f.svc.ConfirmFromSession(ctx, "cs_missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := uuid.New()

	f.repo.On("GetByID", ctx, id).Return(nil, nil)

	_, err := f.svc.GetByID(ctx, id)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 30, 45, 123_000_000, time.UTC)
	n := NewOrderNumber(now)

	assert.Regexp(t, `^ORD-20250314-103045-123-\d{4}$`, n)
}
