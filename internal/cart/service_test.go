package cart

import (
	"context"
	"testing"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/catalog"
	"dropmart-be/internal/events"
	"dropmart-be/internal/identity"
	"dropmart-be/internal/inventory"
	"dropmart-be/internal/pricing"
	"dropmart-be/internal/tax"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetCartByIdentity(ctx context.Context, id identity.Identity) (*Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *MockRepository) CreateCart(ctx context.Context, id identity.Identity) (*Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *MockRepository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *MockRepository) GetItems(ctx context.Context, cartID uuid.UUID) ([]Item, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Item), args.Error(1)
}

func (m *MockRepository) GetItem(ctx context.Context, cartID uuid.UUID, variantID string) (*Item, error) {
	args := m.Called(ctx, cartID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockRepository) CreateItem(ctx context.Context, cartID uuid.UUID, variantID string, quantity int) (*Item, error) {
	args := m.Called(ctx, cartID, variantID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockRepository) UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, variantID string, quantity int) error {
	args := m.Called(ctx, cartID, variantID, quantity)
	return args.Error(0)
}

func (m *MockRepository) RemoveItem(ctx context.Context, cartID uuid.UUID, variantID string) error {
	args := m.Called(ctx, cartID, variantID)
	return args.Error(0)
}

func (m *MockRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

// MockCatalogRepository is a mock for the catalog read side
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) GetVariantByID(ctx context.Context, opts catalog.GetVariantOptions) (*catalog.Variant, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

// MockStockRepository is a mock for the inventory ledger read side
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) GetRecord(ctx context.Context, variantID string) (*inventory.Record, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Record), args.Error(1)
}

func (m *MockStockRepository) GetAvailable(ctx context.Context, variantID string) (int, error) {
	args := m.Called(ctx, variantID)
	return args.Int(0), args.Error(1)
}

type serviceFixture struct {
	repo    *MockRepository
	catalog *MockCatalogRepository
	stock   *MockStockRepository
	svc     Service
}

func newFixture() *serviceFixture {
	repo := new(MockRepository)
	catalogRepo := new(MockCatalogRepository)
	stockRepo := new(MockStockRepository)

	engine := pricing.NewEngine(tax.NewFlatTable(0), pricing.DefaultShippingMethods())

	svc := NewService(
		repo, catalogRepo, stockRepo, engine, events.NewBus(),
		"standard", pricing.Destination{Country: "US"},
	)

	return &serviceFixture{repo: repo, catalog: catalogRepo, stock: stockRepo, svc: svc}
}

func activeVariant(id string) *catalog.Variant {
	return &catalog.Variant{
		ID:            id,
		ProductID:     "prod-1",
		Name:          "M",
		Price:         2500,
		SupplierID:    "sup-1",
		ProductName:   "Shirt",
		ProductActive: true,
	}
}

func TestAddItem_CreatesNewLine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ident := identity.User(1)
	c := &Cart{ID: uuid.New()}

	f.catalog.On("GetVariantByID", ctx, catalog.GetVariantOptions{VariantID: "var-1", OnlyActive: true}).
		Return(activeVariant("var-1"), nil)
	f.repo.On("GetCartByIdentity", ctx, ident).Return(c, nil)
	f.repo.On("GetItem", ctx, c.ID, "var-1").Return(nil, nil)
	f.stock.On("GetAvailable", ctx, "var-1").Return(10, nil)
	f.repo.On("CreateItem", ctx, c.ID, "var-1", 2).
		Return(&Item{CartID: c.ID, VariantID: "var-1", Quantity: 2}, nil)
	f.repo.On("GetItems", ctx, c.ID).
		Return([]Item{{VariantID: "var-1", Quantity: 2, UnitPrice: 2500}}, nil)

	sum, err := f.svc.AddItem(ctx, ident, "var-1", 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, sum.Subtotal)
	assert.Len(t, sum.Items, 1)
	f.repo.AssertExpectations(t)
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ident := identity.User(1)
	c := &Cart{ID: uuid.New()}

	f.catalog.On("GetVariantByID", ctx, mock.Anything).Return(activeVariant("var-1"), nil)
	f.repo.On("GetCartByIdentity", ctx, ident).Return(c, nil)
	f.repo.On("GetItem", ctx, c.ID, "var-1").
		Return(&Item{CartID: c.ID, VariantID: "var-1", Quantity: 2}, nil)
	f.stock.On("GetAvailable", ctx, "var-1").Return(10, nil)
	f.repo.On("UpdateItemQuantity", ctx, c.ID, "var-1", 5).Return(nil)
	f.repo.On("GetItems", ctx, c.ID).
		Return([]Item{{VariantID: "var-1", Quantity: 5, UnitPrice: 2500}}, nil)

	sum, err := f.svc.AddItem(ctx, ident, "var-1", 3)
	require.NoError(t, err)
	// Never two lines for the same variant: the existing one was updated.
	assert.Len(t, sum.Items, 1)
	f.repo.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddItem_InsufficientStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ident := identity.User(1)
	c := &Cart{ID: uuid.New()}

	f.catalog.On("GetVariantByID", ctx, mock.Anything).Return(activeVariant("var-1"), nil)
	f.repo.On("GetCartByIdentity", ctx, ident).Return(c, nil)
	f.repo.On("GetItem", ctx, c.ID, "var-1").
		Return(&Item{CartID: c.ID, VariantID: "var-1", Quantity: 3}, nil)
	f.stock.On("GetAvailable", ctx, "var-1").Return(4, nil)

	_, err := f.svc.AddItem(ctx, ident, "var-1", 2)

	require.Error(t, err)
	e := apperr.From(err)
	require.NotNil(t, e)
	assert.Equal(t, apperr.KindInsufficientStock, e.Kind)
	assert.Equal(t, 5, e.Requested)
	assert.Equal(t, 4, e.Available)

	// Failure must not mutate state.
	f.repo.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "UpdateItemQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddItem_OutOfStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ident := identity.User(1)
	c := &Cart{ID: uuid.New()}

	f.catalog.On("GetVariantByID", ctx, mock.Anything).Return(activeVariant("var-1"), nil)
	f.repo.On("GetCartByIdentity", ctx, ident).Return(c, nil)
	f.repo.On("GetItem", ctx, c.ID, "var-1").Return(nil, nil)
	f.stock.On("GetAvailable", ctx, "var-1").Return(0, nil)

	_, err := f.svc.AddItem(ctx, ident, "var-1", 1)
	assert.True(t, apperr.IsKind(err, apperr.KindOutOfStock))
}

func TestAddItem_InactiveVariant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.catalog.On("GetVariantByID", ctx, mock.Anything).Return(nil, nil)

	_, err := f.svc.AddItem(ctx, identity.User(1), "var-gone", 1)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddItem(context.Background(), identity.User(1), "var-1", 0)
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
}

func TestUpdateQuantity_ZeroDeletesLine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ident := identity.Anonymous("tok-1")
	c := &Cart{ID: uuid.New()}

	f.repo.On("GetCartByIdentity", ctx, ident).Return(c, nil)
	f.repo.On("RemoveItem", ctx, c.ID, "var-1").Return(nil)
	f.repo.On("GetItems", ctx, c.ID).Return([]Item{}, nil)

	_, err := f.svc.UpdateQuantity(ctx, ident, "var-1", 0)
	require.NoError(t, err)
	f.repo.AssertCalled(t, "RemoveItem", ctx, c.ID, "var-1")
}

func TestUpdateQuantity_ExceedsAvailable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ident := identity.User(1)
	c := &Cart{ID: uuid.New()}

	f.repo.On("GetCartByIdentity", ctx, ident).Return(c, nil)
	f.repo.On("GetItem", ctx, c.ID, "var-1").
		Return(&Item{CartID: c.ID, VariantID: "var-1", Quantity: 1}, nil)
	f.stock.On("GetAvailable", ctx, "var-1").Return(3, nil)

	_, err := f.svc.UpdateQuantity(ctx, ident, "var-1", 5)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
	f.repo.AssertNotCalled(t, "UpdateItemQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClear(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ident := identity.User(1)
	c := &Cart{ID: uuid.New()}

	f.repo.On("GetCartByIdentity", ctx, ident).Return(c, nil)
	f.repo.On("Clear", ctx, c.ID).Return(nil)
	f.repo.On("GetItems", ctx, c.ID).Return([]Item{}, nil)

	sum, err := f.svc.Clear(ctx, ident)
	require.NoError(t, err)
	assert.Empty(t, sum.Items)
	assert.EqualValues(t, 0, sum.Subtotal)
}

func TestGetOrCreateCart_InvalidIdentity(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetOrCreateCart(context.Background(), identity.Identity{})
	assert.True(t, apperr.IsKind(err, apperr.KindBadRequest))
}

func TestMergeOnSignIn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	userCart := &Cart{ID: uuid.New()}
	guestCart := &Cart{ID: uuid.New()}

	f.repo.On("GetCartByIdentity", ctx, identity.User(7)).Return(userCart, nil)
	f.repo.On("GetCartByIdentity", ctx, identity.Anonymous("tok-9")).Return(guestCart, nil)
	f.repo.On("GetItems", ctx, guestCart.ID).Return([]Item{
		{VariantID: "var-1", Quantity: 2},
		{VariantID: "var-2", Quantity: 4},
	}, nil)

	// var-1 exists in the user cart already; merged quantity fits stock.
	f.repo.On("GetItem", ctx, userCart.ID, "var-1").
		Return(&Item{CartID: userCart.ID, VariantID: "var-1", Quantity: 1}, nil)
	f.stock.On("GetAvailable", ctx, "var-1").Return(10, nil)
	f.repo.On("UpdateItemQuantity", ctx, userCart.ID, "var-1", 3).Return(nil)

	// var-2 is new but only 3 are available: merge is capped.
	f.repo.On("GetItem", ctx, userCart.ID, "var-2").Return(nil, nil)
	f.stock.On("GetAvailable", ctx, "var-2").Return(3, nil)
	f.repo.On("CreateItem", ctx, userCart.ID, "var-2", 3).
		Return(&Item{CartID: userCart.ID, VariantID: "var-2", Quantity: 3}, nil)

	f.repo.On("DeleteCart", ctx, guestCart.ID).Return(nil)

	got, err := f.svc.MergeOnSignIn(ctx, "tok-9", 7)
	require.NoError(t, err)
	assert.Equal(t, userCart.ID, got.ID)
	f.repo.AssertExpectations(t)
}

func TestMergeOnSignIn_NoGuestCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	userCart := &Cart{ID: uuid.New()}
	f.repo.On("GetCartByIdentity", ctx, identity.User(7)).Return(userCart, nil)
	f.repo.On("GetCartByIdentity", ctx, identity.Anonymous("tok-9")).Return(nil, nil)

	got, err := f.svc.MergeOnSignIn(ctx, "tok-9", 7)
	require.NoError(t, err)
	assert.Equal(t, userCart.ID, got.ID)
	f.repo.AssertNotCalled(t, "DeleteCart", mock.Anything, mock.Anything)
}
