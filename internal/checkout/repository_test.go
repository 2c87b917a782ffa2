package checkout

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"dropmart-be/internal/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *Session {
	userID := int64(7)
	return &Session{
		ID:     "cs_1",
		CartID: uuid.New(),
		UserID: &userID,
		Status: StatusPending,
		Items: []SessionItem{
			{
				ID:          uuid.New(),
				SessionID:   "cs_1",
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
		Total:            5499,
		Currency:         "USD",
		ShippingMethodID: "standard",
		ShippingAddress:  Address{Name: "A", Line1: "1 Main St", City: "Springfield", State: "CA", PostalCode: "90001", Country: "US"},
		BillingAddress:   Address{Name: "A", Line1: "1 Main St", City: "Springfield", State: "CA", PostalCode: "90001", Country: "US"},
		RedirectURL:      "https://pay.example/cs_1",
		ExpiresAt:        time.Now().Add(30 * time.Minute),
	}
}

func TestCreateSession_PersistsSessionAndItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	sess := sampleSession()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO checkout_sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO checkout_session_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.CreateSession(context.Background(), sess)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSession_ItemFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	sess := sampleSession()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO checkout_sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO checkout_session_items").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = repo.CreateSession(context.Background(), sess)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSession_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM checkout_sessions").
		WithArgs("cs_missing").
		WillReturnError(sql.ErrNoRows)

	sess, err := repo.GetSession(context.Background(), "cs_missing")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestGetSession_LoadsItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	cartID := uuid.New()
	itemID := uuid.New()
	userID := int64(7)
	now := time.Now()

	addr := []byte(`{"name":"A","line1":"1 Main St","city":"Springfield","state":"CA","postal_code":"90001","country":"US"}`)

	mock.ExpectQuery("SELECT (.+) FROM checkout_sessions").
		WithArgs("cs_1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "cart_id", "user_id", "session_token", "status",
			"subtotal", "shipping", "tax", "deduction", "total", "currency",
			"shipping_method_id", "discount_code",
			"shipping_address", "billing_address",
			"redirect_url", "expires_at", "created_at",
		}).AddRow(
			"cs_1", cartID, userID, nil, "PENDING",
			5000, 499, 0, 0, 5499, "USD",
			"standard", nil,
			addr, addr,
			"https://pay.example/cs_1", now.Add(30*time.Minute), now,
		))

	mock.ExpectQuery("SELECT (.+) FROM checkout_session_items").
		WithArgs("cs_1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "variant_id", "name",
			"supplier_id", "supplier_sku",
			"quantity", "unit_price", "unit_cost", "subtotal",
		}).AddRow(
			itemID, "cs_1", "var-1", "Shirt / M",
			"sup-1", "SUP-SKU-1",
			2, 2500, 1100, 5000,
		))

	sess, err := repo.GetSession(context.Background(), "cs_1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, StatusPending, sess.Status)
	assert.Equal(t, "US", sess.ShippingAddress.Country)
	require.Len(t, sess.Items, 1)
	assert.Equal(t, "SUP-SKU-1", sess.Items[0].SupplierSKU)
}

func TestMarkCancelled_NotPendingConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec("UPDATE checkout_sessions").
		WithArgs("cs_1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.MarkCancelled(context.Background(), "cs_1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestMarkCompletedTx_GuardsPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE checkout_sessions").
		WithArgs("cs_1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = MarkCompletedTx(context.Background(), tx, "cs_1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}
