package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := NotFound("cart.not_found", "cart not found")
	assert.Equal(t, KindNotFound, KindOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, KindNotFound, KindOf(wrapped))

	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestInsufficientStock_CarriesQuantities(t *testing.T) {
	err := InsufficientStock("cart.insufficient_stock", 5, 2)

	e := From(err)
	require.NotNil(t, e)
	assert.Equal(t, KindInsufficientStock, e.Kind)
	assert.Equal(t, 5, e.Requested)
	assert.Equal(t, 2, e.Available)
	assert.Contains(t, e.Message, "requested 5")
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindInternal, "db.query_failed", "query failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db.query_failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(Expired("checkout.session_expired", "session expired"), KindExpired))
	assert.False(t, IsKind(BadRequest("pricing.unknown_method", "unknown method"), KindExpired))
}
