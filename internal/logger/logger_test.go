package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL_InitializesLazily(t *testing.T) {
	log = nil
	require.NotNil(t, L())
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestIDFrom(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFrom(ctx))
}

func TestFromCtx(t *testing.T) {
	// Without a request id the global logger is returned as-is.
	assert.Equal(t, L(), FromCtx(context.Background()))

	// With a request id a child logger is returned.
	ctx := WithRequestID(context.Background(), "req-456")
	assert.NotNil(t, FromCtx(ctx))
}
