package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_Valid(t *testing.T) {
	assert.True(t, User(1).Valid())
	assert.True(t, Anonymous("tok").Valid())
	assert.False(t, Identity{}.Valid())

	uid := int64(1)
	tok := "tok"
	assert.False(t, Identity{UserID: &uid, SessionToken: &tok}.Valid())
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithContext(context.Background(), User(42))
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.NotNil(t, got.UserID)
	assert.EqualValues(t, 42, *got.UserID)
	assert.True(t, got.IsUser())
}
