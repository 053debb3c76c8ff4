package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKey_String(t *testing.T) {
	key := contextKey("testKey")
	assert.Equal(t, "roster-console context key testKey", key.String())
}

func TestContextKeys_Usage(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, UserIDKey, "1")
	ctx = context.WithValue(ctx, UserEmailKey, "admin@example.com")
	ctx = context.WithValue(ctx, RequestIDKey, "req-456")
	ctx = context.WithValue(ctx, ComponentKey, "reconciler")
	ctx = context.WithValue(ctx, OperationKey, "enroll")

	assert.Equal(t, "1", ctx.Value(UserIDKey))
	assert.Equal(t, "admin@example.com", ctx.Value(UserEmailKey))
	assert.Equal(t, "req-456", ctx.Value(RequestIDKey))
	assert.Equal(t, "reconciler", ctx.Value(ComponentKey))
	assert.Equal(t, "enroll", ctx.Value(OperationKey))
}
