package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		assert.Equal(t, "", RequestIDFromContext(context.Background()))
	})
}

func TestCorrelationIDContext(t *testing.T) {
	t.Run("stores and retrieves correlation ID", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "corr-1")
		assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
	})

	t.Run("is independent of request ID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithCorrelationID(ctx, "corr-1")

		assert.Equal(t, "req-1", RequestIDFromContext(ctx))
		assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	})
}

func TestContextOverwrite(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithRequestID(ctx, "req-2")

	assert.Equal(t, "req-2", RequestIDFromContext(ctx))
}
