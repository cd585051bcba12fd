// Package idempotency carries a request's idempotency key through context
// so that events published while handling the request share it.
package idempotency

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

// GetKey returns the key stored in ctx, or a fresh one when the caller did
// not supply any.
func GetKey(ctx context.Context) string {
	key, ok := ctx.Value(ctxKey{}).(string)
	if !ok || key == "" {
		return uuid.NewString()
	}

	return key
}
