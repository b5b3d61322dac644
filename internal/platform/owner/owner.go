// Package owner carries the id of the user a request acts for.
//
// Every row in the store is scoped to an owner. How the owner is established
// (a fixed single user, a bearer token, ...) is decided by the transport layer;
// services only ever see the id.
package owner

import (
	"context"

	"github.com/budgetly/backend/pkg/logger"
)

// WithID returns a context carrying the owner id
func WithID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, logger.OwnerIDKey, id)
}

// FromContext extracts the owner id set by WithID
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(logger.OwnerIDKey).(int64)
	return id, ok && id > 0
}
