// Package appctx provides request-scoped values extraction.
package appctx

import (
	"context"
)

// UserContext contains the authenticated caller's identity.
// CustomerID is the stable identity string the settlement and backorder
// operations key their records by.
type UserContext struct {
	CustomerID string
	Email      string
	IsAdmin    bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetCustomerID returns the customer identity from context or empty string.
func GetCustomerID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.CustomerID
	}
	return ""
}

// IsAdmin checks whether the caller has the admin flag.
func IsAdmin(ctx context.Context) bool {
	if u := GetUser(ctx); u != nil {
		return u.IsAdmin
	}
	return false
}
