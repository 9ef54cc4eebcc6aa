// Package modelclaims provides types for token authorization.

package modelclaims

import (
	"context"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/golang-jwt/jwt"
)

type Claims struct {
	UserID string           `json:"userID"`
	Role   modelledger.Role `json:"role"`
	jwt.StandardClaims
}

// Identity is the authenticated caller of an operation.
type Identity struct {
	UserID  string
	IsAdmin bool
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
