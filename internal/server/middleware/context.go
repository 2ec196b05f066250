package middleware

import (
	"context"

	"taskboard/backend/internal/auth"
)

type contextKey int

const (
	identityKey contextKey = iota
	credentialKey
)

// WithIdentity returns a context carrying the verified identity.
func WithIdentity(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, identityKey, claims)
}

// GetIdentity returns the verified identity, or nil for anonymous requests.
func GetIdentity(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(identityKey).(*auth.Claims)
	return claims
}

// WithCredential returns a context carrying the raw request credential.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, credentialKey, credential)
}

// GetCredential returns the raw credential the request presented, if any.
func GetCredential(ctx context.Context) string {
	credential, _ := ctx.Value(credentialKey).(string)
	return credential
}
