// Package providers implements OAuth sign-in against external identity
// providers. Each provider exposes the same two-step capability: exchange
// an authorization code for tokens, then fetch a normalized profile.
package providers

import (
	"context"
	"errors"
)

// ErrProvider indicates a communication or parse failure with an identity
// provider. Provider-returned error payloads are wrapped around it with
// their detail so callers can log them while showing a generic message.
var ErrProvider = errors.New("provider communication failed")

// Provider is one external identity provider.
type Provider interface {
	Name() string

	// AuthCodeURL returns the provider's authorization URL for the given
	// anti-forgery state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a token set.
	Exchange(ctx context.Context, code string) (*TokenSet, error)

	// FetchProfile resolves the token set into a normalized profile.
	FetchProfile(ctx context.Context, tokens *TokenSet) (*Profile, error)
}

// TokenSet holds the transient tokens of one login request. It is never
// persisted.
type TokenSet struct {
	AccessToken string

	// IdentityToken is the provider's identity handle: a real OIDC ID
	// token for standards-based providers, or a substituted opaque
	// identifier for providers that do not issue one.
	IdentityToken string
}

// Profile is a normalized user profile from any provider.
type Profile struct {
	ID    string
	Name  string
	Email string
	Image string
}
