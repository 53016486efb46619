package auth

import (
	"context"
	"time"

	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/iam/user"
	"github.com/Abraxas-365/authgate/pkg/kernel"
)

// TokenService defines the contract for access token management. Issue and
// decode are pure computations, safe for unlimited parallelism.
type TokenService interface {
	// IssueAccessToken mints a signed token for the subject. A non-positive
	// ttl selects the configured default.
	IssueAccessToken(userID kernel.UserID, scopeSet scopes.Set, ttl time.Duration) (string, error)

	// Decode validates the signature, algorithm, and expiry, then returns
	// the claim set.
	Decode(token string) (*TokenClaims, error)
}

// PasswordService defines the contract for one-way secret hashing.
type PasswordService interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// ProviderProfile is the normalized identity returned by the external
// provider's profile endpoint.
type ProviderProfile struct {
	Email         string
	Name          string
	EmailVerified bool
}

// IdentityProvider is the fixed three-call contract with the external OAuth
// provider: build authorize URL, exchange code, fetch profile.
type IdentityProvider interface {
	IsConfigured() bool
	AuthorizeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (string, error)
	Profile(ctx context.Context, accessToken string) (*ProviderProfile, error)
}

// FederatedDirectory resolves a provider identity to a local user, creating
// a federation-flagged account on first login. Implemented by the user
// lifecycle service; injected as an interface to keep this package free of a
// service dependency.
type FederatedDirectory interface {
	ResolveFederated(ctx context.Context, email, name string) (*user.User, error)
}
