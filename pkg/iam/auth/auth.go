package auth

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/authgate/pkg/errx"
	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/kernel"
)

// ============================================================================
// Token Types
// ============================================================================

// TokenClaims is the decoded claim set of an access token. The scope
// snapshot is advisory only: authorization decisions re-read the user's
// current scopes from the store.
type TokenClaims struct {
	UserID    kernel.UserID `json:"user_id"`
	Scopes    scopes.Set    `json:"scopes"`
	IssuedAt  time.Time     `json:"iat"`
	ExpiresAt time.Time     `json:"exp"`
}

// AuthContext is the authenticated identity injected into each request
// after the authorization middleware resolves it against the store. Scopes
// here are always the live stored scopes, never the token snapshot.
type AuthContext struct {
	UserID      kernel.UserID `json:"user_id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Scopes      scopes.Set    `json:"scopes"`
	IsFederated bool          `json:"is_federated"`
}

// HasScope reports whether the identity covers the given scope.
func (ac *AuthContext) HasScope(scope string) bool {
	return ac.Scopes.Contains(scope)
}

// IsAdmin reports whether the identity has administrative access.
func (ac *AuthContext) IsAdmin() bool {
	return ac.HasScope(scopes.Admin)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidToken          = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeInvalidClaims         = ErrRegistry.Register("INVALID_CLAIMS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid token claims")
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeInvalidCredentials    = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Incorrect email or password")

	CodeProviderNotConfigured  = ErrRegistry.Register("PROVIDER_NOT_CONFIGURED", errx.TypeExternal, http.StatusServiceUnavailable, "OAuth provider not configured")
	CodeProviderExchangeFailed = ErrRegistry.Register("PROVIDER_EXCHANGE_FAILED", errx.TypeExternal, http.StatusBadGateway, "Code exchange with identity provider failed")
	CodeProviderProfileFailed  = ErrRegistry.Register("PROVIDER_PROFILE_FAILED", errx.TypeExternal, http.StatusBadGateway, "Profile fetch from identity provider failed")
	CodeProfileIncomplete      = ErrRegistry.Register("PROFILE_INCOMPLETE", errx.TypeValidation, http.StatusBadRequest, "Email not provided by identity provider")
	CodeInvalidRedirect        = ErrRegistry.Register("INVALID_REDIRECT", errx.TypeValidation, http.StatusBadRequest, "Invalid redirect_uri. Origin not in allowlist")
	CodeFederationFailed       = ErrRegistry.Register("FEDERATION_FAILED", errx.TypeExternal, http.StatusBadGateway, "An error occurred during sign-in with the identity provider")
)

// Helper functions
func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrInvalidClaims() *errx.Error {
	return ErrRegistry.New(CodeInvalidClaims)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrProviderNotConfigured() *errx.Error {
	return ErrRegistry.New(CodeProviderNotConfigured)
}

func ErrProviderExchangeFailed() *errx.Error {
	return ErrRegistry.New(CodeProviderExchangeFailed)
}

func ErrProviderProfileFailed() *errx.Error {
	return ErrRegistry.New(CodeProviderProfileFailed)
}

func ErrProfileIncomplete() *errx.Error {
	return ErrRegistry.New(CodeProfileIncomplete)
}

func ErrInvalidRedirect() *errx.Error {
	return ErrRegistry.New(CodeInvalidRedirect)
}

func ErrFederationFailed() *errx.Error {
	return ErrRegistry.New(CodeFederationFailed)
}
