package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Abraxas-365/authgate/pkg/config"
	"github.com/Abraxas-365/authgate/pkg/logx"
)

// Login status values carried back to the client application.
const (
	LoginStatusSuccess      = "success"
	LoginStatusAccessDenied = "access_denied"
)

// OAuthService orchestrates the federation flow: authorize redirect, code
// exchange, profile fetch, local identity resolution, and the final client
// redirect. It is stateless across the two HTTP round trips — all
// correlation travels in the state parameter.
type OAuthService struct {
	provider  IdentityProvider
	tokens    TokenService
	directory FederatedDirectory

	// frontendURL is the default redirect target; allowedOrigins is the
	// prefix allow-list for client-supplied targets.
	frontendURL    string
	allowedOrigins []string
}

// NewOAuthService creates the federation flow service.
func NewOAuthService(provider IdentityProvider, tokens TokenService, directory FederatedDirectory, cfg config.OAuthConfig) *OAuthService {
	return &OAuthService{
		provider:       provider,
		tokens:         tokens,
		directory:      directory,
		frontendURL:    cfg.FrontendURL,
		allowedOrigins: cfg.AllowedRedirectOrigins,
	}
}

// BeginLogin builds the authorize-redirect URL for the external provider,
// packing the client's redirect intent into the opaque state parameter.
func (s *OAuthService) BeginLogin(redirectURI, requestedScope string) (string, error) {
	if !s.provider.IsConfigured() {
		return "", ErrProviderNotConfigured()
	}
	state := EncodeState(redirectURI, requestedScope)
	return s.provider.AuthorizeURL(state)
}

// CompleteLogin handles the provider callback and returns the URL the
// end-user's browser must be redirected to. A scope-gated denial is a
// successful redirect carrying login_status=access_denied, not an error; a
// redirect target outside the allow-list is always a hard failure.
func (s *OAuthService) CompleteLogin(ctx context.Context, code, state string) (string, error) {
	accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	profile, err := s.provider.Profile(ctx, accessToken)
	if err != nil {
		return "", err
	}
	if profile.Email == "" {
		return "", ErrProfileIncomplete()
	}

	usr, err := s.directory.ResolveFederated(ctx, profile.Email, profile.Name)
	if err != nil {
		return "", err
	}

	// A malformed state never fails the flow; the hints just fall away.
	env, parsed := DecodeState(state)
	if state != "" && !parsed {
		logx.WithField("state", state).Warn("could not parse oauth state parameter, using defaults")
	}

	target := s.frontendURL
	if env.RedirectURI != "" {
		target = env.RedirectURI
	}

	if err := s.validateRedirectTarget(target); err != nil {
		return "", err
	}

	if env.RequestedScope != "" && !usr.Scopes.Contains(env.RequestedScope) {
		// Do not mint a token; redirect with the denial and the reason.
		return deniedRedirect(target, env.RequestedScope)
	}

	token, err := s.tokens.IssueAccessToken(usr.ID, usr.Scopes, 0)
	if err != nil {
		return "", err
	}

	// Token goes in the URL fragment so it never reaches the client
	// server's request logs.
	return fmt.Sprintf("%s#access_token=%s&token_type=bearer&login_status=%s",
		target, token, LoginStatusSuccess), nil
}

// validateRedirectTarget enforces the open-redirect defense: the target must
// prefix-match an allow-listed origin, or — when the allow-list is empty —
// be exactly the default frontend URL.
func (s *OAuthService) validateRedirectTarget(target string) error {
	if len(s.allowedOrigins) > 0 {
		for _, origin := range s.allowedOrigins {
			if strings.HasPrefix(target, origin) {
				return nil
			}
		}
		return ErrInvalidRedirect()
	}

	if target != s.frontendURL {
		return ErrInvalidRedirect()
	}
	return nil
}

func deniedRedirect(target, requiredScope string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", ErrInvalidRedirect().WithCause(err)
	}
	q := u.Query()
	q.Set("login_status", LoginStatusAccessDenied)
	q.Set("reason", "scope_missing")
	q.Set("required_scope", requiredScope)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
