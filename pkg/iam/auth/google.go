package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Abraxas-365/authgate/pkg/config"
	"github.com/Abraxas-365/authgate/pkg/logx"
)

// Default Google OAuth endpoints. Overridable for tests.
const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"
)

// GoogleProvider implements IdentityProvider against Google's OAuth2
// endpoints. Both network calls are bounded by the configured timeout and
// are never retried; a failed attempt requires the user to restart the flow.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	redirectURI  string

	authURL     string
	tokenURL    string
	userInfoURL string

	httpClient *http.Client
}

// NewGoogleProvider creates a provider from the Google configuration block.
func NewGoogleProvider(cfg config.GoogleConfig) *GoogleProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &GoogleProvider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		authURL:      googleAuthURL,
		tokenURL:     googleTokenURL,
		userInfoURL:  googleUserInfoURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// WithEndpoints overrides the provider endpoints. Used by tests to point the
// provider at a stub server.
func (p *GoogleProvider) WithEndpoints(authURL, tokenURL, userInfoURL string) *GoogleProvider {
	p.authURL = authURL
	p.tokenURL = tokenURL
	p.userInfoURL = userInfoURL
	return p
}

// IsConfigured reports whether the required provider credentials are present.
func (p *GoogleProvider) IsConfigured() bool {
	return p.clientID != "" && p.clientSecret != "" && p.redirectURI != ""
}

// AuthorizeURL builds the authorize-redirect URL, attaching the opaque state
// when present.
func (p *GoogleProvider) AuthorizeURL(state string) (string, error) {
	if p.clientID == "" || p.redirectURI == "" {
		return "", ErrProviderNotConfigured()
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", p.clientID)
	params.Set("redirect_uri", p.redirectURI)
	params.Set("scope", "openid email profile")
	params.Set("access_type", "offline")
	params.Set("prompt", "select_account")
	if state != "" {
		params.Set("state", state)
	}

	return p.authURL + "?" + params.Encode(), nil
}

// Exchange trades an authorization code for a provider access token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	if !p.IsConfigured() {
		return "", ErrProviderNotConfigured()
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("redirect_uri", p.redirectURI)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", ErrProviderExchangeFailed().WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", ErrProviderExchangeFailed().WithCause(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Response body stays server-side; only the status reaches the error.
		logx.WithFields(logx.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("google token exchange rejected")
		return "", ErrProviderExchangeFailed().WithDetail("status", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", ErrProviderExchangeFailed().WithCause(err)
	}
	if tokenResp.AccessToken == "" {
		return "", ErrProviderExchangeFailed().WithDetail("reason", "no access token in response")
	}

	return tokenResp.AccessToken, nil
}

// Profile fetches the provider's profile for an access token.
func (p *GoogleProvider) Profile(ctx context.Context, accessToken string) (*ProviderProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, ErrProviderProfileFailed().WithCause(err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, ErrProviderProfileFailed().WithCause(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logx.WithFields(logx.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("google userinfo rejected")
		return nil, ErrProviderProfileFailed().WithDetail("status", resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		Name          string `json:"name"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, ErrProviderProfileFailed().WithCause(err)
	}

	return &ProviderProfile{
		Email:         info.Email,
		Name:          info.Name,
		EmailVerified: info.VerifiedEmail,
	}, nil
}
