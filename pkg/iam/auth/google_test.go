package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Abraxas-365/authgate/pkg/config"
	"github.com/Abraxas-365/authgate/pkg/errx"
	"github.com/Abraxas-365/authgate/pkg/iam/auth"
)

func testGoogleConfig() config.GoogleConfig {
	return config.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8000/api/v1/auth/google/callback",
	}
}

func TestGoogleProvider_IsConfigured(t *testing.T) {
	if auth.NewGoogleProvider(config.GoogleConfig{}).IsConfigured() {
		t.Fatal("empty config must not count as configured")
	}
	if !auth.NewGoogleProvider(testGoogleConfig()).IsConfigured() {
		t.Fatal("full config must count as configured")
	}
}

func TestGoogleProvider_AuthorizeURL(t *testing.T) {
	provider := auth.NewGoogleProvider(testGoogleConfig())

	raw, err := provider.AuthorizeURL("opaque-state")
	if err != nil {
		t.Fatalf("authorize url: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing authorize url: %v", err)
	}
	q := u.Query()
	if q.Get("response_type") != "code" || q.Get("client_id") != "client-id" {
		t.Fatalf("unexpected authorize params: %v", q)
	}
	if q.Get("state") != "opaque-state" {
		t.Fatalf("state not carried: %v", q)
	}
}

func TestGoogleProvider_ExchangeAndProfile(t *testing.T) {
	var gotCode, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			gotCode = r.PostFormValue("code")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"email":"alice@example.com","name":"Alice","verified_email":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	provider := auth.NewGoogleProvider(testGoogleConfig()).
		WithEndpoints(srv.URL+"/auth", srv.URL+"/token", srv.URL+"/userinfo")

	token, err := provider.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token != "provider-token" {
		t.Fatalf("unexpected token: %q", token)
	}
	if gotCode != "auth-code" {
		t.Fatalf("code not forwarded: %q", gotCode)
	}

	profile, err := provider.Profile(context.Background(), token)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Email != "alice@example.com" || !profile.EmailVerified {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if gotAuth != "Bearer provider-token" {
		t.Fatalf("token not sent as bearer: %q", gotAuth)
	}
}

func TestGoogleProvider_ExchangeRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	provider := auth.NewGoogleProvider(testGoogleConfig()).
		WithEndpoints(srv.URL, srv.URL, srv.URL)

	_, err := provider.Exchange(context.Background(), "stale-code")
	if !errx.IsCode(err, auth.CodeProviderExchangeFailed) {
		t.Fatalf("expected PROVIDER_EXCHANGE_FAILED, got %v", err)
	}
}

func TestGoogleProvider_ProfileRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider := auth.NewGoogleProvider(testGoogleConfig()).
		WithEndpoints(srv.URL, srv.URL, srv.URL)

	_, err := provider.Profile(context.Background(), "bad-token")
	if !errx.IsCode(err, auth.CodeProviderProfileFailed) {
		t.Fatalf("expected PROVIDER_PROFILE_FAILED, got %v", err)
	}
}
