package auth_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/Abraxas-365/authgate/pkg/iam/auth"
)

func TestState_Roundtrip(t *testing.T) {
	raw := auth.EncodeState("http://localhost:3000/welcome", "read:profile")
	if raw == "" {
		t.Fatal("expected non-empty state")
	}

	env, ok := auth.DecodeState(raw)
	if !ok {
		t.Fatal("expected state to decode")
	}
	if env.RedirectURI != "http://localhost:3000/welcome" {
		t.Fatalf("redirect uri lost in roundtrip: %q", env.RedirectURI)
	}
	if env.RequestedScope != "read:profile" {
		t.Fatalf("requested scope lost in roundtrip: %q", env.RequestedScope)
	}
}

func TestState_URLSafe(t *testing.T) {
	// Values chosen so standard base64 would produce padding and '+'/'/' chars.
	raw := auth.EncodeState("https://app.example/path?a=1&b=2#frag", "admin")

	if strings.ContainsAny(raw, "+/=") {
		t.Fatalf("state is not URL-safe: %q", raw)
	}
}

func TestState_EmptyHintsEncodeToEmpty(t *testing.T) {
	if raw := auth.EncodeState("", ""); raw != "" {
		t.Fatalf("expected empty state for empty hints, got %q", raw)
	}
}

func TestState_PartialHints(t *testing.T) {
	raw := auth.EncodeState("", "admin")
	env, ok := auth.DecodeState(raw)
	if !ok {
		t.Fatal("expected state to decode")
	}
	if env.RedirectURI != "" || env.RequestedScope != "admin" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestDecodeState_DefaultsOnGarbage(t *testing.T) {
	cases := []string{
		"",
		"not base64 at all!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
	}

	for _, raw := range cases {
		env, ok := auth.DecodeState(raw)
		if ok {
			t.Fatalf("expected decode failure for %q", raw)
		}
		if !env.IsZero() {
			t.Fatalf("expected zero envelope for %q, got %+v", raw, env)
		}
	}
}

func TestDecodeState_UnknownVersionDefaults(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte(`{"v":99,"ru":"http://evil.example"}`))

	env, ok := auth.DecodeState(raw)
	if ok {
		t.Fatal("expected decode failure for unknown version")
	}
	if env.RedirectURI != "" {
		t.Fatalf("unknown version must not leak fields, got %+v", env)
	}
}
