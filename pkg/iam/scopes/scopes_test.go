package scopes_test

import (
	"testing"

	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
)

func TestNewSet_DropsEmptiesAndDuplicates(t *testing.T) {
	s := scopes.NewSet("admin", "", "admin", "read:profile")
	if len(s) != 2 {
		t.Fatalf("expected 2 scopes, got %d: %v", len(s), s)
	}
}

func TestContains_Exact(t *testing.T) {
	s := scopes.NewSet("read:profile", "manage:users")

	if !s.Contains("read:profile") {
		t.Fatal("expected set to contain read:profile")
	}
	if s.Contains("admin") {
		t.Fatal("did not expect set to contain admin")
	}
}

func TestContains_GlobalWildcard(t *testing.T) {
	s := scopes.NewSet("*")

	for _, scope := range []string{"admin", "read:profile", "anything:at:all"} {
		if !s.Contains(scope) {
			t.Fatalf("wildcard set should contain %q", scope)
		}
	}
}

func TestContains_ResourceWildcard(t *testing.T) {
	s := scopes.NewSet("channels:*")

	if !s.Contains("channels:read") {
		t.Fatal("channels:* should cover channels:read")
	}
	if s.Contains("users:read") {
		t.Fatal("channels:* should not cover users:read")
	}
	if s.Contains("channelsread") {
		t.Fatal("channels:* should not cover channelsread")
	}
}

func TestMissing_ReturnsFirstMissing(t *testing.T) {
	s := scopes.NewSet("read:profile")

	missing, ok := s.Missing("read:profile", "admin", "manage:users")
	if !ok {
		t.Fatal("expected a missing scope")
	}
	if missing != "admin" {
		t.Fatalf("expected first missing scope to be admin, got %q", missing)
	}

	if _, ok := s.Missing("read:profile"); ok {
		t.Fatal("did not expect a missing scope")
	}
}

func TestContainsAll_EmptyRequirement(t *testing.T) {
	if !scopes.NewSet().ContainsAll() {
		t.Fatal("empty requirement should always be satisfied")
	}
}

func TestAdd_NoDuplicates(t *testing.T) {
	s := scopes.NewSet("default")
	s = s.Add("admin")
	s = s.Add("admin")
	s = s.Add("")

	if len(s) != 2 {
		t.Fatalf("expected 2 scopes after Add, got %v", s)
	}
}

func TestAdd_DoesNotMutateReceiver(t *testing.T) {
	orig := scopes.NewSet("default")
	_ = orig.Add("admin")

	if len(orig) != 1 {
		t.Fatalf("Add mutated the receiver: %v", orig)
	}
}

func TestUnion(t *testing.T) {
	a := scopes.NewSet("admin", "read:profile")
	b := scopes.NewSet("read:profile", "manage:users")

	u := a.Union(b)
	if len(u) != 3 {
		t.Fatalf("expected union of 3 scopes, got %v", u)
	}
}

func TestValues_NeverNil(t *testing.T) {
	var s scopes.Set
	if s.Values() == nil {
		t.Fatal("Values() on nil set should return an empty slice, not nil")
	}
}
