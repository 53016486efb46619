// Package scopes models permission scopes as a genuine set type with
// defined membership and union semantics. Scopes follow the pattern
// "resource:action"; the wildcard "*" grants everything and "resource:*"
// grants every action on a resource.
package scopes

// Well-known scopes used by the service itself.
const (
	// Admin grants access to the user management API.
	Admin = "admin"

	// Default is the baseline marker assigned to manually created accounts
	// when no scopes were supplied.
	Default = "default"

	// ReadProfile is granted to accounts created via identity federation.
	ReadProfile = "read:profile"

	// ManageUsers is part of the admin bootstrap grant.
	ManageUsers = "manage:users"

	// Wildcard matches any scope.
	Wildcard = "*"
)

// DefaultManualScopes is the baseline for manually created accounts.
func DefaultManualScopes() Set { return NewSet(Default) }

// DefaultFederatedScopes is the baseline for accounts created on first
// federated login.
func DefaultFederatedScopes() Set { return NewSet(ReadProfile) }

// AdminBootstrapScopes is the grant for the startup-ensured admin account.
func AdminBootstrapScopes() Set { return NewSet(Admin, ReadProfile, ManageUsers) }

// Set is an order-irrelevant set of scope strings. The zero value is the
// empty set.
type Set []string

// NewSet builds a Set from the given values, dropping empties and duplicates.
func NewSet(values ...string) Set {
	if len(values) == 0 {
		return Set{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make(Set, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Contains reports whether the set covers the given scope, honoring the "*"
// and "resource:*" wildcards.
func (s Set) Contains(scope string) bool {
	for _, have := range s {
		if have == scope || have == Wildcard {
			return true
		}
		// "channels:*" covers "channels:read"
		if len(have) > 2 && have[len(have)-2:] == ":*" {
			prefix := have[:len(have)-2]
			if len(scope) > len(prefix) && scope[:len(prefix)] == prefix && scope[len(prefix)] == ':' {
				return true
			}
		}
	}
	return false
}

// ContainsAll reports whether the set covers every required scope.
func (s Set) ContainsAll(required ...string) bool {
	_, missing := s.Missing(required...)
	return !missing
}

// Missing returns the first required scope the set does not cover.
func (s Set) Missing(required ...string) (string, bool) {
	for _, scope := range required {
		if !s.Contains(scope) {
			return scope, true
		}
	}
	return "", false
}

// Add returns a set that additionally contains the given scope.
func (s Set) Add(scope string) Set {
	if scope == "" || s.has(scope) {
		return s
	}
	out := make(Set, len(s), len(s)+1)
	copy(out, s)
	return append(out, scope)
}

// Union returns the union of both sets.
func (s Set) Union(other Set) Set {
	out := s
	for _, scope := range other {
		out = out.Add(scope)
	}
	return out
}

// Values returns the scopes as a plain string slice (never nil).
func (s Set) Values() []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

// IsEmpty reports whether the set has no scopes.
func (s Set) IsEmpty() bool { return len(s) == 0 }

// has is exact membership, no wildcard expansion.
func (s Set) has(scope string) bool {
	for _, have := range s {
		if have == scope {
			return true
		}
	}
	return false
}
