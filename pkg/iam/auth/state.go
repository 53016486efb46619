package auth

import (
	"encoding/base64"
	"encoding/json"
)

// stateVersion is the current envelope version. Decoders treat any other
// version as unparsable and fall back to defaults.
const stateVersion = 1

// StateEnvelope carries the client's redirect intent through the external
// provider round trip. It travels as an opaque, URL-safe string in the
// OAuth state parameter; the system keeps no state between the two phases.
//
// The envelope is not signed: a forged redirect URI is caught by the
// allow-list check on the callback, which runs regardless of where the
// value came from.
type StateEnvelope struct {
	Version int `json:"v"`

	// RedirectURI is the client's desired post-login redirect target.
	// Empty means "use the default frontend URL".
	RedirectURI string `json:"ru,omitempty"`

	// RequestedScope is a scope the client requires the user to hold.
	// Empty means no scope gate.
	RequestedScope string `json:"rs,omitempty"`
}

// IsZero reports whether the envelope carries no hints.
func (e StateEnvelope) IsZero() bool {
	return e.RedirectURI == "" && e.RequestedScope == ""
}

// EncodeState packs the redirect intent into an opaque URL-safe string.
// Returns "" when there is nothing to carry.
func EncodeState(redirectURI, requestedScope string) string {
	env := StateEnvelope{
		Version:        stateVersion,
		RedirectURI:    redirectURI,
		RequestedScope: requestedScope,
	}
	if env.IsZero() {
		return ""
	}
	data, err := json.Marshal(env)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeState unpacks a state parameter, defaulting on any failure: absent,
// undecodable, malformed, or future-versioned states all yield the zero
// envelope and ok=false. Callers must never hard-fail on a bad state — only
// on what they do with it afterwards.
func DecodeState(raw string) (StateEnvelope, bool) {
	if raw == "" {
		return StateEnvelope{}, false
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return StateEnvelope{}, false
	}

	var env StateEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return StateEnvelope{}, false
	}
	if env.Version != stateVersion {
		return StateEnvelope{}, false
	}
	return env, true
}
