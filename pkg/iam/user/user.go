package user

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Abraxas-365/authgate/pkg/errx"
	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/kernel"
)

// ============================================================================
// Entity
// ============================================================================

// User is an identity record in the directory.
type User struct {
	ID    kernel.UserID `json:"id"`
	Email string        `json:"email"`
	Name  string        `json:"name"`

	// PasswordHash is empty for federation-only accounts.
	PasswordHash string `json:"-"`

	Scopes      scopes.Set `json:"scopes"`
	IsActive    bool       `json:"is_active"`
	IsFederated bool       `json:"is_federated"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`

	// AppData is an opaque per-user document fully owned by the client
	// application. It is stored and returned verbatim, never interpreted.
	AppData json.RawMessage `json:"-"`
}

// CanPasswordLogin reports whether the account is reachable by password login.
func (u *User) CanPasswordLogin() bool {
	return u.PasswordHash != ""
}

// HasScope reports whether the user's stored scopes cover the given scope.
func (u *User) HasScope(scope string) bool {
	return u.Scopes.Contains(scope)
}

// ============================================================================
// DTOs
// ============================================================================

// DTO is the public representation of a user, safe to return to admins and
// to the user themselves.
type DTO struct {
	ID          kernel.UserID `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name,omitempty"`
	Scopes      []string      `json:"scopes"`
	IsActive    bool          `json:"is_active"`
	IsFederated bool          `json:"is_federated"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

// ToDTO converts the entity to its public representation.
func (u *User) ToDTO() DTO {
	return DTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Scopes:      u.Scopes.Values(),
		IsActive:    u.IsActive,
		IsFederated: u.IsFederated,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// CreateRequest is the admin-facing payload for manual account creation.
type CreateRequest struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Scopes   []string `json:"scopes"`
	IsActive *bool    `json:"is_active"`
}

// UpdateRequest carries partial updates: only non-nil fields change.
type UpdateRequest struct {
	Email    *string  `json:"email"`
	Name     *string  `json:"name"`
	Password *string  `json:"password"`
	Scopes   []string `json:"scopes"`
	IsActive *bool    `json:"is_active"`
}

// AppDataPayload wraps the opaque per-user document on the wire.
type AppDataPayload struct {
	Data json.RawMessage `json:"data"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound    = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeEmailTaken      = ErrRegistry.Register("EMAIL_TAKEN", errx.TypeConflict, http.StatusConflict, "Email already registered")
	CodeSelfDeletion    = ErrRegistry.Register("SELF_DELETION", errx.TypeBusiness, http.StatusForbidden, "Admin users cannot delete themselves")
	CodeUserInactive    = ErrRegistry.Register("INACTIVE", errx.TypeBusiness, http.StatusBadRequest, "User account is inactive")
	CodeInvalidEmail    = ErrRegistry.Register("INVALID_EMAIL", errx.TypeValidation, http.StatusBadRequest, "Invalid email address")
	CodeInvalidPassword = ErrRegistry.Register("INVALID_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password must be at least 8 characters")
	CodeMissingPassword = ErrRegistry.Register("MISSING_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password is required for manually created accounts")
)

// Helper functions
func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrEmailTaken() *errx.Error {
	return ErrRegistry.New(CodeEmailTaken)
}

func ErrSelfDeletion() *errx.Error {
	return ErrRegistry.New(CodeSelfDeletion)
}

func ErrUserInactive() *errx.Error {
	return ErrRegistry.New(CodeUserInactive)
}

func ErrInvalidEmail() *errx.Error {
	return ErrRegistry.New(CodeInvalidEmail)
}

func ErrInvalidPassword() *errx.Error {
	return ErrRegistry.New(CodeInvalidPassword)
}

func ErrMissingPassword() *errx.Error {
	return ErrRegistry.New(CodeMissingPassword)
}
