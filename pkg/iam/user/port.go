package user

import (
	"context"
	"encoding/json"

	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/kernel"
)

// Update describes a partial update: only non-nil fields are written.
// A nil Scopes slice means "leave scopes unchanged".
type Update struct {
	Email        *string
	Name         *string
	PasswordHash *string
	Scopes       scopes.Set
	IsActive     *bool
}

// IsZero reports whether the update would change nothing.
func (u Update) IsZero() bool {
	return u.Email == nil && u.Name == nil && u.PasswordHash == nil &&
		u.Scopes == nil && u.IsActive == nil
}

// Repository defines the contract for user persistence. Implementations
// must enforce case-insensitive email uniqueness and provide per-call
// atomicity.
type Repository interface {
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, u User) (*User, error)
	Update(ctx context.Context, id kernel.UserID, upd Update) (*User, error)
	Delete(ctx context.Context, id kernel.UserID) error

	FindAppData(ctx context.Context, id kernel.UserID) (json.RawMessage, error)
	SaveAppData(ctx context.Context, id kernel.UserID, data json.RawMessage) error
}
