package usersrv

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Abraxas-365/authgate/pkg/errx"
	"github.com/Abraxas-365/authgate/pkg/iam/auth"
	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/iam/user"
	"github.com/Abraxas-365/authgate/pkg/kernel"
	"github.com/Abraxas-365/authgate/pkg/logx"
)

const minPasswordLength = 8

// UserService implements the user lifecycle: creation, partial updates,
// deletion, listing, password authentication, federated resolution, and the
// startup admin bootstrap.
type UserService struct {
	repo      user.Repository
	passwords auth.PasswordService
}

// NewUserService creates a new user lifecycle service.
func NewUserService(repo user.Repository, passwords auth.PasswordService) *UserService {
	return &UserService{
		repo:      repo,
		passwords: passwords,
	}
}

// CreateInput is the internal creation payload, covering both manual and
// federated account creation.
type CreateInput struct {
	Email     string
	Name      string
	Password  string // empty only valid for federated accounts
	Scopes    scopes.Set
	IsActive  bool
	Federated bool
}

// Create registers a new user. Email uniqueness is case-insensitive; a
// missing scope set falls back to the baseline for the creation path.
func (s *UserService) Create(ctx context.Context, in CreateInput) (*user.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, user.ErrEmailTaken().WithDetail("email", email)
	} else if !errx.IsCode(err, user.CodeUserNotFound) {
		return nil, err
	}

	var passwordHash string
	if in.Password != "" {
		if len(in.Password) < minPasswordLength {
			return nil, user.ErrInvalidPassword()
		}
		passwordHash, err = s.passwords.Hash(in.Password)
		if err != nil {
			return nil, err
		}
	} else if !in.Federated {
		return nil, user.ErrMissingPassword()
	}

	scopeSet := in.Scopes
	if scopeSet.IsEmpty() {
		if in.Federated {
			scopeSet = scopes.DefaultFederatedScopes()
		} else {
			scopeSet = scopes.DefaultManualScopes()
		}
	}

	return s.repo.Insert(ctx, user.User{
		Email:        email,
		Name:         in.Name,
		PasswordHash: passwordHash,
		Scopes:       scopeSet,
		IsActive:     in.IsActive,
		IsFederated:  in.Federated,
	})
}

// Update applies a partial update: only the supplied fields change. A
// supplied password is re-hashed before storage.
func (s *UserService) Update(ctx context.Context, id kernel.UserID, req user.UpdateRequest) (*user.User, error) {
	upd := user.Update{
		Name:     req.Name,
		IsActive: req.IsActive,
	}

	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}

	if req.Scopes != nil {
		upd.Scopes = scopes.NewSet(req.Scopes...)
	}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < minPasswordLength {
			return nil, user.ErrInvalidPassword()
		}
		hash, err := s.passwords.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	return s.repo.Update(ctx, id, upd)
}

// Delete removes a user. An admin may never delete their own record.
func (s *UserService) Delete(ctx context.Context, id, callerID kernel.UserID) (*user.User, error) {
	if id == callerID {
		return nil, user.ErrSelfDeletion()
	}

	usr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return usr, nil
}

// Get returns a single user by ID.
func (s *UserService) Get(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, offset, limit int) (kernel.Paginated[user.DTO], error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return kernel.Paginated[user.DTO]{}, err
	}

	users, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return kernel.Paginated[user.DTO]{}, err
	}

	dtos := make([]user.DTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, u.ToDTO())
	}

	page := offset/limit + 1
	return kernel.NewPaginated(dtos, page, limit, total), nil
}

// Authenticate verifies an email/password pair. Unknown email, passwordless
// account, and wrong password all fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	usr, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errx.IsCode(err, user.CodeUserNotFound) {
			return nil, auth.ErrInvalidCredentials()
		}
		return nil, err
	}

	if !usr.CanPasswordLogin() || !s.passwords.Verify(password, usr.PasswordHash) {
		return nil, auth.ErrInvalidCredentials()
	}

	if !usr.IsActive {
		return nil, user.ErrUserInactive()
	}

	return usr, nil
}

// ResolveFederated looks a provider identity up by email, creating a
// federation-flagged account with the baseline scopes on first login.
// Implements auth.FederatedDirectory.
func (s *UserService) ResolveFederated(ctx context.Context, email, name string) (*user.User, error) {
	usr, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if !usr.IsActive {
			return nil, user.ErrUserInactive()
		}
		return usr, nil
	}
	if !errx.IsCode(err, user.CodeUserNotFound) {
		return nil, err
	}

	logx.WithField("email", email).Info("creating user from federated login")
	return s.Create(ctx, CreateInput{
		Email:     email,
		Name:      name,
		IsActive:  true,
		Federated: true,
	})
}

// GetAppData returns the caller's opaque document, verbatim.
func (s *UserService) GetAppData(ctx context.Context, id kernel.UserID) (json.RawMessage, error) {
	return s.repo.FindAppData(ctx, id)
}

// SaveAppData overwrites the caller's opaque document, verbatim.
func (s *UserService) SaveAppData(ctx context.Context, id kernel.UserID, data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	return s.repo.SaveAppData(ctx, id, data)
}

// EnsureAdmin guarantees the bootstrap invariant: the designated admin
// account exists and carries the admin scope. Runs once at process start,
// before the service accepts traffic.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	usr, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errx.IsCode(err, user.CodeUserNotFound) {
			return err
		}

		logx.WithField("email", email).Info("creating initial admin user")
		_, err = s.Create(ctx, CreateInput{
			Email:    email,
			Password: password,
			Scopes:   scopes.AdminBootstrapScopes(),
			IsActive: true,
		})
		return err
	}

	if usr.Scopes.Contains(scopes.Admin) {
		return nil
	}

	logx.WithField("email", email).Info("adding admin scope to existing admin user")
	_, err = s.repo.Update(ctx, usr.ID, user.Update{
		Scopes: usr.Scopes.Add(scopes.Admin),
	})
	return err
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", user.ErrInvalidEmail()
	}
	return email, nil
}
