package userinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/authgate/pkg/errx"
	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/iam/user"
	"github.com/Abraxas-365/authgate/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresUserRepository is the PostgreSQL implementation of user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new instance of the repository.
func NewPostgresUserRepository(db *sqlx.DB) user.Repository {
	return &PostgresUserRepository{
		db: db,
	}
}

// FindByID looks up a user by its numeric ID.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	var row userPersistence
	query := `SELECT * FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id.Int64())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by ID", errx.TypeInternal)
	}
	domainUser := toDomain(row)
	return &domainUser, nil
}

// FindByEmail looks up a user by email, case-insensitively.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var row userPersistence
	query := `SELECT * FROM users WHERE lower(email) = lower($1)`
	err := r.db.GetContext(ctx, &row, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}
	domainUser := toDomain(row)
	return &domainUser, nil
}

// List returns users ordered by ID with offset/limit pagination.
func (r *PostgresUserRepository) List(ctx context.Context, offset, limit int) ([]*user.User, error) {
	var rows []userPersistence
	query := `SELECT * FROM users ORDER BY id OFFSET $1 LIMIT $2`
	err := r.db.SelectContext(ctx, &rows, query, offset, limit)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}
	return toDomainSlice(rows), nil
}

// Count returns the total number of user records.
func (r *PostgresUserRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, errx.Wrap(err, "failed to count users", errx.TypeInternal)
	}
	return total, nil
}

// Insert persists a new user and returns it with the store-assigned ID and
// timestamps.
func (r *PostgresUserRepository) Insert(ctx context.Context, u user.User) (*user.User, error) {
	query := `
		INSERT INTO users (email, name, password_hash, scopes, is_active, is_federated, app_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`

	p := toPersistence(u)

	var inserted userPersistence
	err := r.db.GetContext(ctx, &inserted, query,
		p.Email, p.Name, p.PasswordHash, p.Scopes, p.IsActive, p.IsFederated, p.AppData)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil, user.ErrEmailTaken()
		}
		return nil, errx.Wrap(err, "failed to insert user", errx.TypeInternal).
			WithDetail("email", u.Email)
	}
	domainUser := toDomain(inserted)
	return &domainUser, nil
}

// Update applies a partial update. Only the fields present in upd are
// written; updated_at is always bumped.
func (r *PostgresUserRepository) Update(ctx context.Context, id kernel.UserID, upd user.Update) (*user.User, error) {
	if upd.IsZero() {
		return r.FindByID(ctx, id)
	}

	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if upd.Email != nil {
		sets = append(sets, "email = "+arg(strings.ToLower(*upd.Email)))
	}
	if upd.Name != nil {
		sets = append(sets, "name = "+arg(*upd.Name))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash = "+arg(*upd.PasswordHash))
	}
	if upd.Scopes != nil {
		sets = append(sets, "scopes = "+arg(pq.StringArray(upd.Scopes.Values())))
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active = "+arg(*upd.IsActive))
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = %s RETURNING *`,
		strings.Join(sets, ", "), arg(id.Int64()))

	var updated userPersistence
	err := r.db.GetContext(ctx, &updated, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound()
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, user.ErrEmailTaken()
		}
		return nil, errx.Wrap(err, "failed to update user", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	domainUser := toDomain(updated)
	return &domainUser, nil
}

// Delete removes a user record.
func (r *PostgresUserRepository) Delete(ctx context.Context, id kernel.UserID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id.Int64())
	if err != nil {
		return errx.Wrap(err, "failed to delete user", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on delete", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return user.ErrUserNotFound()
	}
	return nil
}

// FindAppData returns the opaque per-user document, verbatim.
func (r *PostgresUserRepository) FindAppData(ctx context.Context, id kernel.UserID) (json.RawMessage, error) {
	var data []byte
	query := `SELECT app_data FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &data, query, id.Int64())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to read user app data", errx.TypeInternal)
	}
	if len(data) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(data), nil
}

// SaveAppData overwrites the opaque per-user document, verbatim.
func (r *PostgresUserRepository) SaveAppData(ctx context.Context, id kernel.UserID, data json.RawMessage) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET app_data = $1, updated_at = NOW() WHERE id = $2`,
		[]byte(data), id.Int64())
	if err != nil {
		return errx.Wrap(err, "failed to save user app data", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on app data save", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return user.ErrUserNotFound()
	}
	return nil
}

// Persistence struct that handles DB-specific types.
type userPersistence struct {
	ID           int64          `db:"id"`
	Email        string         `db:"email"`
	Name         sql.NullString `db:"name"`
	PasswordHash sql.NullString `db:"password_hash"`
	Scopes       pq.StringArray `db:"scopes"`
	IsActive     bool           `db:"is_active"`
	IsFederated  bool           `db:"is_federated"`
	AppData      []byte         `db:"app_data"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    *time.Time     `db:"updated_at"`
}

// toPersistence converts the domain model to a persistence model.
func toPersistence(u user.User) userPersistence {
	return userPersistence{
		ID:           u.ID.Int64(),
		Email:        strings.ToLower(u.Email),
		Name:         sql.NullString{String: u.Name, Valid: u.Name != ""},
		PasswordHash: sql.NullString{String: u.PasswordHash, Valid: u.PasswordHash != ""},
		Scopes:       u.Scopes.Values(),
		IsActive:     u.IsActive,
		IsFederated:  u.IsFederated,
		AppData:      u.AppData,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// toDomain converts the persistence model to the domain model.
func toDomain(p userPersistence) user.User {
	return user.User{
		ID:           kernel.NewUserID(p.ID),
		Email:        p.Email,
		Name:         p.Name.String,
		PasswordHash: p.PasswordHash.String,
		Scopes:       scopes.NewSet(p.Scopes...),
		IsActive:     p.IsActive,
		IsFederated:  p.IsFederated,
		AppData:      p.AppData,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// toDomainSlice converts a persistence slice to a domain slice.
func toDomainSlice(rows []userPersistence) []*user.User {
	domainUsers := make([]*user.User, len(rows))
	for i, p := range rows {
		u := toDomain(p)
		domainUsers[i] = &u
	}
	return domainUsers
}
