package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/authgate/pkg/errx"
	"github.com/Abraxas-365/authgate/pkg/iam/auth"
	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/iam/user"
	"github.com/Abraxas-365/authgate/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// memRepo is an in-memory user.Repository, just enough for the middleware.
type memRepo struct {
	byID map[kernel.UserID]*user.User
}

func (r *memRepo) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, user.ErrUserNotFound()
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *memRepo) List(_ context.Context, _, _ int) ([]*user.User, error) { return nil, nil }
func (r *memRepo) Count(_ context.Context) (int, error)                   { return len(r.byID), nil }

func (r *memRepo) Insert(_ context.Context, u user.User) (*user.User, error) {
	r.byID[u.ID] = &u
	return &u, nil
}

func (r *memRepo) Update(_ context.Context, id kernel.UserID, _ user.Update) (*user.User, error) {
	return r.FindByID(context.Background(), id)
}

func (r *memRepo) Delete(_ context.Context, id kernel.UserID) error {
	delete(r.byID, id)
	return nil
}

func (r *memRepo) FindAppData(_ context.Context, _ kernel.UserID) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (r *memRepo) SaveAppData(_ context.Context, _ kernel.UserID, _ json.RawMessage) error {
	return nil
}

// --- test app ---

func newProtectedApp(repo user.Repository, tokens auth.TokenService, required ...string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *errx.Error
			if errx.As(err, &e) {
				return c.Status(e.HTTPStatus).JSON(e)
			}
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})

	mw := auth.NewTokenMiddleware(tokens, repo)
	app.Get("/protected", mw.RequireScopes(required...), func(c *fiber.Ctx) error {
		authCtx, ok := auth.GetAuthContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(authCtx)
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

// --- tests ---

func TestMiddleware_MissingTokenChallenges(t *testing.T) {
	repo := &memRepo{byID: map[kernel.UserID]*user.User{}}
	app := newProtectedApp(repo, newTestJWTService(), "admin")

	resp := doGet(t, app, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != `Bearer scope="admin"` {
		t.Fatalf("unexpected challenge header: %q", got)
	}
}

func TestMiddleware_ChallengeWithoutScopes(t *testing.T) {
	repo := &memRepo{byID: map[kernel.UserID]*user.User{}}
	app := newProtectedApp(repo, newTestJWTService())

	resp := doGet(t, app, "")
	if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("unexpected challenge header: %q", got)
	}
}

func TestMiddleware_RejectsTamperedToken(t *testing.T) {
	svc := newTestJWTService()
	repo := &memRepo{byID: map[kernel.UserID]*user.User{
		1: {ID: 1, Email: "a@example.com", Scopes: scopes.NewSet("admin"), IsActive: true},
	}}
	app := newProtectedApp(repo, svc, "admin")

	token, err := svc.IssueAccessToken(1, scopes.NewSet("admin"), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resp := doGet(t, app, "Bearer "+token+"x")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered token, got %d", resp.StatusCode)
	}
}

func TestMiddleware_RejectsDeletedSubject(t *testing.T) {
	svc := newTestJWTService()
	repo := &memRepo{byID: map[kernel.UserID]*user.User{}}
	app := newProtectedApp(repo, svc, "admin")

	// Token is valid, but the subject no longer exists in the store.
	token, err := svc.IssueAccessToken(99, scopes.NewSet("admin"), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resp := doGet(t, app, "Bearer "+token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted subject, got %d", resp.StatusCode)
	}
}

func TestMiddleware_RejectsInactiveSubject(t *testing.T) {
	svc := newTestJWTService()
	repo := &memRepo{byID: map[kernel.UserID]*user.User{
		1: {ID: 1, Email: "a@example.com", Scopes: scopes.NewSet("admin"), IsActive: false},
	}}
	app := newProtectedApp(repo, svc, "admin")

	token, err := svc.IssueAccessToken(1, scopes.NewSet("admin"), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resp := doGet(t, app, "Bearer "+token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive subject, got %d", resp.StatusCode)
	}
}

func TestMiddleware_LiveScopesOverrideTokenSnapshot(t *testing.T) {
	svc := newTestJWTService()
	repo := &memRepo{byID: map[kernel.UserID]*user.User{
		1: {ID: 1, Email: "a@example.com", Scopes: scopes.NewSet("default", "admin"), IsActive: true},
	}}
	app := newProtectedApp(repo, svc, "admin")

	// Snapshot predates the admin grant; the live store decides.
	token, err := svc.IssueAccessToken(1, scopes.NewSet("default"), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resp := doGet(t, app, "Bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with live admin scope, got %d", resp.StatusCode)
	}

	var authCtx auth.AuthContext
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &authCtx); err != nil {
		t.Fatalf("decoding auth context: %v", err)
	}
	if !authCtx.Scopes.Contains("admin") {
		t.Fatalf("auth context must carry live scopes, got %v", authCtx.Scopes)
	}
}

func TestMiddleware_RevokedScopeDeniesBeforeExpiry(t *testing.T) {
	svc := newTestJWTService()
	repo := &memRepo{byID: map[kernel.UserID]*user.User{
		1: {ID: 1, Email: "a@example.com", Scopes: scopes.NewSet("read:profile"), IsActive: true},
	}}
	app := newProtectedApp(repo, svc, "admin")

	// Snapshot still claims admin; the store says otherwise.
	token, err := svc.IssueAccessToken(1, scopes.NewSet("admin"), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resp := doGet(t, app, "Bearer "+token)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for revoked scope, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "admin") {
		t.Fatalf("denial should name the missing scope, got %s", body)
	}
}

func TestMiddleware_MalformedAuthorizationHeader(t *testing.T) {
	repo := &memRepo{byID: map[kernel.UserID]*user.User{}}
	app := newProtectedApp(repo, newTestJWTService(), "admin")

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "token-without-scheme"} {
		resp := doGet(t, app, header)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}
