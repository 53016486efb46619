package iamcontainer

import (
	"context"

	"github.com/Abraxas-365/authgate/pkg/config"
	"github.com/Abraxas-365/authgate/pkg/iam/auth"
	"github.com/Abraxas-365/authgate/pkg/iam/auth/authapi"
	"github.com/Abraxas-365/authgate/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/authgate/pkg/iam/user/userapi"
	"github.com/Abraxas-365/authgate/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/authgate/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/authgate/pkg/logx"
	"github.com/jmoiron/sqlx"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state — everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB  *sqlx.DB
	Cfg *config.Config
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what cmd/ actually needs; repos and infra stay private.
// ---------------------------------------------------------------------------

type Container struct {
	// Services
	UserService  *usersrv.UserService
	TokenService auth.TokenService

	// Handlers — needed by cmd/ to register routes
	AuthHandlers *authapi.AuthHandlers
	UserHandlers *userapi.UserHandlers

	// Middleware — needed by cmd/ to protect route groups
	AuthMiddleware *auth.TokenMiddleware

	cfg *config.Config
}

// ---------------------------------------------------------------------------
// New: constructs the entire IAM dependency graph.
// Order matters: infra → repos → services → middleware → handlers.
// ---------------------------------------------------------------------------

func New(deps Deps) *Container {
	logx.Info("Initializing IAM container...")

	c := &Container{cfg: deps.Cfg}

	// ── Repositories ─────────────────────────────────────────────────────

	userRepo := userinfra.NewPostgresUserRepository(deps.DB)

	// ── Infrastructure services ──────────────────────────────────────────

	passwordSvc := authinfra.NewBcryptPasswordService(deps.Cfg.Auth.Password.BcryptCost)
	c.TokenService = auth.NewJWTServiceFromConfig(&deps.Cfg.Auth.JWT)

	provider := auth.NewGoogleProvider(deps.Cfg.OAuth.Google)
	if !provider.IsConfigured() {
		logx.Warn("Google OAuth credentials not configured; federated login disabled")
	}

	// ── Domain services ──────────────────────────────────────────────────

	c.UserService = usersrv.NewUserService(userRepo, passwordSvc)

	oauthSvc := auth.NewOAuthService(provider, c.TokenService, c.UserService, deps.Cfg.OAuth)

	// ── Middleware & handlers ────────────────────────────────────────────

	c.AuthMiddleware = auth.NewTokenMiddleware(c.TokenService, userRepo)
	c.AuthHandlers = authapi.NewAuthHandlers(c.UserService, c.TokenService, oauthSvc, c.AuthMiddleware)
	c.UserHandlers = userapi.NewUserHandlers(c.UserService, c.AuthMiddleware)

	logx.Info("IAM container initialized")
	return c
}

// Bootstrap enforces startup invariants: the designated admin account
// exists and carries the admin scope. Must complete before the server
// accepts traffic.
func (c *Container) Bootstrap(ctx context.Context) error {
	return c.UserService.EnsureAdmin(ctx,
		c.cfg.Auth.Bootstrap.AdminEmail,
		c.cfg.Auth.Bootstrap.AdminPassword,
	)
}
