package authapi

import (
	"github.com/Abraxas-365/authgate/pkg/errx"
	"github.com/Abraxas-365/authgate/pkg/iam/auth"
	"github.com/Abraxas-365/authgate/pkg/iam/user"
	"github.com/Abraxas-365/authgate/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/authgate/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// AuthHandlers exposes password login, the federation flow, and the
// authenticated caller's own record.
type AuthHandlers struct {
	users      *usersrv.UserService
	tokens     auth.TokenService
	oauth      *auth.OAuthService
	middleware *auth.TokenMiddleware
}

// NewAuthHandlers creates the auth HTTP handlers.
func NewAuthHandlers(users *usersrv.UserService, tokens auth.TokenService, oauth *auth.OAuthService, middleware *auth.TokenMiddleware) *AuthHandlers {
	return &AuthHandlers{
		users:      users,
		tokens:     tokens,
		oauth:      oauth,
		middleware: middleware,
	}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandlers) RegisterRoutes(app fiber.Router) {
	grp := app.Group("/api/v1/auth")

	grp.Post("/login", h.Login)
	grp.Get("/login/google", h.GoogleLogin)
	grp.Get("/google/callback", h.GoogleCallback)
	grp.Get("/me", h.middleware.Authenticate(), h.Me)
}

// tokenResponse is the password-login response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles password login. Credentials arrive as form fields
// (username carries the email).
func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	email := c.FormValue("username")
	password := c.FormValue("password")

	usr, err := h.users.Authenticate(c.Context(), email, password)
	if err != nil {
		return err
	}

	token, err := h.tokens.IssueAccessToken(usr.ID, usr.Scopes, 0)
	if err != nil {
		return err
	}

	return c.JSON(tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// GoogleLogin initiates the federation flow: packs the client's redirect
// intent into the state parameter and redirects to the provider.
func (h *AuthHandlers) GoogleLogin(c *fiber.Ctx) error {
	redirectURI := c.Query("redirect_uri")
	clientScope := c.Query("scope")

	authURL, err := h.oauth.BeginLogin(redirectURI, clientScope)
	if err != nil {
		return err
	}

	return c.Redirect(authURL, fiber.StatusFound)
}

// GoogleCallback terminates the federation flow. Provider and network
// failures collapse to a single generic outcome for the end user; the
// detail stays in the server log.
func (h *AuthHandlers) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return errx.New("missing authorization code", errx.TypeValidation)
	}
	state := c.Query("state")

	target, err := h.oauth.CompleteLogin(c.Context(), code, state)
	if err != nil {
		var e *errx.Error
		if errx.As(err, &e) && e.Type == errx.TypeExternal {
			logx.WithError(err).WithField("path", c.Path()).Error("federation callback failed")
			return auth.ErrFederationFailed()
		}
		return err
	}

	return c.Redirect(target, fiber.StatusFound)
}

// Me returns the authenticated caller's public record.
func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	authCtx, ok := auth.GetAuthContext(c)
	if !ok {
		return user.ErrUserNotFound()
	}

	usr, err := h.users.Get(c.Context(), authCtx.UserID)
	if err != nil {
		return err
	}

	return c.JSON(usr.ToDTO())
}
