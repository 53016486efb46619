package userapi

import (
	"github.com/Abraxas-365/authgate/pkg/errx"
	"github.com/Abraxas-365/authgate/pkg/iam/auth"
	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/iam/user"
	"github.com/Abraxas-365/authgate/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/authgate/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// UserHandlers exposes the admin user management API and the authenticated
// caller's opaque app-data accessors.
type UserHandlers struct {
	users      *usersrv.UserService
	middleware *auth.TokenMiddleware
}

// NewUserHandlers creates the user HTTP handlers.
func NewUserHandlers(users *usersrv.UserService, middleware *auth.TokenMiddleware) *UserHandlers {
	return &UserHandlers{
		users:      users,
		middleware: middleware,
	}
}

// RegisterRoutes registers the user management routes (admin scope) and the
// per-user app-data routes (any authenticated caller, own record only).
func (h *UserHandlers) RegisterRoutes(app fiber.Router) {
	grp := app.Group("/api/v1/users", h.middleware.RequireScopes(scopes.Admin))

	grp.Post("", h.Create)
	grp.Get("", h.List)
	grp.Get("/:id", h.Get)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)

	data := app.Group("/api/v1/cookies", h.middleware.Authenticate())
	data.Get("/", h.GetAppData)
	data.Post("/", h.SaveAppData)
	data.Put("/", h.SaveAppData)
}

// Create registers a new user (manual path: password required).
func (h *UserHandlers) Create(c *fiber.Ctx) error {
	var req user.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Wrap(err, "invalid request body", errx.TypeValidation)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	usr, err := h.users.Create(c.Context(), usersrv.CreateInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Scopes:   scopes.NewSet(req.Scopes...),
		IsActive: active,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(usr.ToDTO())
}

// List returns a page of users.
func (h *UserHandlers) List(c *fiber.Ctx) error {
	offset := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)

	page, err := h.users.List(c.Context(), offset, limit)
	if err != nil {
		return err
	}

	return c.JSON(page)
}

// Get returns a single user.
func (h *UserHandlers) Get(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	usr, err := h.users.Get(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(usr.ToDTO())
}

// Update applies a partial update to a user.
func (h *UserHandlers) Update(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	var req user.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Wrap(err, "invalid request body", errx.TypeValidation)
	}

	usr, err := h.users.Update(c.Context(), id, req)
	if err != nil {
		return err
	}

	return c.JSON(usr.ToDTO())
}

// Delete removes a user and returns the removed record. Admins cannot
// delete themselves.
func (h *UserHandlers) Delete(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	authCtx, ok := auth.GetAuthContext(c)
	if !ok {
		return user.ErrUserNotFound()
	}

	usr, err := h.users.Delete(c.Context(), id, authCtx.UserID)
	if err != nil {
		return err
	}

	return c.JSON(usr.ToDTO())
}

// GetAppData returns the caller's opaque document.
func (h *UserHandlers) GetAppData(c *fiber.Ctx) error {
	authCtx, ok := auth.GetAuthContext(c)
	if !ok {
		return user.ErrUserNotFound()
	}

	data, err := h.users.GetAppData(c.Context(), authCtx.UserID)
	if err != nil {
		return err
	}

	return c.JSON(user.AppDataPayload{Data: data})
}

// SaveAppData overwrites the caller's opaque document, verbatim.
func (h *UserHandlers) SaveAppData(c *fiber.Ctx) error {
	authCtx, ok := auth.GetAuthContext(c)
	if !ok {
		return user.ErrUserNotFound()
	}

	var payload user.AppDataPayload
	if err := c.BodyParser(&payload); err != nil {
		return errx.Wrap(err, "invalid request body", errx.TypeValidation)
	}

	if err := h.users.SaveAppData(c.Context(), authCtx.UserID, payload.Data); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseUserID(c *fiber.Ctx) (kernel.UserID, error) {
	id, err := kernel.ParseUserID(c.Params("id"))
	if err != nil {
		return 0, errx.New("invalid user id", errx.TypeValidation)
	}
	return id, nil
}
