// Package user provides the user management routes: CRUD, role assignment
// and effective permission listing.
package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/db/models"
	"github.com/taskvault/taskvault/internal/web/handler"
)

const (
	// Path is the route group prefix.
	Path = "/user"

	// PermissionList is needed to list all users.
	PermissionList = "user.list"
	// PermissionCreate is needed to create users directly.
	PermissionCreate = "user.create"
	// PermissionUpdate allows updating users other than yourself.
	PermissionUpdate = "user.update"
	// PermissionDelete allows deleting users other than yourself.
	PermissionDelete = "user.delete"
	// PermissionSetRoles is needed to change role memberships.
	PermissionSetRoles = "user.roles.set"
)

// Service is the user handler service.
type Service struct {
	cfg      *config.Config
	provider *auth.LocalProvider
	auth     *auth.Service
}

// Handler is the user handler.
var Handler = Service{}

// Init initializes the user handler and registers its routes.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	provider *auth.LocalProvider,
	authService *auth.Service,
	authority *auth.TokenAuthority,
) {
	if app == nil || cfg == nil || provider == nil || authService == nil || authority == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.provider = provider
	s.auth = authService

	bearer := auth.RequireToken(authority)

	app.Route(Path, func(router fiber.Router) {
		router.Get("/search", s.Search)

		// Role managers need the user list too.
		router.Get(handler.RootPath, bearer,
			auth.RequireAnyPermission(authService, PermissionList, PermissionSetRoles), s.List)
		router.Post(handler.RootPath, bearer,
			auth.RequirePermission(authService, PermissionCreate), s.Create)

		router.Get("/:id", bearer, s.Get)
		router.Patch("/:id", bearer, s.Update)
		router.Delete("/:id", bearer, s.Delete)
		router.Put("/:id/password", bearer, s.ChangePassword)

		router.Get("/:id/role", bearer, s.GetRoles)
		router.Put("/:id/role", bearer,
			auth.RequirePermission(authService, PermissionSetRoles), s.SetRoles)
		router.Get("/:id/permission", bearer, s.GetPermissions)
	})
}

type createRequest struct {
	Username   string   `json:"username" validate:"required,alphanum,min=8,max=32"`
	Password   string   `json:"password" validate:"required,min=8"`
	Email      *string  `json:"email" validate:"omitempty,email"`
	Visibility string   `json:"visibility" validate:"omitempty,oneof=public private"`
	Roles      []string `json:"roles"`
}

type updateRequest struct {
	Email      *string `json:"email" validate:"omitempty,email"`
	Visibility string  `json:"visibility" validate:"omitempty,oneof=public private"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type setRolesRequest struct {
	Roles []string `json:"roles" validate:"required"`
}

type listResponse struct {
	Users []handler.UserView `json:"users"`
	Total int64              `json:"total"`
}

// queryLimits reads limit/offset query params, capping limit at the
// configured maximum.
func (s *Service) queryLimits(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", s.cfg.DB.MaxQueryLimit)
	if limit <= 0 || limit > s.cfg.DB.MaxQueryLimit {
		limit = s.cfg.DB.MaxQueryLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// allowSelfOr passes when the authenticated user acts on themselves or
// holds the given permission.
func (s *Service) allowSelfOr(c *fiber.Ctx, targetID, permission string) (bool, error) {
	userID := auth.CurrentUserID(c)
	if userID == targetID {
		return true, nil
	}

	return s.auth.HasPermission(userID, permission)
}

// Search lists public users without authentication.
func (s *Service) Search(c *fiber.Ctx) error {
	limit, offset := s.queryLimits(c)

	users, total, err := s.provider.ListUsers(c.Query("username"),
		models.VisibilityPublic, limit, offset)
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusOK, "users", listResponse{
		Users: handler.NewUserViews(users),
		Total: total,
	})
}

// List lists all users.
func (s *Service) List(c *fiber.Ctx) error {
	limit, offset := s.queryLimits(c)

	users, total, err := s.provider.ListUsers(c.Query("username"), "", limit, offset)
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusOK, "users", listResponse{
		Users: handler.NewUserViews(users),
		Total: total,
	})
}

// Get returns one user by id.
func (s *Service) Get(c *fiber.Ctx) error {
	user, err := s.provider.GetUserByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return handler.RespondError(c, fiber.StatusNotFound,
				"user_not_found", "user does not exist")
		}

		return err
	}

	return handler.Respond(c, fiber.StatusOK, "user", handler.NewUserView(user))
}

// Create creates a user with explicit roles.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest

	ok, err := handler.ParseAndValidate(c, &req)
	if !ok {
		return err
	}

	user, err := s.provider.CreateUser(req.Username, req.Password, req.Email,
		models.Visibility(req.Visibility), req.Roles)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameExists):
			return handler.RespondError(c, fiber.StatusConflict,
				"username_exists", "username is already taken")
		case errors.Is(err, auth.ErrEmailExists):
			return handler.RespondError(c, fiber.StatusConflict,
				"email_exists", "email is already taken")
		case errors.Is(err, auth.ErrUnknownRole):
			return handler.RespondError(c, fiber.StatusBadRequest,
				"unknown_role", "one of the requested roles does not exist")
		default:
			return err
		}
	}

	return handler.Respond(c, fiber.StatusCreated, "user", handler.NewUserView(user))
}

// Update updates a user's attributes. Users may update themselves; anyone
// else needs the update permission.
func (s *Service) Update(c *fiber.Ctx) error {
	targetID := c.Params("id")

	allowed, err := s.allowSelfOr(c, targetID, PermissionUpdate)
	if err != nil {
		return err
	}

	if !allowed {
		return handler.RespondError(c, fiber.StatusForbidden,
			"forbidden", "insufficient permissions")
	}

	var req updateRequest

	ok, err := handler.ParseAndValidate(c, &req)
	if !ok {
		return err
	}

	err = s.provider.UpdateUser(targetID, req.Email, models.Visibility(req.Visibility))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			return handler.RespondError(c, fiber.StatusNotFound,
				"user_not_found", "user does not exist")
		case errors.Is(err, auth.ErrEmailExists):
			return handler.RespondError(c, fiber.StatusConflict,
				"email_exists", "email is already taken")
		default:
			return err
		}
	}

	user, err := s.provider.GetUserByID(targetID)
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusOK, "user", handler.NewUserView(user))
}

// ChangePassword changes the caller's own password. The old password must
// verify, so nobody can rotate another account's credentials here.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	targetID := c.Params("id")

	if auth.CurrentUserID(c) != targetID {
		return handler.RespondError(c, fiber.StatusForbidden,
			"forbidden", "passwords can only be changed by the account owner")
	}

	var req changePasswordRequest

	ok, err := handler.ParseAndValidate(c, &req)
	if !ok {
		return err
	}

	err = s.provider.ChangePassword(targetID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			return handler.RespondError(c, fiber.StatusNotFound,
				"user_not_found", "user does not exist")
		case errors.Is(err, auth.ErrInvalidCredentials):
			return handler.RespondError(c, fiber.StatusForbidden,
				"invalid_credentials", "old password is incorrect")
		default:
			return err
		}
	}

	log.Info().Str("user_id", targetID).Msg("password changed")

	return handler.Respond(c, fiber.StatusOK, "user", fiber.Map{"id": targetID})
}

// Delete removes a user. Users may delete themselves; anyone else needs
// the delete permission.
func (s *Service) Delete(c *fiber.Ctx) error {
	targetID := c.Params("id")

	allowed, err := s.allowSelfOr(c, targetID, PermissionDelete)
	if err != nil {
		return err
	}

	if !allowed {
		return handler.RespondError(c, fiber.StatusForbidden,
			"forbidden", "insufficient permissions")
	}

	if err := s.provider.DeleteUser(targetID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return handler.RespondError(c, fiber.StatusNotFound,
				"user_not_found", "user does not exist")
		}

		return err
	}

	log.Info().Str("user_id", targetID).Msg("deleted user")

	return handler.Respond(c, fiber.StatusOK, "user", fiber.Map{"id": targetID})
}

// GetRoles returns a user's role memberships.
func (s *Service) GetRoles(c *fiber.Ctx) error {
	targetID := c.Params("id")

	if _, err := s.provider.GetUserByID(targetID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return handler.RespondError(c, fiber.StatusNotFound,
				"user_not_found", "user does not exist")
		}

		return err
	}

	roles, err := s.auth.GetUserRoles(targetID)
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusOK, "roles", roles)
}

// SetRoles replaces a user's role memberships.
func (s *Service) SetRoles(c *fiber.Ctx) error {
	targetID := c.Params("id")

	if _, err := s.provider.GetUserByID(targetID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return handler.RespondError(c, fiber.StatusNotFound,
				"user_not_found", "user does not exist")
		}

		return err
	}

	var req setRolesRequest

	ok, err := handler.ParseAndValidate(c, &req)
	if !ok {
		return err
	}

	if err := s.auth.SetUserRoles(targetID, req.Roles); err != nil {
		if errors.Is(err, auth.ErrUnknownRole) {
			return handler.RespondError(c, fiber.StatusBadRequest,
				"unknown_role", "one of the requested roles does not exist")
		}

		return err
	}

	roles, err := s.auth.GetUserRoles(targetID)
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusOK, "roles", roles)
}

// GetPermissions returns a user's effective permissions across all roles.
func (s *Service) GetPermissions(c *fiber.Ctx) error {
	targetID := c.Params("id")

	if _, err := s.provider.GetUserByID(targetID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return handler.RespondError(c, fiber.StatusNotFound,
				"user_not_found", "user does not exist")
		}

		return err
	}

	permissions, err := s.auth.GetUserPermissions(targetID)
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusOK, "permissions", permissions)
}
