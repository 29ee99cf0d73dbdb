// Package auth provides the login, registration and current-user routes.
package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/catalog"
	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/db/models"
	"github.com/taskvault/taskvault/internal/web/handler"
)

const (
	// Path is the route group prefix.
	Path = "/auth"
)

// Service is the auth handler service.
type Service struct {
	cfg       *config.Config
	provider  *auth.LocalProvider
	auth      *auth.Service
	authority *auth.TokenAuthority
	cat       *catalog.Catalog
}

// Handler is the auth handler.
var Handler = Service{}

// Init initializes the auth handler and registers its routes.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	provider *auth.LocalProvider,
	authService *auth.Service,
	authority *auth.TokenAuthority,
	cat *catalog.Catalog,
) {
	if app == nil || cfg == nil || provider == nil || authService == nil ||
		authority == nil || cat == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.provider = provider
	s.auth = authService
	s.authority = authority
	s.cat = cat

	app.Route(Path, func(router fiber.Router) {
		router.Post("/login", s.Login)
		router.Post("/register", s.Register)
		router.Get("/current", auth.RequireToken(authority), s.Current)
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username   string  `json:"username" validate:"required,alphanum,min=8,max=32"`
	Password   string  `json:"password" validate:"required,min=8"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Visibility string  `json:"visibility" validate:"omitempty,oneof=public private"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login exchanges a username and password for a bearer token.
func (s *Service) Login(c *fiber.Ctx) error {
	var req loginRequest

	ok, err := handler.ParseAndValidate(c, &req)
	if !ok {
		return err
	}

	user, err := s.provider.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return handler.RespondError(c, fiber.StatusUnauthorized,
				"invalid_credentials", "invalid username or password")
		}

		return err
	}

	return s.respondToken(c, fiber.StatusOK, user.ID)
}

// Register creates a new account and logs it in. The new user receives the
// catalog's default role when one is configured.
func (s *Service) Register(c *fiber.Ctx) error {
	var req registerRequest

	ok, err := handler.ParseAndValidate(c, &req)
	if !ok {
		return err
	}

	var roles []string
	if defaultRole := s.cat.OptionString("default_role", ""); defaultRole != "" {
		roles = append(roles, defaultRole)
	}

	user, err := s.provider.CreateUser(req.Username, req.Password, req.Email,
		models.Visibility(req.Visibility), roles)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameExists):
			return handler.RespondError(c, fiber.StatusConflict,
				"username_exists", "username is already taken")
		case errors.Is(err, auth.ErrEmailExists):
			return handler.RespondError(c, fiber.StatusConflict,
				"email_exists", "email is already taken")
		case errors.Is(err, auth.ErrUnknownRole):
			log.Error().Err(err).Msg("configured default_role does not exist in the store")

			return handler.RespondError(c, fiber.StatusInternalServerError,
				"misconfigured", "registration is misconfigured")
		default:
			return err
		}
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).
		Msg("registered new user")

	return s.respondToken(c, fiber.StatusCreated, user.ID)
}

// Current returns the authenticated user together with their roles.
func (s *Service) Current(c *fiber.Ctx) error {
	userID := auth.CurrentUserID(c)

	user, err := s.provider.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			// Token subject no longer exists, the account was deleted.
			return handler.RespondError(c, fiber.StatusUnauthorized,
				"unknown_subject", "account no longer exists")
		}

		return err
	}

	roles, err := s.auth.GetUserRoles(userID)
	if err != nil {
		return err
	}

	view := struct {
		handler.UserView
		Roles []string `json:"roles"`
	}{
		UserView: handler.NewUserView(user),
		Roles:    roles,
	}

	return handler.Respond(c, fiber.StatusOK, "user", view)
}

func (s *Service) respondToken(c *fiber.Ctx, status int, userID string) error {
	token, err := s.authority.Issue(userID)
	if err != nil {
		return err
	}

	return handler.Respond(c, status, "token", tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.Security.AccessTokenExpiry,
	})
}
