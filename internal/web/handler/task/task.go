// Package task provides the task CRUD routes with creator based
// visibility rules.
package task

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/config"
	taskctl "github.com/taskvault/taskvault/internal/db/controller/task"
	"github.com/taskvault/taskvault/internal/db/models"
	"github.com/taskvault/taskvault/internal/web/handler"
)

const (
	// Path is the route group prefix.
	Path = "/task"

	// PermissionAdmin allows acting on tasks of other users.
	PermissionAdmin = "task.admin"
)

// Service is the task handler service.
type Service struct {
	cfg  *config.Config
	db   *gorm.DB
	auth *auth.Service
}

// Handler is the task handler.
var Handler = Service{}

// Init initializes the task handler and registers its routes.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authService *auth.Service,
	authority *auth.TokenAuthority,
) {
	if app == nil || cfg == nil || db == nil || authService == nil || authority == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.auth = authService

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireToken(authority))

		router.Get(handler.RootPath, s.List)
		router.Post(handler.RootPath, s.Create)
		router.Get("/:id", s.Get)
		router.Patch("/:id", s.Update)
		router.Delete("/:id", s.Delete)
	})
}

type createRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=256"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=public private"`
	Status     string `json:"status" validate:"omitempty,oneof=not_started in_progress completed cancelled"`
}

type updateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=256"`
	Visibility *string `json:"visibility" validate:"omitempty,oneof=public private"`
	Status     *string `json:"status" validate:"omitempty,oneof=not_started in_progress completed cancelled"`
}

type listResponse struct {
	Tasks []handler.TaskView `json:"tasks"`
	Total int64              `json:"total"`
}

// List returns a user's tasks. The creator sees all of them; everyone else
// only the public ones. Without a user_id query param it lists the caller's
// own tasks.
func (s *Service) List(c *fiber.Ctx) error {
	callerID := auth.CurrentUserID(c)

	targetID := c.Query("user_id")
	if targetID == "" {
		targetID = callerID
	}

	publicOnly := targetID != callerID

	limit := c.QueryInt("limit", s.cfg.DB.MaxQueryLimit)
	if limit <= 0 || limit > s.cfg.DB.MaxQueryLimit {
		limit = s.cfg.DB.MaxQueryLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	tasks, total, err := taskctl.ListByCreator(s.db, targetID, publicOnly, limit, offset)
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusOK, "tasks", listResponse{
		Tasks: handler.NewTaskViews(tasks),
		Total: total,
	})
}

// Create creates a task owned by the caller.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest

	ok, err := handler.ParseAndValidate(c, &req)
	if !ok {
		return err
	}

	task, err := taskctl.Create(s.db, auth.CurrentUserID(c), req.Name,
		models.Visibility(req.Visibility), models.TaskStatus(req.Status))
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusCreated, "task", handler.NewTaskView(task))
}

// Get returns one task. Non-public tasks are only visible to their creator.
func (s *Service) Get(c *fiber.Ctx) error {
	task, err := taskctl.Get(s.db, c.Params("id"))
	if err != nil {
		if errors.Is(err, taskctl.ErrTaskNotFound) {
			return handler.RespondError(c, fiber.StatusNotFound,
				"task_not_found", "task does not exist")
		}

		return err
	}

	callerID := auth.CurrentUserID(c)
	if task.CreatorID != callerID && task.Attributes.Visibility != models.VisibilityPublic {
		// Hidden tasks are indistinguishable from missing ones.
		return handler.RespondError(c, fiber.StatusNotFound,
			"task_not_found", "task does not exist")
	}

	return handler.Respond(c, fiber.StatusOK, "task", handler.NewTaskView(task))
}

// Update applies attribute changes. Only the creator may update a task.
func (s *Service) Update(c *fiber.Ctx) error {
	task, err := taskctl.Get(s.db, c.Params("id"))
	if err != nil {
		if errors.Is(err, taskctl.ErrTaskNotFound) {
			return handler.RespondError(c, fiber.StatusNotFound,
				"task_not_found", "task does not exist")
		}

		return err
	}

	if task.CreatorID != auth.CurrentUserID(c) {
		return handler.RespondError(c, fiber.StatusForbidden,
			"forbidden", "only the creator may update a task")
	}

	var req updateRequest

	ok, err := handler.ParseAndValidate(c, &req)
	if !ok {
		return err
	}

	var visibility *models.Visibility
	if req.Visibility != nil {
		v := models.Visibility(*req.Visibility)
		visibility = &v
	}

	var status *models.TaskStatus
	if req.Status != nil {
		st := models.TaskStatus(*req.Status)
		status = &st
	}

	updated, err := taskctl.Update(s.db, task.ID, req.Name, visibility, status)
	if err != nil {
		return err
	}

	return handler.Respond(c, fiber.StatusOK, "task", handler.NewTaskView(updated))
}

// Delete removes a task. Allowed for the creator or holders of the task
// admin permission.
func (s *Service) Delete(c *fiber.Ctx) error {
	task, err := taskctl.Get(s.db, c.Params("id"))
	if err != nil {
		if errors.Is(err, taskctl.ErrTaskNotFound) {
			return handler.RespondError(c, fiber.StatusNotFound,
				"task_not_found", "task does not exist")
		}

		return err
	}

	callerID := auth.CurrentUserID(c)

	if task.CreatorID != callerID {
		isAdmin, err := s.auth.HasPermission(callerID, PermissionAdmin)
		if err != nil {
			return err
		}

		if !isAdmin {
			return handler.RespondError(c, fiber.StatusForbidden,
				"forbidden", "insufficient permissions")
		}
	}

	if err := taskctl.Delete(s.db, task.ID); err != nil {
		return err
	}

	log.Info().Str("task_id", task.ID).Str("user_id", callerID).Msg("deleted task")

	return handler.Respond(c, fiber.StatusOK, "task", fiber.Map{"id": task.ID})
}
