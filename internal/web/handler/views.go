package handler

import (
	"time"

	"github.com/taskvault/taskvault/internal/db/models"
)

// UserView is the JSON shape of a user in API responses. The password hash
// never leaves the server.
type UserView struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      *string   `json:"email"`
	Visibility string    `json:"visibility"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUserView maps a user row with loaded attributes to its API shape.
func NewUserView(user *models.User) UserView {
	return UserView{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Attributes.Email,
		Visibility: string(user.Attributes.Visibility),
		Version:    user.Version,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// NewUserViews maps a slice of user rows.
func NewUserViews(users []models.User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, NewUserView(&users[i]))
	}

	return views
}

// TaskView is the JSON shape of a task in API responses.
type TaskView struct {
	ID         string    `json:"id"`
	CreatorID  string    `json:"creator_id"`
	Name       string    `json:"name"`
	Visibility string    `json:"visibility"`
	Status     string    `json:"status"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewTaskView maps a task row with loaded attributes to its API shape.
func NewTaskView(task *models.Task) TaskView {
	return TaskView{
		ID:         task.ID,
		CreatorID:  task.CreatorID,
		Name:       task.Attributes.Name,
		Visibility: string(task.Attributes.Visibility),
		Status:     string(task.Attributes.Status),
		Version:    task.Version,
		CreatedAt:  task.CreatedAt,
		UpdatedAt:  task.UpdatedAt,
	}
}

// NewTaskViews maps a slice of task rows.
func NewTaskViews(tasks []models.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, NewTaskView(&tasks[i]))
	}

	return views
}
