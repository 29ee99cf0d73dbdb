// Package task provides CRUD operations for tasks and their attributes.
package task

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/db/models"
)

const (
	idQueryPattern = "id = ?"
)

var (
	// ErrTaskNotFound is returned when a task is not found.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskNameEmpty is returned when attempting to create a task with an empty name.
	ErrTaskNameEmpty = errors.New("task name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create creates a new task owned by the given user.
func Create(
	db *gorm.DB,
	creatorID, name string,
	visibility models.Visibility,
	status models.TaskStatus,
) (*models.Task, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrTaskNameEmpty
	}

	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	if status == "" {
		status = models.TaskStatusNotStarted
	}

	task := &models.Task{
		ID:        models.NewEntityID(),
		CreatorID: creatorID,
		Attributes: models.TaskAttributes{
			Name:       name,
			Visibility: visibility,
			Status:     status,
		},
	}

	if result := db.Create(task); result.Error != nil {
		return nil, result.Error
	}

	return task, nil
}

// Get retrieves a task with its attributes by ID.
func Get(db *gorm.DB, id string) (*models.Task, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var task models.Task

	result := db.Preload("Attributes").Where(idQueryPattern, id).First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}

		return nil, result.Error
	}

	return &task, nil
}

// ListByCreator retrieves a user's tasks. When publicOnly is set only tasks
// with public visibility are returned, which is what callers other than the
// creator get to see.
func ListByCreator(db *gorm.DB, creatorID string, publicOnly bool, limit, offset int) ([]models.Task, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	var tasks []models.Task

	var total int64

	query := db.Model(&models.Task{}).Preload("Attributes").
		Where("creator_id = ?", creatorID)

	if publicOnly {
		query = query.Select("tasks.*").
			Joins("JOIN task_attributes ON task_attributes.task_id = tasks.id").
			Where("task_attributes.visibility = ?", models.VisibilityPublic)
	}

	if result := query.Count(&total); result.Error != nil {
		return nil, 0, result.Error
	}

	result := query.Order("tasks.created_at").Limit(limit).Offset(offset).Find(&tasks)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return tasks, total, nil
}

// Update applies attribute changes to a task and bumps its version. Nil
// fields are left untouched.
func Update(
	db *gorm.DB,
	id string,
	name *string,
	visibility *models.Visibility,
	status *models.TaskStatus,
) (*models.Task, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name != nil && *name == "" {
		return nil, ErrTaskNameEmpty
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var task models.Task

		result := tx.Where(idQueryPattern, id).First(&task)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}

			return result.Error
		}

		attrs := map[string]interface{}{}
		if name != nil {
			attrs["name"] = *name
		}

		if visibility != nil {
			attrs["visibility"] = *visibility
		}

		if status != nil {
			attrs["status"] = *status
		}

		if len(attrs) > 0 {
			result = tx.Model(&models.TaskAttributes{}).
				Where("task_id = ?", id).Updates(attrs)
			if result.Error != nil {
				return result.Error
			}
		}

		return tx.Model(&models.Task{}).Where(idQueryPattern, id).
			Updates(map[string]interface{}{
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return Get(db, id)
}

// Delete removes a task. Its attributes row cascades away.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(idQueryPattern, id).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}
