package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/db/models"
)

// LocalProvider handles local database accounts and credentials.
type LocalProvider struct {
	db *gorm.DB
}

const whereID = "id = ?"

// NewLocalProvider creates a new local account provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate verifies a username and password against the local database.
// Any failure, unknown user included, yields ErrInvalidCredentials so a
// caller cannot probe which usernames exist.
func (p *LocalProvider) Authenticate(username, password string) (*models.User, error) {
	var user models.User

	err := p.db.Where("username = ?", username).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// CreateUser creates a new local user with its attributes and role
// memberships in one transaction. Roles must already exist in the store.
func (p *LocalProvider) CreateUser(
	username, password string,
	email *string,
	visibility models.Visibility,
	roles []string,
) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	user := models.User{
		ID:           models.NewEntityID(),
		Username:     username,
		PasswordHash: hash,
		Attributes: models.UserAttributes{
			Email:      email,
			Visibility: visibility,
		},
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.User{}).Where("username = ?", username).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing username: %w", err)
		}

		if count > 0 {
			return ErrUsernameExists
		}

		if email != nil {
			err := tx.Model(&models.UserAttributes{}).Where("email = ?", *email).
				Count(&count).Error
			if err != nil {
				return fmt.Errorf("failed to check existing email: %w", err)
			}

			if count > 0 {
				return ErrEmailExists
			}
		}

		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		for _, role := range roles {
			var known int64

			err := tx.Model(&models.Role{}).Where("name = ?", role).Count(&known).Error
			if err != nil {
				return fmt.Errorf("failed to validate role %s: %w", role, err)
			}

			if known == 0 {
				return ErrUnknownRole
			}

			err = tx.Create(&models.UserRole{UserID: user.ID, RoleName: role}).Error
			if err != nil {
				return fmt.Errorf("failed to assign role %s: %w", role, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// UpdateUser updates a user's attributes and bumps its version counter.
// A nil email and an empty visibility leave the stored values untouched.
func (p *LocalProvider) UpdateUser(userID string, email *string, visibility models.Visibility) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var user models.User

		err := tx.Where(whereID, userID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to query user: %w", err)
		}

		if email != nil {
			var count int64

			err = tx.Model(&models.UserAttributes{}).
				Where("email = ? AND user_id <> ?", *email, userID).
				Count(&count).Error
			if err != nil {
				return fmt.Errorf("failed to check existing email: %w", err)
			}

			if count > 0 {
				return ErrEmailExists
			}
		}

		attrs := map[string]interface{}{}
		if email != nil {
			attrs["email"] = *email
		}

		if visibility != "" {
			attrs["visibility"] = visibility
		}

		if len(attrs) > 0 {
			err = tx.Model(&models.UserAttributes{}).Where("user_id = ?", userID).
				Updates(attrs).Error
			if err != nil {
				return fmt.Errorf("failed to update user attributes: %w", err)
			}
		}

		return tx.Model(&models.User{}).Where(whereID, userID).
			Updates(map[string]interface{}{
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now(),
			}).Error
	})
}

// ChangePassword changes a user's password after verifying the old one.
func (p *LocalProvider) ChangePassword(userID, oldPassword, newPassword string) error {
	var user models.User

	err := p.db.Where(whereID, userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to query user: %w", err)
	}

	if !VerifyPassword(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return p.db.Model(&models.User{}).
		Where(whereID, userID).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"version":       gorm.Expr("version + 1"),
		}).Error
}

// DeleteUser removes a user. Attributes, role memberships and owned tasks
// cascade away with it.
func (p *LocalProvider) DeleteUser(userID string) error {
	res := p.db.Where(whereID, userID).Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetUserByID retrieves a user with its attributes.
func (p *LocalProvider) GetUserByID(userID string) (*models.User, error) {
	var user models.User

	err := p.db.Preload("Attributes").Where(whereID, userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (p *LocalProvider) GetUserByUsername(username string) (*models.User, error) {
	var user models.User

	err := p.db.Preload("Attributes").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// ListUsers lists users with optional username substring and visibility
// filters.
func (p *LocalProvider) ListUsers(
	username string,
	visibility models.Visibility,
	limit, offset int,
) ([]models.User, int64, error) {
	var users []models.User

	var total int64

	query := p.db.Model(&models.User{}).Preload("Attributes")

	if username != "" {
		query = query.Where("username LIKE ?", "%"+username+"%")
	}

	if visibility != "" {
		query = query.Select("users.*").
			Joins("JOIN user_attributes ON user_attributes.user_id = users.id").
			Where("user_attributes.visibility = ?", visibility)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("username").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
