package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskvault/taskvault/internal/db/models"
)

func strPtr(s string) *string {
	return &s
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)

	cat := parseCatalog(t, `{
		"permissions": ["task.read"],
		"roles": {"user": ["task.read"]}
	}`)
	require.NoError(t, Reconcile(db, cat))

	provider := NewLocalProvider(db)

	user, err := provider.CreateUser("alice", "hunter2", strPtr("alice@example.com"),
		models.VisibilityPublic, []string{"user"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	roles, err := NewService(db).GetUserRoles(user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, roles)

	testCases := []struct {
		name          string
		username      string
		password      string
		email         *string
		roles         []string
		expectedError error
	}{
		{
			name:          "duplicate username",
			username:      "alice",
			password:      "pw",
			expectedError: ErrUsernameExists,
		},
		{
			name:          "duplicate email",
			username:      "bob",
			password:      "pw",
			email:         strPtr("alice@example.com"),
			expectedError: ErrEmailExists,
		},
		{
			name:          "unknown role",
			username:      "carol",
			password:      "pw",
			roles:         []string{"ghost"},
			expectedError: ErrUnknownRole,
		},
		{
			name:          "empty password",
			username:      "dave",
			password:      "",
			expectedError: ErrEmptyPassword,
		},
		{
			name:     "no email no roles",
			username: "erin",
			password: "pw",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := provider.CreateUser(tc.username, tc.password, tc.email,
				models.VisibilityPrivate, tc.roles)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, created)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, created)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	provider := NewLocalProvider(db)

	_, err := provider.CreateUser("alice", "hunter2", nil, models.VisibilityPrivate, nil)
	require.NoError(t, err)

	user, err := provider.Authenticate("alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// Unknown user and wrong password are indistinguishable.
	_, err = provider.Authenticate("alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = provider.Authenticate("nobody", "hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	provider := NewLocalProvider(db)

	user, err := provider.CreateUser("alice", "pw", nil, models.VisibilityPrivate, nil)
	require.NoError(t, err)

	_, err = provider.CreateUser("bob", "pw", strPtr("bob@example.com"),
		models.VisibilityPrivate, nil)
	require.NoError(t, err)

	err = provider.UpdateUser(user.ID, strPtr("alice@example.com"), models.VisibilityPublic)
	require.NoError(t, err)

	updated, err := provider.GetUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Attributes.Email)
	assert.Equal(t, "alice@example.com", *updated.Attributes.Email)
	assert.Equal(t, models.VisibilityPublic, updated.Attributes.Visibility)
	assert.Equal(t, 2, updated.Version)

	// Every successful update bumps the version again.
	err = provider.UpdateUser(user.ID, strPtr("alice@example.com"), models.VisibilityPrivate)
	require.NoError(t, err)

	updated, err = provider.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)

	// Claiming another user's email fails without side effects.
	err = provider.UpdateUser(user.ID, strPtr("bob@example.com"), models.VisibilityPrivate)
	require.ErrorIs(t, err, ErrEmailExists)

	unchanged, err := provider.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, unchanged.Version)

	err = provider.UpdateUser("missing", nil, models.VisibilityPrivate)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUserNilEmailKeepsStoredEmail(t *testing.T) {
	db := setupTestDB(t)
	provider := NewLocalProvider(db)

	user, err := provider.CreateUser("alice", "pw", strPtr("alice@example.com"),
		models.VisibilityPrivate, nil)
	require.NoError(t, err)

	// A visibility-only update must not touch the email column.
	err = provider.UpdateUser(user.ID, nil, models.VisibilityPublic)
	require.NoError(t, err)

	updated, err := provider.GetUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Attributes.Email)
	assert.Equal(t, "alice@example.com", *updated.Attributes.Email)
	assert.Equal(t, models.VisibilityPublic, updated.Attributes.Visibility)

	// An update with nothing to change still bumps the version.
	err = provider.UpdateUser(user.ID, nil, "")
	require.NoError(t, err)

	updated, err = provider.GetUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Attributes.Email)
	assert.Equal(t, "alice@example.com", *updated.Attributes.Email)
	assert.Equal(t, 3, updated.Version)
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	provider := NewLocalProvider(db)

	user, err := provider.CreateUser("alice", "old-pw", nil, models.VisibilityPrivate, nil)
	require.NoError(t, err)

	err = provider.ChangePassword(user.ID, "wrong", "new-pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	err = provider.ChangePassword(user.ID, "old-pw", "new-pw")
	require.NoError(t, err)

	_, err = provider.Authenticate("alice", "old-pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = provider.Authenticate("alice", "new-pw")
	require.NoError(t, err)

	err = provider.ChangePassword("missing", "old-pw", "new-pw")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	db := setupTestDB(t)

	cat := parseCatalog(t, `{
		"permissions": ["task.read"],
		"roles": {"user": ["task.read"]}
	}`)
	require.NoError(t, Reconcile(db, cat))

	provider := NewLocalProvider(db)

	user, err := provider.CreateUser("alice", "pw", strPtr("alice@example.com"),
		models.VisibilityPrivate, []string{"user"})
	require.NoError(t, err)

	require.NoError(t, provider.DeleteUser(user.ID))

	_, err = provider.GetUserByID(user.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	// Attributes and memberships cascade away with the user.
	var count int64
	require.NoError(t, db.Model(&models.UserAttributes{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, db.Model(&models.UserRole{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	err = provider.DeleteUser(user.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	provider := NewLocalProvider(db)

	for _, username := range []string{"alice", "alina"} {
		_, err := provider.CreateUser(username, "pw", nil, models.VisibilityPrivate, nil)
		require.NoError(t, err)
	}

	_, err := provider.CreateUser("bob", "pw", nil, models.VisibilityPublic, nil)
	require.NoError(t, err)

	users, total, err := provider.ListUsers("", "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 3)

	users, total, err = provider.ListUsers("", models.VisibilityPublic, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	users, total, err = provider.ListUsers("ali", "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "alina", users[1].Username)

	users, total, err = provider.ListUsers("", "", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 1)
}
