package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/catalog"
	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/db/models"
)

type fixture struct {
	app       *fiber.App
	db        *gorm.DB
	provider  *auth.LocalProvider
	auth      *auth.Service
	authority *auth.TokenAuthority
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.User{},
		&models.UserAttributes{},
		&models.UserRole{},
	))

	cat, err := catalog.Parse([]byte(`{
		"permissions": ["user.list", "user.create", "user.update",
			"user.delete", "user.roles.set"],
		"roles": {
			"admin": ["user.list", "user.create", "user.update",
				"user.delete", "user.roles.set"],
			"rolemanager": ["user.roles.set"],
			"user": []
		}
	}`))
	require.NoError(t, err)
	require.NoError(t, auth.Reconcile(db, cat))

	authority, err := auth.NewTokenAuthority("test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{
		DB: config.DB{MaxQueryLimit: 100},
	}

	app := fiber.New()

	f := &fixture{
		app:       app,
		db:        db,
		provider:  auth.NewLocalProvider(db),
		auth:      auth.NewService(db),
		authority: authority,
	}

	var s Service
	s.Init(app, cfg, f.provider, f.auth, authority)

	return f
}

// user creates an account with the given roles and returns it with a valid
// bearer token.
func (f *fixture) user(t *testing.T, username string, visibility models.Visibility, roles ...string) (*models.User, string) {
	t.Helper()

	user, err := f.provider.CreateUser(username, "long-enough-pw", nil, visibility, roles)
	require.NoError(t, err)

	token, err := f.authority.Issue(user.ID)
	require.NoError(t, err)

	return user, token
}

func (f *fixture) request(t *testing.T, method, target string, body any, token string) *http.Response {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return envelope
}

func TestListRequiresPermission(t *testing.T) {
	f := newFixture(t)

	_, adminToken := f.user(t, "admindoe", models.VisibilityPrivate, "admin")
	_, plainToken := f.user(t, "plaindoe", models.VisibilityPrivate, "user")

	// No token.
	resp := f.request(t, http.MethodGet, "/user", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	// Token without the list permission.
	resp = f.request(t, http.MethodGet, "/user", nil, plainToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = f.request(t, http.MethodGet, "/user", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	assert.EqualValues(t, 2, data["total"])
}

func TestListAllowsRoleManagers(t *testing.T) {
	f := newFixture(t)

	// user.roles.set is enough to read the user list.
	_, managerToken := f.user(t, "managerdoe", models.VisibilityPrivate, "rolemanager")

	resp := f.request(t, http.MethodGet, "/user", nil, managerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total"])
}

func TestSearchIsPublic(t *testing.T) {
	f := newFixture(t)

	f.user(t, "publicdoe", models.VisibilityPublic)
	f.user(t, "hiddendoe", models.VisibilityPrivate)

	resp := f.request(t, http.MethodGet, "/user/search", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total"])

	users := data["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "publicdoe", users[0].(map[string]any)["username"])
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)

	target, _ := f.user(t, "targetdoe", models.VisibilityPrivate)
	_, token := f.user(t, "callerdoe", models.VisibilityPrivate)

	resp := f.request(t, http.MethodGet, "/user/"+target.ID, nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "targetdoe", data["username"])

	// The hash never shows up in responses.
	_, leaked := data["password_hash"]
	assert.False(t, leaked)

	resp = f.request(t, http.MethodGet, "/user/missing", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)

	_, adminToken := f.user(t, "admindoe", models.VisibilityPrivate, "admin")
	_, plainToken := f.user(t, "plaindoe", models.VisibilityPrivate)

	body := fiber.Map{
		"username": "neweruser",
		"password": "long-enough-pw",
		"roles":    []string{"user"},
	}

	resp := f.request(t, http.MethodPost, "/user", body, plainToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = f.request(t, http.MethodPost, "/user", body, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "neweruser", data["username"])
	assert.EqualValues(t, 1, data["version"])

	// Unknown role is a client error.
	resp = f.request(t, http.MethodPost, "/user", fiber.Map{
		"username": "ghostuser",
		"password": "long-enough-pw",
		"roles":    []string{"ghost"},
	}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUpdateUserSelfOrPermission(t *testing.T) {
	f := newFixture(t)

	target, targetToken := f.user(t, "targetdoe", models.VisibilityPrivate)
	_, adminToken := f.user(t, "admindoe", models.VisibilityPrivate, "admin")
	_, plainToken := f.user(t, "plaindoe", models.VisibilityPrivate)

	body := fiber.Map{"email": "target@example.com", "visibility": "public"}

	// A stranger without the permission is rejected.
	resp := f.request(t, http.MethodPatch, "/user/"+target.ID, body, plainToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Self update works.
	resp = f.request(t, http.MethodPatch, "/user/"+target.ID, body, targetToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, "target@example.com", data["email"])
	assert.Equal(t, "public", data["visibility"])
	assert.EqualValues(t, 2, data["version"])

	// So does an admin update.
	resp = f.request(t, http.MethodPatch, "/user/"+target.ID,
		fiber.Map{"visibility": "private"}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope = decodeEnvelope(t, resp)
	data = envelope["data"].(map[string]any)
	assert.EqualValues(t, 3, data["version"])
}

func TestChangePasswordRoute(t *testing.T) {
	f := newFixture(t)

	target, targetToken := f.user(t, "targetdoe", models.VisibilityPrivate)
	_, adminToken := f.user(t, "admindoe", models.VisibilityPrivate, "admin")

	path := "/user/" + target.ID + "/password"
	body := fiber.Map{"old_password": "long-enough-pw", "new_password": "even-longer-pw"}

	// Even an admin cannot rotate someone else's password here.
	resp := f.request(t, http.MethodPut, path, body, adminToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Wrong old password is rejected.
	resp = f.request(t, http.MethodPut, path,
		fiber.Map{"old_password": "not-the-pw", "new_password": "even-longer-pw"}, targetToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Too-short new password fails validation.
	resp = f.request(t, http.MethodPut, path,
		fiber.Map{"old_password": "long-enough-pw", "new_password": "short"}, targetToken)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	_ = resp.Body.Close()

	resp = f.request(t, http.MethodPut, path, body, targetToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	_, err := f.provider.Authenticate("targetdoe", "long-enough-pw")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.provider.Authenticate("targetdoe", "even-longer-pw")
	require.NoError(t, err)
}

func TestDeleteUserSelfOrPermission(t *testing.T) {
	f := newFixture(t)

	target, targetToken := f.user(t, "targetdoe", models.VisibilityPrivate)
	_, plainToken := f.user(t, "plaindoe", models.VisibilityPrivate)

	resp := f.request(t, http.MethodDelete, "/user/"+target.ID, nil, plainToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = f.request(t, http.MethodDelete, "/user/"+target.ID, nil, targetToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	_, err := f.provider.GetUserByID(target.ID)
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRoleRoutes(t *testing.T) {
	f := newFixture(t)

	target, _ := f.user(t, "targetdoe", models.VisibilityPrivate, "user")
	_, adminToken := f.user(t, "admindoe", models.VisibilityPrivate, "admin")
	_, plainToken := f.user(t, "plaindoe", models.VisibilityPrivate)

	resp := f.request(t, http.MethodGet, "/user/"+target.ID+"/role", nil, plainToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, []any{"user"}, envelope["data"])

	// Setting roles needs the permission.
	body := fiber.Map{"roles": []string{"admin", "user"}}

	resp = f.request(t, http.MethodPut, "/user/"+target.ID+"/role", body, plainToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = f.request(t, http.MethodPut, "/user/"+target.ID+"/role", body, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope = decodeEnvelope(t, resp)
	assert.Equal(t, []any{"admin", "user"}, envelope["data"])

	// Unknown role leaves memberships untouched.
	resp = f.request(t, http.MethodPut, "/user/"+target.ID+"/role",
		fiber.Map{"roles": []string{"ghost"}}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	roles, err := f.auth.GetUserRoles(target.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "user"}, roles)
}

func TestPermissionRoute(t *testing.T) {
	f := newFixture(t)

	target, _ := f.user(t, "targetdoe", models.VisibilityPrivate, "admin")
	_, token := f.user(t, "callerdoe", models.VisibilityPrivate)

	resp := f.request(t, http.MethodGet, "/user/"+target.ID+"/permission", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, []any{"user.create", "user.delete", "user.list",
		"user.roles.set", "user.update"}, envelope["data"])

	resp = f.request(t, http.MethodGet, "/user/missing/permission", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
