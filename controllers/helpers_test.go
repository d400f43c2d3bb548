package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tasktracker/config"
	"tasktracker/routes"
)

// newTestApp wires the real route table against an isolated in-memory
// database, so tests exercise the same middleware and handlers production
// traffic goes through.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.RateLimitLogin = 1000
	config.AppConfig.SMTPHost = ""

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	app := fiber.New()
	routes.SetupRoutes(app, db)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin creates an account through the real endpoints and returns
// its token and user id
func registerAndLogin(t *testing.T, app *fiber.App, name, surname, email string) (string, uint) {
	t.Helper()

	resp := doJSON(t, app, fiber.MethodPost, "/auth/register", "", fiber.Map{
		"name":               name,
		"surname":            surname,
		"email":              email,
		"password":           "Sup3rSecret!",
		"confirmed_password": "Sup3rSecret!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodPost, "/auth/login", "", fiber.Map{
		"email":    email,
		"password": "Sup3rSecret!",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"ID"`
		} `json:"user"`
	}
	decodeBody(t, resp, &login)
	require.NotEmpty(t, login.Token)
	require.NotZero(t, login.User.ID)
	return login.Token, login.User.ID
}

// createTask creates a task through the API and returns its id
func createTask(t *testing.T, app *fiber.App, token, name string) uint {
	t.Helper()

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/tasks", token, fiber.Map{
		"name": name,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		TaskID uint `json:"task_id"`
	}
	decodeBody(t, resp, &created)
	require.NotZero(t, created.TaskID)
	return created.TaskID
}

// createSubTask creates a sub-task through the API and returns its id
func createSubTask(t *testing.T, app *fiber.App, token string, taskID uint, name string) uint {
	t.Helper()

	resp := doJSON(t, app, fiber.MethodPost,
		fmt.Sprintf("/api/v1/tasks/%d/subtasks", taskID), token, fiber.Map{
			"name": name,
		})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		SubTaskID uint `json:"sub_task_id"`
	}
	decodeBody(t, resp, &created)
	require.NotZero(t, created.SubTaskID)
	return created.SubTaskID
}

// addMember adds a user directly to a task through the API
func addMember(t *testing.T, app *fiber.App, token string, taskID, userID uint, isAdmin bool) {
	t.Helper()

	resp := doJSON(t, app, fiber.MethodPost,
		fmt.Sprintf("/api/v1/tasks/%d/members", taskID), token, fiber.Map{
			"user_id":  userID,
			"is_admin": isAdmin,
		})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}
