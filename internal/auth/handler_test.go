package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/config"
	"estoque-backend/internal/database"
	"estoque-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newAuthApp(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret, TokenTTL: time.Hour}
	users := database.NewMemoryStore()

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(zap.NewNop())})
	app.Post("/register", RegisterHandler(users))
	app.Post("/login", LoginHandler(cfg, users))
	app.Get("/me", JWTMiddleware(cfg), MeHandler(users))
	return app, cfg
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

const anaJSON = `{"nome":"Ana","email":"Ana@Example.com ","senha":"segredo123","datanasc":"1990-05-20"}`

func TestRegister(t *testing.T) {
	app, _ := newAuthApp(t)

	resp, body := doJSON(t, app, "POST", "/register", anaJSON, "")
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ana@example.com", body["email"])
	assert.Equal(t, "1990-05-20", body["datanasc"])
	assert.NotContains(t, body, "senha")

	resp, body = doJSON(t, app, "POST", "/register", anaJSON, "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperr.ErrEmailTaken.Message, body["error"])
}

func TestRegister_Validation(t *testing.T) {
	app, _ := newAuthApp(t)

	resp, _ := doJSON(t, app, "POST", "/register", `{"nome":"Ana","email":"a@b.c"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/register", `{"nome":"Ana","email":"a@b.c","senha":"x","datanasc":"20/05/1990"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLoginAndMe(t *testing.T) {
	app, cfg := newAuthApp(t)
	doJSON(t, app, "POST", "/register", anaJSON, "")

	resp, body := doJSON(t, app, "POST", "/login", `{"email":"ana@example.com","senha":"segredo123"}`, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana", body["nome"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	claims, err := ParseToken(cfg.JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, body["idusuario"], float64(id))

	resp, body = doJSON(t, app, "GET", "/me", "", token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana@example.com", body["email"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	app, _ := newAuthApp(t)
	doJSON(t, app, "POST", "/register", anaJSON, "")

	resp, body := doJSON(t, app, "POST", "/login", `{"email":"ana@example.com","senha":"errada"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Credenciais inválidas", body["error"])

	resp, body = doJSON(t, app, "POST", "/login", `{"email":"ninguem@example.com","senha":"x"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Credenciais inválidas", body["error"])
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	app, _ := newAuthApp(t)
	user := &models.User{ID: 1, Email: "ana@example.com"}

	expired, err := GenerateToken(testSecret, -time.Minute, user)
	require.NoError(t, err)
	foreign, err := GenerateToken("another-secret-another-secret-xx", time.Hour, user)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing": "",
		"garbage": "abc.def.ghi",
		"expired": expired,
		"foreign": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			resp, _ := doJSON(t, app, "GET", "/me", "", token)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestMe_UserGone(t *testing.T) {
	app, _ := newAuthApp(t)
	token, err := GenerateToken(testSecret, time.Hour, &models.User{ID: 99, Email: "x@y.z"})
	require.NoError(t, err)

	resp, _ := doJSON(t, app, "GET", "/me", "", token)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
