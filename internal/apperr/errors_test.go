package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWrap_KeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("saving issue: %w", Wrap(ErrInternal, cause))

	assert.True(t, errors.Is(err, ErrInternal))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "Produto não encontrado", ErrProductNotFound.Error())
	assert.Equal(t, "Falha interna do servidor: boom", Wrap(ErrInternal, errors.New("boom")).Error())
}

func errorBody(t *testing.T, body io.Reader) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out["error"]
}

func TestHandler_RendersStatusAndMessage(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler(zap.NewNop())})
	app.Get("/app", func(c *fiber.Ctx) error { return Wrap(ErrInsufficientStock, errors.New("avail=50")) })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "teapot") })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("db down") })

	cases := []struct {
		path    string
		status  int
		message string
	}{
		{"/app", fiber.StatusBadRequest, ErrInsufficientStock.Message},
		{"/fiber", fiber.StatusTeapot, "teapot"},
		{"/plain", fiber.StatusInternalServerError, ErrInternal.Message},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.message, errorBody(t, resp.Body))
		})
	}
}
