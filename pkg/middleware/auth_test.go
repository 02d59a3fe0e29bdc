package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"invoice-scanner/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newApp(m *auth.JWTManager) *fiber.App {
	app := fiber.New()
	app.Delete("/thing", AuthMiddleware(m, zap.NewNop()), func(c *fiber.Ctx) error {
		client, _ := c.Locals("client").(string)
		return c.SendString(client)
	})
	return app
}

func TestAuthMiddleware_OpenWithoutManager(t *testing.T) {
	resp, err := newApp(nil).Test(httptest.NewRequest(fiber.MethodDelete, "/thing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	m := auth.NewJWTManager("secret", "invoice-scanner", time.Hour)
	token, err := m.GenerateToken("dashboard")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"invalid", "Bearer nope", fiber.StatusUnauthorized},
		{"valid", "Bearer " + token, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodDelete, "/thing", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := newApp(m).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
