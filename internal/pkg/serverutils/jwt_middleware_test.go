package serverutils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ops",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAdminJwtMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", AdminJwtMiddleware("secret"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing token", header: "", want: fiber.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", "admin"), want: fiber.StatusUnauthorized},
		{name: "non admin", header: "Bearer " + signToken(t, "secret", "user"), want: fiber.StatusForbidden},
		{name: "admin", header: "Bearer " + signToken(t, "secret", "admin"), want: fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
