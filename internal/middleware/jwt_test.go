package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func issueToken(t *testing.T, role string) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	access, _, err := GenerateTokens(id, "agent1", testSecret, "Agent One", role)
	require.NoError(t, err)
	return id, access
}

func TestGenerateTokensCarriesClaims(t *testing.T) {
	id, access := issueToken(t, "sales_agent")

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(access, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "agent1", claims.Username)
	assert.Equal(t, "Agent One", claims.DisplayName)
	assert.Equal(t, "sales_agent", claims.Role)
}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/guarded", JWTProtected(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": UserID(c).String()})
	})
	app.Get("/manager", JWTProtected(testSecret), RequireRole("user_manager"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestJWTProtectedAcceptsHeaderToken(t *testing.T) {
	app := protectedApp()
	_, access := issueToken(t, "sales_agent")

	req := httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedAcceptsQueryToken(t *testing.T) {
	// Websocket clients pass the token as a query param.
	app := protectedApp()
	_, access := issueToken(t, "sales_agent")

	req := httptest.NewRequest("GET", "/guarded?token="+access, nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsMissingAndGarbageTokens(t *testing.T) {
	app := protectedApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/guarded", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleBlocksWrongRole(t *testing.T) {
	app := protectedApp()

	_, agentToken := issueToken(t, "sales_agent")
	req := httptest.NewRequest("GET", "/manager", nil)
	req.Header.Set("Authorization", "Bearer "+agentToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, managerToken := issueToken(t, "user_manager")
	req = httptest.NewRequest("GET", "/manager", nil)
	req.Header.Set("Authorization", "Bearer "+managerToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
