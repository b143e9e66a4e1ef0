package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nihalvp321/ekarbot-server/internal/models"
)

func settingTestApp(t *testing.T) (*fiber.App, *SettingHandler) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PortalSetting{}))

	handler := NewSettingHandler(db)
	app := fiber.New()
	app.Get("/api/settings", handler.GetSettings)
	return app, handler
}

func getSettings(t *testing.T, app *fiber.App) map[string]interface{} {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/api/settings", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGetSettingsEmptyTableReportsVersionZero(t *testing.T) {
	app, _ := settingTestApp(t)

	body := getSettings(t, app)
	assert.Equal(t, float64(0), body["settings_version"])
}

func TestGetSettingsCoercesTypes(t *testing.T) {
	app, handler := settingTestApp(t)
	handler.SeedDefaults()

	body := getSettings(t, app)
	assert.Equal(t, true, body["feature_chatbot"])
	assert.Equal(t, float64(50), body["chat_history_page_size"])
	assert.Equal(t, "ekarbot-ai", body["default_chat_mode"])
	assert.NotEqual(t, float64(0), body["settings_version"])
}
