package handlers

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/config"
	"github.com/nihalvp321/ekarbot-server/internal/middleware"
	"github.com/nihalvp321/ekarbot-server/internal/models"
)

type AuthHandler struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{cfg: cfg, db: db}
}

// SeedUser creates the configured bootstrap user when the users table is
// empty, so a fresh deployment can log in.
func (h *AuthHandler) SeedUser() error {
	var count int64
	if err := h.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 || h.cfg.SeedPassword == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(h.cfg.SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := models.User{
		Username:     h.cfg.SeedUsername,
		PasswordHash: string(hash),
		DisplayName:  h.cfg.SeedDisplayName,
		Role:         h.cfg.SeedRole,
		IsActive:     true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return err
	}
	slog.Info("Seed user created", "username", user.Username, "role", user.Role)
	return nil
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	var user models.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid credentials",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   true,
			"message": "Account is disabled",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid credentials",
		})
	}

	access, refresh, err := middleware.GenerateTokens(user.ID, user.Username, h.cfg.JWTSecret, user.DisplayName, user.Role)
	if err != nil {
		slog.Error("Failed to generate tokens", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to generate tokens",
		})
	}

	now := time.Now()
	h.db.Model(&user).Update("last_seen_at", now)

	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user": fiber.Map{
			"id":              user.ID,
			"username":        user.Username,
			"display_name":    user.DisplayName,
			"role":            user.Role,
			"avatar_initials": buildInitials(user.DisplayName),
		},
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(req.RefreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.cfg.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid or expired refresh token",
		})
	}

	// Re-read the user so disabled accounts lose access on refresh.
	var user models.User
	if err := h.db.Where("username = ?", claims.Username).First(&user).Error; err != nil || !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "Account no longer active",
		})
	}

	access, refresh, err := middleware.GenerateTokens(user.ID, user.Username, h.cfg.JWTSecret, user.DisplayName, user.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to generate tokens",
		})
	}

	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user": fiber.Map{
			"id":              user.ID,
			"username":        user.Username,
			"display_name":    user.DisplayName,
			"role":            user.Role,
			"avatar_initials": buildInitials(user.DisplayName),
		},
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)
	displayName, _ := c.Locals("display_name").(string)
	role, _ := c.Locals("role").(string)

	return c.JSON(fiber.Map{
		"id":              middleware.UserID(c),
		"username":        username,
		"display_name":    displayName,
		"role":            role,
		"avatar_initials": buildInitials(displayName),
	})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Both old_password and new_password are required",
		})
	}

	if len(req.NewPassword) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "New password must be at least 8 characters",
		})
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "User not found",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "Current password is incorrect",
		})
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash new password", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update password",
		})
	}

	if err := h.db.Model(&user).Update("password_hash", string(newHash)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update password",
		})
	}

	slog.Info("Password changed", "username", user.Username)
	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}

// buildInitials extracts uppercase initials from a display name.
// e.g. "Nihal VP" -> "NV", "Nihal" -> "N"
func buildInitials(name string) string {
	if name == "" {
		return "?"
	}
	parts := strings.Fields(name)
	initials := ""
	for _, p := range parts {
		if len(p) > 0 {
			initials += strings.ToUpper(p[:1])
		}
	}
	if len(initials) > 2 {
		initials = initials[:2]
	}
	return initials
}
