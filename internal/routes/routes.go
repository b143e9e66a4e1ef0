package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nihalvp321/ekarbot-server/internal/config"
	"github.com/nihalvp321/ekarbot-server/internal/handlers"
	"github.com/nihalvp321/ekarbot-server/internal/middleware"
	"github.com/nihalvp321/ekarbot-server/internal/models"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	chatbotHandler *handlers.ChatbotHandler,
	messageHandler *handlers.MessageHandler,
	projectHandler *handlers.ProjectHandler,
	leadHandler *handlers.LeadHandler,
	customerHandler *handlers.CustomerHandler,
	activityHandler *handlers.ActivityHandler,
	siteVisitHandler *handlers.SiteVisitHandler,
	settingHandler *handlers.SettingHandler,
	systemHandler *handlers.SystemHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)
	app.Get("/api/settings", settingHandler.GetSettings)

	// ─── Auth ────────────────────────────────────────────────────────────
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	// ─── Protected routes ────────────────────────────────────────────────
	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))

	// Auth (protected)
	api.Get("/auth/me", authHandler.Me)
	api.Put("/auth/password", authHandler.ChangePassword)

	// Dashboard
	api.Get("/dashboard/overview", systemHandler.DashboardOverview)

	// Chatbot
	api.Post("/chatbot/chat", chatbotHandler.Chat)
	api.Get("/chatbot/sessions", chatbotHandler.ListSessions)
	api.Get("/chatbot/sessions/:id/history", chatbotHandler.GetHistory)
	api.Put("/chatbot/sessions/:id", chatbotHandler.RenameSession)
	api.Delete("/chatbot/sessions/:id", chatbotHandler.DeleteSession)
	api.Delete("/chatbot/sessions/:id/rows/:rowID", chatbotHandler.DeleteRow)

	// Messaging
	api.Get("/users", userHandler.ListUsers)
	api.Post("/messages", messageHandler.Send)
	api.Post("/messages/attachments", messageHandler.UploadAttachment)
	api.Get("/messages/conversations", messageHandler.ListConversations)
	api.Get("/messages/thread/:peerID", messageHandler.GetThread)
	api.Delete("/messages/:id", messageHandler.Delete)

	// Messaging socket (WebSocket)
	api.Use("/messages/socket", messageHandler.UpgradeCheck())
	api.Get("/messages/socket", messageHandler.HandleSocket())

	// Projects
	api.Get("/projects", projectHandler.ListProjects)
	api.Get("/projects/:id", projectHandler.GetProject)
	api.Get("/projects/:id/units", projectHandler.ListUnits)

	developer := api.Group("", middleware.RequireRole(models.RoleDeveloper, models.RoleUserManager))
	developer.Post("/projects", projectHandler.CreateProject)
	developer.Put("/projects/:id", projectHandler.UpdateProject)
	developer.Delete("/projects/:id", projectHandler.DeleteProject)
	developer.Post("/projects/import", projectHandler.ImportWorkbook)

	// CRM
	api.Get("/leads", leadHandler.ListLeads)
	api.Post("/leads", leadHandler.CreateLead)
	api.Put("/leads/:id/status", leadHandler.UpdateStatus)
	api.Put("/leads/:id/assign", leadHandler.AssignLead)
	api.Delete("/leads/:id", leadHandler.DeleteLead)

	api.Get("/customers", customerHandler.ListCustomers)
	api.Post("/customers", customerHandler.CreateCustomer)
	api.Get("/customers/:id", customerHandler.GetCustomer)
	api.Put("/customers/:id", customerHandler.UpdateCustomer)

	api.Get("/activities", activityHandler.ListActivities)
	api.Post("/activities", activityHandler.LogActivity)

	// Site visits
	api.Get("/site-visits", siteVisitHandler.ListVisits)
	api.Post("/site-visits", siteVisitHandler.BookVisit)
	api.Put("/site-visits/:id/status", siteVisitHandler.UpdateVisitStatus)
	api.Delete("/site-visits/:id", siteVisitHandler.DeleteVisit)

	// Administration (manager only)
	admin := api.Group("/admin", middleware.RequireRole(models.RoleUserManager))
	admin.Post("/users", userHandler.CreateUser)
	admin.Put("/users/:id/active", userHandler.SetActive)
	admin.Put("/users/:id/role", userHandler.UpdateRole)
	admin.Get("/settings/:key", settingHandler.GetSettingKey)
	admin.Put("/settings/:key", settingHandler.SetSettingKey)
	admin.Delete("/settings/:key", settingHandler.DeleteSettingKey)
}
