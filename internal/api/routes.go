// Package api wires the HTTP surface: route registration, request binding and
// the mapping from service errors onto HTTP statuses.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axellelanca/shortly/internal/auth"
	"github.com/axellelanca/shortly/internal/models"
	"github.com/axellelanca/shortly/internal/services"
)

// Handlers bundles the dependencies every route needs. Everything is injected
// here; handlers never reach for globals.
type Handlers struct {
	linkService    *services.LinkService
	authService    *services.AuthService
	projectService *services.ProjectService
	clickEvents    chan<- models.ClickEvent
	jwtSecret      string
}

// NewHandlers creates the handler set for SetupRoutes.
func NewHandlers(
	linkService *services.LinkService,
	authService *services.AuthService,
	projectService *services.ProjectService,
	clickEvents chan<- models.ClickEvent,
	jwtSecret string,
) *Handlers {
	return &Handlers{
		linkService:    linkService,
		authService:    authService,
		projectService: projectService,
		clickEvents:    clickEvents,
		jwtSecret:      jwtSecret,
	}
}

// SetupRoutes configures all Gin API routes.
func SetupRoutes(router *gin.Engine, h *Handlers) {
	// Health check route, used by load balancers and monitoring
	router.GET("/health", HealthCheckHandler)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.RegisterHandler)
		authGroup.POST("/login", h.LoginHandler)
	}

	links := router.Group("/links")
	{
		// Static segments are registered alongside the :shortCode parameter;
		// gin resolves static routes with priority.
		links.POST("/shorten", auth.OptionalAuth(h.jwtSecret), h.ShortenHandler)
		links.GET("/search/", h.SearchHandler)
		links.GET("/archive/", auth.RequireAuth(h.jwtSecret), h.ArchiveHandler)
		links.GET("/:shortCode", h.ResolveHandler)
		links.PUT("/:shortCode", auth.RequireAuth(h.jwtSecret), h.UpdateLinkHandler)
		links.DELETE("/:shortCode", auth.RequireAuth(h.jwtSecret), h.DeleteLinkHandler)
		links.GET("/:shortCode/stats", h.StatsHandler)
	}

	projects := router.Group("/projects", auth.RequireAuth(h.jwtSecret))
	{
		projects.POST("/", h.CreateProjectHandler)
		projects.GET("/:id", h.GetProjectHandler)
		projects.POST("/:id/links/:shortCode", h.AddLinkToProjectHandler)
	}
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
