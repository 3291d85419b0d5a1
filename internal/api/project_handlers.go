package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axellelanca/shortly/internal/auth"
	apperrors "github.com/axellelanca/shortly/internal/errors"
)

// CreateProjectRequest is the JSON body of POST /projects/.
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// ProjectResponse describes a project without its links.
type ProjectResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectLinkResponse is one link entry in a project detail response.
type ProjectLinkResponse struct {
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	CustomAlias *string    `json:"custom_alias"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ProjectWithLinksResponse is the detail view of a project.
type ProjectWithLinksResponse struct {
	ProjectResponse
	Links []ProjectLinkResponse `json:"links"`
}

// CreateProjectHandler creates a project for the authenticated user.
func (h *Handlers) CreateProjectHandler(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	project, err := h.projectService.CreateProject(req.Name, *userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateProject) {
			c.JSON(http.StatusConflict, gin.H{"error": "Project with this name already exists"})
			return
		}
		log.Printf("Error creating project: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, ProjectResponse{
		ID:        project.ID,
		Name:      project.Name,
		CreatedAt: project.CreatedAt,
	})
}

// GetProjectHandler returns one of the caller's projects with its links.
func (h *Handlers) GetProjectHandler(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return
	}

	project, err := h.projectService.GetProject(uint(projectID), *userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		log.Printf("Error retrieving project %d: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	links := make([]ProjectLinkResponse, 0, len(project.Links))
	for _, link := range project.Links {
		links = append(links, ProjectLinkResponse{
			ShortURL:    link.ShortCode,
			OriginalURL: link.OriginalURL,
			CustomAlias: link.CustomAlias,
			ExpiresAt:   link.ExpiresAt,
			CreatedAt:   link.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, ProjectWithLinksResponse{
		ProjectResponse: ProjectResponse{
			ID:        project.ID,
			Name:      project.Name,
			CreatedAt: project.CreatedAt,
		},
		Links: links,
	})
}

// AddLinkToProjectHandler associates one of the caller's links with one of the
// caller's projects.
func (h *Handlers) AddLinkToProjectHandler(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return
	}
	shortCode := c.Param("shortCode")

	err = h.projectService.AddLinkToProject(uint(projectID), shortCode, *userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		case errors.Is(err, apperrors.ErrLinkNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		case errors.Is(err, apperrors.ErrDuplicateProjectLink):
			c.JSON(http.StatusConflict, gin.H{"error": "Link already in project"})
		default:
			log.Printf("Error adding link %s to project %d: %v", shortCode, projectID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link added to project"})
}
