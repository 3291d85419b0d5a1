package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axellelanca/shortly/internal/auth"
	apperrors "github.com/axellelanca/shortly/internal/errors"
	"github.com/axellelanca/shortly/internal/models"
	"github.com/axellelanca/shortly/internal/services"
)

// CreateLinkRequest is the JSON body of POST /links/shorten.
// ExpiresAt is optional; a timestamp whose time-of-day is exactly midnight is
// treated as "date only" and normalized by the service.
type CreateLinkRequest struct {
	OriginalURL string     `json:"original_url" binding:"required,url"`
	CustomAlias *string    `json:"custom_alias" binding:"omitempty,min=1,max=64,alphanum"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// CreateLinkResponse is the JSON body returned on a successful shorten.
type CreateLinkResponse struct {
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	CustomAlias *string    `json:"custom_alias"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UpdateLinkRequest is the JSON body of PUT /links/:shortCode.
type UpdateLinkRequest struct {
	NewURL string `json:"new_url" binding:"required,url"`
}

// ShortenHandler creates a shortened link. Authentication is optional:
// anonymous requests produce ownerless links that nobody can mutate.
func (h *Handlers) ShortenHandler(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	link, err := h.linkService.CreateLink(services.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
		ExpiresAt:   req.ExpiresAt,
		UserID:      auth.CurrentUserID(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAliasConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Alias already exists"})
		case errors.Is(err, apperrors.ErrExpirationInPast):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Expiration date must be in the future"})
		case errors.Is(err, apperrors.ErrShortCodeGenerationFailed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unable to generate unique short code. Please try again later."})
		default:
			log.Printf("Error creating link: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create short link"})
		}
		return
	}

	c.JSON(http.StatusOK, CreateLinkResponse{
		ShortURL:    link.ShortCode,
		OriginalURL: link.OriginalURL,
		CustomAlias: link.CustomAlias,
		ExpiresAt:   link.ExpiresAt,
		CreatedAt:   link.CreatedAt,
	})
}

// ResolveHandler resolves a short code to its target URL. An expired link is
// archived by the resolution itself and reported as 410; the code is then free
// for reuse. A click event is queued (non-blocking) whenever the store was
// consulted — cache hits skip stats entirely.
func (h *Handlers) ResolveHandler(c *gin.Context) {
	shortCode := c.Param("shortCode")

	result, err := h.linkService.ResolveLink(c.Request.Context(), shortCode)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrLinkNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		case errors.Is(err, apperrors.ErrLinkExpired):
			c.JSON(http.StatusGone, gin.H{"error": "Link expired and archived"})
		default:
			log.Printf("Error resolving link %s: %v", shortCode, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if result.Link != nil && h.clickEvents != nil {
		event := models.ClickEvent{
			LinkID:    result.Link.ID,
			Timestamp: time.Now(),
			UserAgent: c.GetHeader("User-Agent"),
			IPAddress: c.ClientIP(),
		}
		// Never block the redirect on analytics; drop the event when the
		// buffer is full.
		select {
		case h.clickEvents <- event:
		default:
			log.Printf("WARNING: click events channel is full, dropping event for %s (ID: %d)", shortCode, result.Link.ID)
		}
	}

	c.JSON(http.StatusOK, gin.H{"Redirect": result.URL})
}

// UpdateLinkHandler changes the target URL of an owned link.
func (h *Handlers) UpdateLinkHandler(c *gin.Context) {
	shortCode := c.Param("shortCode")

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	err := h.linkService.UpdateLinkURL(c.Request.Context(), shortCode, req.NewURL, auth.CurrentUserID(c))
	if err != nil {
		respondLinkMutationError(c, shortCode, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Link updated successfully"})
}

// DeleteLinkHandler deletes an owned link and drops its cache entries.
func (h *Handlers) DeleteLinkHandler(c *gin.Context) {
	shortCode := c.Param("shortCode")

	err := h.linkService.DeleteLink(c.Request.Context(), shortCode, auth.CurrentUserID(c))
	if err != nil {
		respondLinkMutationError(c, shortCode, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Link deleted"})
}

func respondLinkMutationError(c *gin.Context, shortCode string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to modify this link"})
	default:
		log.Printf("Error mutating link %s: %v", shortCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// StatsHandler returns the stats payload for a short code.
func (h *Handlers) StatsHandler(c *gin.Context) {
	shortCode := c.Param("shortCode")

	stats, err := h.linkService.GetLinkStats(c.Request.Context(), shortCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		log.Printf("Error retrieving stats for %s: %v", shortCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SearchHandler lists every active link pointing exactly at the queried URL.
func (h *Handlers) SearchHandler(c *gin.Context) {
	originalURL := strings.TrimSpace(c.Query("original_url"))
	if originalURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "original_url query parameter is required"})
		return
	}

	results, err := h.linkService.SearchLinksByURL(c.Request.Context(), originalURL)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		log.Printf("Error searching links: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// ArchivedLinkResponse is one entry of the archive listing.
type ArchivedLinkResponse struct {
	OriginalURL  string  `json:"original_url"`
	ShortCode    string  `json:"short_code"`
	CreatedAt    string  `json:"created_at"`
	Clicks       int     `json:"clicks"`
	LastAccessed *string `json:"last_accessed"`
	ExpiresAt    *string `json:"expires_at"`
	ArchivedAt   string  `json:"archived_at"`
}

// ArchiveHandler lists the caller's archived links, newest first.
func (h *Handlers) ArchiveHandler(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	archived, err := h.linkService.GetArchivedLinks(*userID)
	if err != nil {
		log.Printf("Error listing archived links for user %d: %v", *userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]ArchivedLinkResponse, 0, len(archived))
	for _, link := range archived {
		response = append(response, ArchivedLinkResponse{
			OriginalURL:  link.OriginalURL,
			ShortCode:    link.ShortCode,
			CreatedAt:    link.CreatedAt.Format(time.RFC3339),
			Clicks:       link.Clicks,
			LastAccessed: formatOptionalTime(link.LastAccessed),
			ExpiresAt:    formatOptionalTime(link.ExpiresAt),
			ArchivedAt:   link.ArchivedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, response)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
