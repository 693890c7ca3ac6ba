package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/registry"
)

// PlatformHandler manages cookie platform inventory endpoints.
type PlatformHandler struct {
	registry *registry.Service
}

// NewPlatformHandler constructs a PlatformHandler.
func NewPlatformHandler(reg *registry.Service) *PlatformHandler {
	return &PlatformHandler{registry: reg}
}

// formatPlatform builds the platform response payload. The secret payload is
// included: this surface is only reachable with a console token.
func formatPlatform(p *models.Platform) gin.H {
	return gin.H{
		"id":             p.ID,
		"name":           p.Name,
		"secret_payload": p.SecretPayload,
		"total_slots":    p.TotalSlots,
		"used_slots":     p.UsedSlots,
		"free_slots":     p.FreeSlots(),
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}
}

// createPlatformRequest defines the request body for platform creation.
type createPlatformRequest struct {
	Name          string `json:"name"`
	SecretPayload string `json:"secret_payload"`
	TotalSlots    int    `json:"total_slots"`
}

// Create registers a new platform.
func (h *PlatformHandler) Create(c *gin.Context) {
	var body createPlatformRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	platform, errCreate := h.registry.Create(c.Request.Context(), sessionFrom(c), body.Name, body.SecretPayload, body.TotalSlots)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, formatPlatform(platform))
}

// List returns platforms with an optional name filter.
func (h *PlatformHandler) List(c *gin.Context) {
	rows, errList := h.registry.List(c.Request.Context(), c.Query("name"))
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatPlatform(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"platforms": out})
}

// Get returns a single platform by ID.
func (h *PlatformHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	platform, errGet := h.registry.Get(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, formatPlatform(platform))
}

// updatePlatformRequest defines the request body for platform updates.
type updatePlatformRequest struct {
	Name          *string `json:"name"`
	SecretPayload *string `json:"secret_payload"`
	TotalSlots    *int    `json:"total_slots"`
}

// Update applies a partial platform update and returns the stored entity.
func (h *PlatformHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body updatePlatformRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	platform, errUpdate := h.registry.Update(c.Request.Context(), sessionFrom(c), id, registry.Patch{
		Name:          body.Name,
		SecretPayload: body.SecretPayload,
		TotalSlots:    body.TotalSlots,
	})
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, formatPlatform(platform))
}

// Delete removes a platform with no consumed slots.
func (h *PlatformHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if errDelete := h.registry.Delete(c.Request.Context(), sessionFrom(c), id); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
