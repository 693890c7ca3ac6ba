package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/models"
)

// AdminHandler manages console account endpoints.
type AdminHandler struct {
	access *access.Service
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(acc *access.Service) *AdminHandler {
	return &AdminHandler{access: acc}
}

// formatAdmin builds the admin response payload. Password hashes and TOTP
// secrets never leave the server.
func formatAdmin(a *models.Admin) gin.H {
	return gin.H{
		"id":          a.ID,
		"email":       a.Email,
		"role":        a.Role,
		"mfa_enabled": strings.TrimSpace(a.TOTPSecret) != "",
		"created_at":  a.CreatedAt,
	}
}

// createAdminRequest defines the request body for admin creation.
type createAdminRequest struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Create registers a console account.
func (h *AdminHandler) Create(c *gin.Context) {
	var body createAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	admin, errCreate := h.access.AddAdmin(c.Request.Context(), sessionFrom(c), body.Email, body.Role, body.Password)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, formatAdmin(admin))
}

// List returns all console accounts.
func (h *AdminHandler) List(c *gin.Context) {
	rows, errList := h.access.List(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatAdmin(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"admins": out})
}

// updateAdminRequest defines the request body for role changes.
type updateAdminRequest struct {
	Role string `json:"role"`
}

// Update changes an account's role.
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body updateAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	admin, errUpdate := h.access.SetRole(c.Request.Context(), sessionFrom(c), id, body.Role)
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, formatAdmin(admin))
}

// Delete removes a console account.
func (h *AdminHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if errDelete := h.access.RemoveAdmin(c.Request.Context(), sessionFrom(c), id); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
