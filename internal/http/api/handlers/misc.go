package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/models"
)

// MiscHandler serves the small display-oriented resources: quick links,
// categories, plans, and settings.
type MiscHandler struct {
	db *gorm.DB
}

// NewMiscHandler constructs a MiscHandler.
func NewMiscHandler(db *gorm.DB) *MiscHandler {
	return &MiscHandler{db: db}
}

// ListQuickLinks returns all dashboard quick links.
func (h *MiscHandler) ListQuickLinks(c *gin.Context) {
	var rows []models.QuickLink
	if errFind := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quick_links": rows})
}

// createQuickLinkRequest defines the request body for quick link creation.
type createQuickLinkRequest struct {
	Title string          `json:"title"`
	URL   string          `json:"url"`
	Meta  json.RawMessage `json:"meta"`
}

// CreateQuickLink adds a dashboard quick link.
func (h *MiscHandler) CreateQuickLink(c *gin.Context) {
	if errAuth := access.Authorize(sessionFrom(c)); errAuth != nil {
		respondError(c, errAuth)
		return
	}
	var body createQuickLinkRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	title := strings.TrimSpace(body.Title)
	url := strings.TrimSpace(body.URL)
	if title == "" || url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing title or url"})
		return
	}
	meta := datatypes.JSON("{}")
	if len(body.Meta) > 0 {
		meta = datatypes.JSON(body.Meta)
	}
	link := models.QuickLink{Title: title, URL: url, Meta: meta}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&link).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create quick link failed"})
		return
	}
	c.JSON(http.StatusCreated, link)
}

// DeleteQuickLink removes a quick link by id.
func (h *MiscHandler) DeleteQuickLink(c *gin.Context) {
	if errAuth := access.Authorize(sessionFrom(c)); errAuth != nil {
		respondError(c, errAuth)
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result := h.db.WithContext(c.Request.Context()).Delete(&models.QuickLink{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete quick link failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "quick link not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ListCategories returns all plan categories.
func (h *MiscHandler) ListCategories(c *gin.Context) {
	var rows []models.Category
	if errFind := h.db.WithContext(c.Request.Context()).Order("name ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": rows})
}

// createCategoryRequest defines the request body for category creation.
type createCategoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory adds a plan category.
func (h *MiscHandler) CreateCategory(c *gin.Context) {
	if errAuth := access.Authorize(sessionFrom(c)); errAuth != nil {
		respondError(c, errAuth)
		return
	}
	var body createCategoryRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	var existing models.Category
	errCheck := h.db.WithContext(c.Request.Context()).Where("name = ?", name).First(&existing).Error
	if errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "category already exists"})
		return
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	category := models.Category{Name: name}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&category).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create category failed"})
		return
	}
	c.JSON(http.StatusCreated, category)
}

// ListSubscriptions returns all sellable plans.
func (h *MiscHandler) ListSubscriptions(c *gin.Context) {
	var rows []models.Subscription
	if errFind := h.db.WithContext(c.Request.Context()).Order("name ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": rows})
}

// createSubscriptionRequest defines the request body for plan creation.
type createSubscriptionRequest struct {
	Name         string          `json:"name"`
	PlatformID   uint64          `json:"platform_id"`
	Price        float64         `json:"price"`
	ValidityDays int             `json:"validity_days"`
	Features     json.RawMessage `json:"features"`
}

// CreateSubscription adds a plan backed by an existing platform.
func (h *MiscHandler) CreateSubscription(c *gin.Context) {
	if errAuth := access.Authorize(sessionFrom(c)); errAuth != nil {
		respondError(c, errAuth)
		return
	}
	var body createSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	if body.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price cannot be negative"})
		return
	}
	if body.ValidityDays <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validity days must be positive"})
		return
	}

	var platform models.Platform
	errPlatform := h.db.WithContext(c.Request.Context()).First(&platform, body.PlatformID).Error
	if errPlatform != nil {
		if errors.Is(errPlatform, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var existing models.Subscription
	errCheck := h.db.WithContext(c.Request.Context()).Where("name = ?", name).First(&existing).Error
	if errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "plan already exists"})
		return
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	features := datatypes.JSON("[]")
	if len(body.Features) > 0 {
		features = datatypes.JSON(body.Features)
	}
	plan := models.Subscription{
		Name:         name,
		PlatformID:   platform.ID,
		Price:        body.Price,
		ValidityDays: body.ValidityDays,
		Features:     features,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&plan).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create plan failed"})
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// ListSettings returns all stored settings as a key/value object.
func (h *MiscHandler) ListSettings(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	c.JSON(http.StatusOK, gin.H{"settings": out})
}

// PutSetting upserts one setting under the :key path parameter. The body is
// stored verbatim as the JSON value.
func (h *MiscHandler) PutSetting(c *gin.Context) {
	if errAuth := access.Authorize(sessionFrom(c)); errAuth != nil {
		respondError(c, errAuth)
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}
	var value json.RawMessage
	if errBind := c.ShouldBindJSON(&value); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	setting := models.Setting{Key: key, Value: value}
	errSave := h.db.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
	if errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save setting failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}
