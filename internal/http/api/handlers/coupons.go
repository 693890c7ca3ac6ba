package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cookiedeck/cookiedeck/internal/coupon"
	"github.com/cookiedeck/cookiedeck/internal/models"
)

// CouponHandler manages discount code endpoints.
type CouponHandler struct {
	coupons *coupon.Service
}

// NewCouponHandler constructs a CouponHandler.
func NewCouponHandler(coupons *coupon.Service) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

// formatCoupon builds the coupon response payload.
func formatCoupon(cp *models.Coupon) gin.H {
	return gin.H{
		"id":                cp.ID,
		"code":              cp.Code,
		"discount_value":    cp.DiscountValue,
		"subscription_name": cp.SubscriptionName,
		"created_at":        cp.CreatedAt,
	}
}

// createCouponRequest defines the request body for coupon creation.
type createCouponRequest struct {
	Code             string  `json:"code"`
	DiscountValue    float64 `json:"discount_value"`
	SubscriptionName string  `json:"subscription_name"`
}

// Create registers a coupon scoped to one plan.
func (h *CouponHandler) Create(c *gin.Context) {
	var body createCouponRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cp, errCreate := h.coupons.Create(c.Request.Context(), sessionFrom(c), body.Code, body.DiscountValue, body.SubscriptionName)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, formatCoupon(cp))
}

// List returns all coupons.
func (h *CouponHandler) List(c *gin.Context) {
	rows, errList := h.coupons.List(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatCoupon(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"coupons": out})
}

// Delete removes a coupon by id.
func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if errDelete := h.coupons.Delete(c.Request.Context(), sessionFrom(c), id); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// validateCouponRequest defines the request body for coupon validation.
type validateCouponRequest struct {
	Code             string `json:"code"`
	SubscriptionName string `json:"subscription_name"`
}

// Validate checks a code against a plan and returns the discount on success.
func (h *CouponHandler) Validate(c *gin.Context) {
	var body validateCouponRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cp, errValidate := h.coupons.Validate(c.Request.Context(), body.Code, body.SubscriptionName)
	if errValidate != nil {
		respondError(c, errValidate)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":          true,
		"code":           cp.Code,
		"discount_value": cp.DiscountValue,
	})
}
