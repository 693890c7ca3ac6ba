package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/order"
)

// OrderHandler manages the purchase lifecycle endpoints.
type OrderHandler struct {
	orders *order.Service
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// formatOrder builds the order response payload.
func formatOrder(o *models.Order) gin.H {
	return gin.H{
		"id":              o.ID,
		"user_email":      o.UserEmail,
		"plan_name":       o.PlanName,
		"amount":          o.Amount,
		"discount_amount": o.DiscountAmount,
		"coupon_code":     o.CouponCode,
		"transaction_id":  o.TransactionID,
		"payment_method":  o.PaymentMethod,
		"validity_days":   o.ValidityDays,
		"status":          o.Status,
		"order_date":      o.OrderDate,
	}
}

// createOrderRequest defines the request body for placing an order.
type createOrderRequest struct {
	PlanName      string  `json:"plan_name"`
	Amount        float64 `json:"amount"`
	CouponCode    string  `json:"coupon_code"`
	TransactionID string  `json:"transaction_id"`
	PaymentMethod string  `json:"payment_method"`
	ValidityDays  int     `json:"validity_days"`
}

// Create places a pending order for the signed-in account. The purchaser
// email always comes from the session, never the request body.
func (h *OrderHandler) Create(c *gin.Context) {
	var body createOrderRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess := sessionFrom(c)
	record, errCreate := h.orders.Create(c.Request.Context(), sess, order.CreateParams{
		UserEmail:     sess.Email,
		PlanName:      body.PlanName,
		Amount:        body.Amount,
		CouponCode:    body.CouponCode,
		TransactionID: body.TransactionID,
		PaymentMethod: body.PaymentMethod,
		ValidityDays:  body.ValidityDays,
	})
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, formatOrder(record))
}

// List returns orders. Console sessions see every order with optional
// ?status= and ?user_email= filters; customer sessions see only their own.
func (h *OrderHandler) List(c *gin.Context) {
	sess := sessionFrom(c)
	if sess.IsAdmin {
		if userEmail := c.Query("user_email"); userEmail != "" {
			rows, errList := h.orders.ListForUser(c.Request.Context(), userEmail)
			if errList != nil {
				respondError(c, errList)
				return
			}
			c.JSON(http.StatusOK, gin.H{"orders": formatOrders(rows)})
			return
		}
		rows, errList := h.orders.List(c.Request.Context(), c.Query("status"))
		if errList != nil {
			respondError(c, errList)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": formatOrders(rows)})
		return
	}
	rows, errList := h.orders.ListForUser(c.Request.Context(), sess.Email)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": formatOrders(rows)})
}

// formatOrders maps a slice of orders to response payloads.
func formatOrders(rows []models.Order) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatOrder(&rows[i]))
	}
	return out
}

// Get returns one order. Customers can only read their own orders.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	record, errGet := h.orders.Get(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	sess := sessionFrom(c)
	if !sess.IsAdmin && record.UserEmail != sess.Email {
		respondError(c, apperr.NotFound("order %d not found", id))
		return
	}
	c.JSON(http.StatusOK, formatOrder(record))
}

// updateOrderStatusRequest defines the request body for status transitions.
type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves a pending order into approved or rejected.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body updateOrderStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var record *models.Order
	var errUpdate error
	switch body.Status {
	case models.OrderStatusApproved:
		record, errUpdate = h.orders.Approve(c.Request.Context(), sessionFrom(c), id)
	case models.OrderStatusRejected:
		record, errUpdate = h.orders.Reject(c.Request.Context(), sessionFrom(c), id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be approved or rejected"})
		return
	}
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, formatOrder(record))
}

// Delete removes an order record, releasing its slot when approved.
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if errDelete := h.orders.Delete(c.Request.Context(), sessionFrom(c), id); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
