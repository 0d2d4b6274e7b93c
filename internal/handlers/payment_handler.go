package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fees-service/internal/models"
	"fees-service/internal/services"
)

// PaymentHandler exposes order creation and the client-driven verify poll.
type PaymentHandler struct {
	Payments  *services.PaymentService
	Reconcile *services.ReconcileService
}

func NewPaymentHandler(payments *services.PaymentService, reconcile *services.ReconcileService) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Reconcile: reconcile}
}

type createOrderRequest struct {
	Amount float64 `json:"amount"`
}

// CreateOrder opens a payment order for the authenticated student.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	result, err := h.Payments.CreateOrder(c.Request.Context(), StudentID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

type verifyRequest struct {
	OrderID string `json:"orderId"`
}

// Verify reconciles an order on behalf of the polling client. A pending
// outcome is a normal response telling the client to poll again.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "orderId is required"})
		return
	}

	result, err := h.Reconcile.ReconcileForStudent(c.Request.Context(), req.OrderID, StudentID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	switch result.Status {
	case models.TxSuccess:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  models.TxSuccess,
			"message": "Payment verified successfully",
		})
	case models.TxFailed:
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"status":  models.TxFailed,
			"message": "Payment failed",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"status":  models.TxPending,
			"message": "Payment is still processing",
		})
	}
}

// respondError maps the service error taxonomy onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Message})
		return
	}
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Record not found"})
		return
	}
	if errors.Is(err, services.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return
	}

	var gerr *services.GatewayError
	if errors.As(err, &gerr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Payment gateway is unreachable, please try again",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
}
