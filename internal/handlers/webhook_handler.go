package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fees-service/internal/models"
	"fees-service/internal/services"
	"fees-service/internal/telemetry"
)

// WebhookHandler receives gateway callbacks. It always acknowledges with 200:
// the gateway retries non-2xx responses, and reconciliation is idempotent, so
// there is never a reason to make it retry.
type WebhookHandler struct {
	Reconcile *services.ReconcileService
	Gateway   *services.CashfreeService
	Logs      services.CallbackLogStore
}

func NewWebhookHandler(reconcile *services.ReconcileService, gateway *services.CashfreeService, logs services.CallbackLogStore) *WebhookHandler {
	return &WebhookHandler{Reconcile: reconcile, Gateway: gateway, Logs: logs}
}

type cashfreeEvent struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		OrderID string `json:"order_id"`
	} `json:"data"`
}

func (e *cashfreeEvent) orderID() string {
	if e.Data.Order.OrderID != "" {
		return e.Data.Order.OrderID
	}
	return e.Data.OrderID
}

// Cashfree handles POST callbacks from the gateway.
func (h *WebhookHandler) Cashfree(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	timestamp := c.GetHeader("x-webhook-timestamp")
	signature := c.GetHeader("x-webhook-signature")
	if !h.Gateway.VerifySignature(timestamp, rawBody, signature) {
		// Mismatches are logged inside VerifySignature. Drop the event but
		// still acknowledge, so a misconfigured secret cannot build up a
		// retry storm. The pending sweep covers any real event dropped here.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var event cashfreeEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		telemetry.L().Warn("webhook body is not valid json", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	orderID := event.orderID()
	h.logCallback(event.Type, orderID, rawBody)

	switch event.Type {
	case "PAYMENT_SUCCESS_WEBHOOK", "PAYMENT_USER_CONFIRMED", "PAYMENT_FAILED_WEBHOOK":
		result, err := h.Reconcile.Reconcile(c.Request.Context(), orderID)
		if err != nil {
			// The sweep or the client poll will settle this order later.
			telemetry.L().Warn("webhook reconcile failed",
				zap.String("order_id", orderID),
				zap.String("event", event.Type),
				zap.Error(err),
			)
		} else {
			telemetry.L().Info("webhook reconciled",
				zap.String("order_id", orderID),
				zap.String("event", event.Type),
				zap.String("status", result.Status),
			)
		}
	default:
		telemetry.L().Info("webhook event ignored",
			zap.String("event", event.Type),
			zap.String("order_id", orderID),
		)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) logCallback(eventType, orderID string, rawBody []byte) {
	if h.Logs == nil {
		return
	}
	h.Logs.Save(&models.CallbackLog{
		Request:     string(rawBody),
		Response:    `{"received":true}`,
		Status:      http.StatusOK,
		RequestType: eventType,
		OrderID:     orderID,
	})
}
