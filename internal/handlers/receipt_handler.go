package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fees-service/internal/services"
)

// ReceiptHandler serves the receipt view and the artifact download.
type ReceiptHandler struct {
	Receipts *services.ReceiptService
}

func NewReceiptHandler(receipts *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{Receipts: receipts}
}

// Details returns the receipt payload for one of the student's successful
// orders, generating the artifact on demand.
func (h *ReceiptHandler) Details(c *gin.Context) {
	orderID := c.Param("orderId")
	details, err := h.Receipts.Details(c.Request.Context(), orderID, StudentID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": details})
}

// Download streams the receipt artifact as an attachment.
func (h *ReceiptHandler) Download(c *gin.Context) {
	orderID := c.Param("orderId")
	path, err := h.Receipts.File(c.Request.Context(), orderID, StudentID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.FileAttachment(path, fmt.Sprintf("receipt-%s.pdf", orderID))
}
