package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fees-service/internal/services"
)

// FeeHandler serves the student's fee dashboard data.
type FeeHandler struct {
	Fees *services.FeeService
}

func NewFeeHandler(fees *services.FeeService) *FeeHandler {
	return &FeeHandler{Fees: fees}
}

// Details returns the fee record, its components and the most recent
// successful payment for the authenticated student.
func (h *FeeHandler) Details(c *gin.Context) {
	details, err := h.Fees.Details(StudentID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if !details.HasFee {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"hasFee":  false,
			"message": "No fee record found for the current academic year",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"hasFee":      true,
		"fee":         details.Fee,
		"lastPayment": details.LastPayment,
	})
}
