package services

import (
	"context"
	"fmt"
	"net/http"

	"fees-service/internal/models"
	"fees-service/pkg/common"
)

// RendererClient asks the document service to produce the receipt artifact.
// It implements the Renderer interface.
type RendererClient struct {
	BaseURL   string
	OutputDir string
}

func NewRendererClient(baseURL, outputDir string) *RendererClient {
	return &RendererClient{BaseURL: baseURL, OutputDir: outputDir}
}

type renderResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (c *RendererClient) Render(ctx context.Context, trx *models.Transaction, student *models.Student, fee *models.Fee) (string, error) {
	payload := map[string]interface{}{
		"outputDir": c.OutputDir,
		"transaction": map[string]interface{}{
			"orderId":       trx.OrderID,
			"amount":        trx.Amount,
			"paymentId":     trx.PaymentID,
			"paymentMethod": trx.PaymentMethod,
			"createdAt":     trx.CreatedAt,
		},
		"student": map[string]interface{}{
			"name":       student.Name,
			"rollNumber": student.RollNumber,
			"class":      student.Class,
			"section":    student.Section,
		},
		"fee": map[string]interface{}{
			"components":  fee.Components,
			"totalAmount": fee.TotalAmount,
			"paidAmount":  fee.PaidAmount,
		},
	}

	var resp renderResponse
	status, err := common.Post(ctx, fmt.Sprintf("%s/api/render", c.BaseURL), payload, nil, &resp)
	if err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	if status >= http.StatusBadRequest || !resp.Success {
		return "", fmt.Errorf("render receipt: status %d: %s", status, resp.Message)
	}
	if resp.Path == "" {
		return "", fmt.Errorf("render receipt: no path in response")
	}
	return resp.Path, nil
}
