package services

import (
	"context"
	"fmt"
	"net/http"

	"fees-service/pkg/common"
)

// MailerClient sends payment notifications through the mail service.
// It implements the Mailer interface.
type MailerClient struct {
	BaseURL string
}

func NewMailerClient(baseURL string) *MailerClient {
	return &MailerClient{BaseURL: baseURL}
}

type mailerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *MailerClient) SendReceipt(ctx context.Context, req SendReceiptRequest) error {
	payload := map[string]interface{}{
		"to":         req.To,
		"name":       req.Name,
		"orderId":    req.OrderID,
		"amount":     req.Amount,
		"paidAt":     req.PaidAt,
		"attachment": req.Attachment,
	}

	var resp mailerResponse
	status, err := common.Post(ctx, fmt.Sprintf("%s/api/send", c.BaseURL), payload, nil, &resp)
	if err != nil {
		return fmt.Errorf("send receipt mail: %w", err)
	}
	if status >= http.StatusBadRequest || !resp.Success {
		return fmt.Errorf("send receipt mail: status %d: %s", status, resp.Message)
	}
	return nil
}
