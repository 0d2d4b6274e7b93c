package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"fees-service/internal/telemetry"
	"fees-service/pkg/common"
)

const cashfreeAPIVersion = "2023-08-01"

// CashfreeService talks to the Cashfree payment gateway over its REST API.
// It implements the Gateway interface.
type CashfreeService struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
}

func NewCashfreeService(baseURL, clientID, clientSecret, webhookSecret string) *CashfreeService {
	return &CashfreeService{
		BaseURL:       baseURL,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		WebhookSecret: webhookSecret,
	}
}

func (s *CashfreeService) headers() map[string]string {
	return map[string]string{
		"x-client-id":     s.ClientID,
		"x-client-secret": s.ClientSecret,
		"x-api-version":   cashfreeAPIVersion,
	}
}

type cashfreeOrderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	Message          string `json:"message"`
}

// CreateOrder opens a new order with the gateway. Each call opens a fresh
// order; the gateway does not dedupe on our order id within a session.
func (s *CashfreeService) CreateOrder(ctx context.Context, orderID string, amount float64, customer CustomerInfo) (*OrderSession, error) {
	payload := map[string]interface{}{
		"order_id":       orderID,
		"order_amount":   amount,
		"order_currency": "INR",
		"customer_details": map[string]interface{}{
			"customer_id":    customer.ID,
			"customer_name":  customer.Name,
			"customer_email": customer.Email,
			"customer_phone": customer.Phone,
		},
	}

	var resp cashfreeOrderResponse
	status, err := common.Post(ctx, fmt.Sprintf("%s/pg/orders", s.BaseURL), payload, s.headers(), &resp)
	if err != nil {
		return nil, &GatewayError{Op: "create order", Err: err}
	}
	if status >= http.StatusBadRequest {
		return nil, &GatewayError{Op: "create order", Err: fmt.Errorf("status %d: %s", status, resp.Message)}
	}
	if resp.PaymentSessionID == "" {
		return nil, &GatewayError{Op: "create order", Err: fmt.Errorf("no payment session in response")}
	}

	return &OrderSession{
		PaymentSessionID: resp.PaymentSessionID,
		GatewayOrderID:   resp.OrderID,
	}, nil
}

type cashfreePayment struct {
	CfPaymentID   json.Number            `json:"cf_payment_id"`
	PaymentStatus string                 `json:"payment_status"`
	PaymentMethod map[string]interface{} `json:"payment_method"`
}

// FetchPayments returns the gateway's payment attempts for an order, newest
// first. It never mutates anything and is safe to call repeatedly.
func (s *CashfreeService) FetchPayments(ctx context.Context, orderID string) ([]PaymentAttempt, error) {
	var resp []cashfreePayment
	url := fmt.Sprintf("%s/pg/orders/%s/payments", s.BaseURL, orderID)
	status, err := common.Get(ctx, url, s.headers(), &resp)
	if err != nil {
		return nil, &GatewayError{Op: "fetch payments", Err: err}
	}
	if status >= http.StatusBadRequest {
		return nil, &GatewayError{Op: "fetch payments", Err: fmt.Errorf("status %d", status)}
	}

	attempts := make([]PaymentAttempt, 0, len(resp))
	for _, p := range resp {
		attempts = append(attempts, PaymentAttempt{
			Status:    p.PaymentStatus,
			PaymentID: p.CfPaymentID.String(),
			Method:    p.PaymentMethod,
		})
	}
	return attempts, nil
}

// VerifySignature checks the x-webhook-signature header Cashfree sends with
// every webhook: base64(HMAC-SHA256(timestamp + rawBody)). Verification is
// skipped when no webhook secret is configured.
func (s *CashfreeService) VerifySignature(timestamp string, rawBody []byte, signature string) bool {
	if s.WebhookSecret == "" {
		return true
	}

	mac := hmac.New(sha256.New, []byte(s.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		telemetry.L().Warn("webhook signature mismatch", zap.String("timestamp", timestamp))
		return false
	}
	return true
}
