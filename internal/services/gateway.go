package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Gateway payment attempt statuses as reported by the provider.
const (
	AttemptSuccess = "SUCCESS"
	AttemptFailed  = "FAILED"
)

// CustomerInfo identifies the paying student to the gateway.
type CustomerInfo struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// OrderSession is the gateway's handle for a freshly opened order.
type OrderSession struct {
	PaymentSessionID string
	GatewayOrderID   string
}

// PaymentAttempt is one payment try recorded by the gateway for an order.
// Method is the provider's structured payment-method descriptor; it is nil
// when the provider omitted it.
type PaymentAttempt struct {
	Status    string
	PaymentID string
	Method    map[string]interface{}
}

// Gateway is the adapter to the external payment provider. CreateOrder is not
// idempotent; FetchPayments is read-only and safe to retry.
type Gateway interface {
	CreateOrder(ctx context.Context, orderID string, amount float64, customer CustomerInfo) (*OrderSession, error)
	FetchPayments(ctx context.Context, orderID string) ([]PaymentAttempt, error)
}

const methodLabelMax = 40

// PaymentMethodLabel flattens a structured payment-method descriptor into the
// short label stored on the transaction and printed on receipts.
func PaymentMethodLabel(method map[string]interface{}) string {
	if len(method) == 0 {
		return "Online"
	}

	if card, ok := method["card"].(map[string]interface{}); ok {
		network, _ := card["card_network"].(string)
		cardType, _ := card["card_type"].(string)
		if network != "" && cardType != "" {
			return truncateLabel(fmt.Sprintf("%s_%s", network, cardType))
		}
		return "card"
	}
	if _, ok := method["upi"]; ok {
		return "UPI"
	}
	if _, ok := method["netbanking"]; ok {
		return "Net Banking"
	}
	if _, ok := method["app"]; ok {
		return "Wallet"
	}
	if _, ok := method["wallet"]; ok {
		return "Wallet"
	}

	// Unknown descriptor: fall back to its first key so the receipt still
	// shows something meaningful.
	keys := make([]string, 0, len(method))
	for k := range method {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return truncateLabel(strings.TrimSpace(keys[0]))
}

func truncateLabel(s string) string {
	if s == "" {
		return "Online"
	}
	if len(s) > methodLabelMax {
		return s[:methodLabelMax]
	}
	return s
}
