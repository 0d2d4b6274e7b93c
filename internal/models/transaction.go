package models

import (
	"time"
)

// Transaction statuses. Transitions are one-directional: a transaction leaves
// "pending" exactly once and never returns to it.
const (
	TxPending   = "pending"
	TxSuccess   = "success"
	TxFailed    = "failed"
	TxCancelled = "cancelled"
)

type Transaction struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID          string    `gorm:"column:order_id;size:64;not null;uniqueIndex" json:"order_id"`
	StudentID        uint      `gorm:"column:student_id;not null;index" json:"student_id"`
	FeeID            uint      `gorm:"column:fee_id;not null;index:idx_trx_fee_status" json:"fee_id"`
	Amount           float64   `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Currency         string    `gorm:"column:currency;size:10;default:INR" json:"currency"`
	PaymentSessionID string    `gorm:"column:payment_session_id;size:255" json:"payment_session_id"`
	GatewayOrderID   string    `gorm:"column:gateway_order_id;size:255" json:"gateway_order_id"`
	Status           string    `gorm:"column:status;size:20;default:pending;index:idx_trx_fee_status" json:"status"`
	PaymentID        *string   `gorm:"column:payment_id;size:255" json:"payment_id"`
	PaymentMethod    *string   `gorm:"column:payment_method;size:100" json:"payment_method"`
	ReceiptGenerated bool      `gorm:"column:receipt_generated;default:false" json:"receipt_generated"`
	ReceiptPath      string    `gorm:"column:receipt_path;size:255" json:"receipt_path"`
	ReceiptEmailSent bool      `gorm:"column:receipt_email_sent;default:false" json:"receipt_email_sent"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Terminal reports whether the transaction has left the pending state.
func (t *Transaction) Terminal() bool {
	return t.Status != TxPending
}
