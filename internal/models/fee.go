package models

import (
	"time"
)

// Fee statuses, fully derived from paidAmount vs totalAmount.
const (
	FeePending = "pending"
	FeePartial = "partial"
	FeePaid    = "paid"
)

type Fee struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID    uint           `gorm:"column:student_id;not null;uniqueIndex:idx_fee_student_year" json:"student_id"`
	AcademicYear string         `gorm:"column:academic_year;size:20;not null;uniqueIndex:idx_fee_student_year" json:"academic_year"`
	Components   []FeeComponent `gorm:"foreignKey:FeeID" json:"components"`
	TotalAmount  float64        `gorm:"column:total_amount;type:decimal(20,2);not null" json:"total_amount"`
	PaidAmount   float64        `gorm:"column:paid_amount;type:decimal(20,2);default:0.00" json:"paid_amount"`
	DueAmount    float64        `gorm:"column:due_amount;type:decimal(20,2);default:0.00" json:"due_amount"`
	Status       string         `gorm:"column:status;size:20;default:pending" json:"status"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Fee) TableName() string {
	return "fees"
}

type FeeComponent struct {
	ID     uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	FeeID  uint    `gorm:"column:fee_id;not null;index" json:"fee_id"`
	Name   string  `gorm:"column:name;size:100;not null" json:"name"`
	Amount float64 `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
}

func (FeeComponent) TableName() string {
	return "fee_components"
}

// Balance is the derived money state of a fee.
type Balance struct {
	PaidAmount float64
	DueAmount  float64
	Status     string
}

// ComputeBalance derives the paid/due amounts and status of a fee from the set
// of its successful transactions. paidAmount is always recomputed from scratch
// and clamped to totalAmount, never incremented, so re-running it after a
// duplicate confirmation yields the same result.
func ComputeBalance(totalAmount float64, successful []Transaction) Balance {
	var paid float64
	for _, t := range successful {
		paid += t.Amount
	}
	if paid > totalAmount {
		paid = totalAmount
	}

	status := FeePartial
	switch {
	case paid == 0:
		status = FeePending
	case paid >= totalAmount:
		status = FeePaid
	}

	return Balance{
		PaidAmount: paid,
		DueAmount:  totalAmount - paid,
		Status:     status,
	}
}
