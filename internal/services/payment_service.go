package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fees-service/internal/models"
	"fees-service/internal/telemetry"
	"fees-service/pkg/common"
)

// PaymentService opens payment orders against a student's outstanding fee.
type PaymentService struct {
	Transactions TransactionStore
	Fees         FeeStore
	Students     StudentStore
	Gateway      Gateway
}

func NewPaymentService(transactions TransactionStore, fees FeeStore, students StudentStore, gateway Gateway) *PaymentService {
	return &PaymentService{
		Transactions: transactions,
		Fees:         fees,
		Students:     students,
		Gateway:      gateway,
	}
}

// CreateOrderResult carries what the checkout page needs to launch the
// gateway's hosted payment session.
type CreateOrderResult struct {
	OrderID          string  `json:"orderId"`
	PaymentSessionID string  `json:"paymentSessionId"`
	Amount           float64 `json:"amount"`
}

// CurrentAcademicYear returns the billing period label for now, e.g. "2026-2027".
func CurrentAcademicYear() string {
	year := time.Now().Year()
	return fmt.Sprintf("%d-%d", year, year+1)
}

// CreateOrder validates the amount against the caller's active fee, records a
// pending transaction and opens a gateway order for it.
func (s *PaymentService) CreateOrder(ctx context.Context, studentID uint, amount float64) (*CreateOrderResult, error) {
	if amount <= 0 {
		return nil, &ValidationError{Message: "Valid amount is required"}
	}

	student, err := s.Students.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	fee, err := s.Fees.FindByStudentYear(studentID, CurrentAcademicYear())
	if err != nil {
		return nil, err
	}

	if amount > fee.DueAmount {
		return nil, &ValidationError{
			Message: fmt.Sprintf("Amount cannot exceed due amount of %.2f", fee.DueAmount),
		}
	}

	trx := &models.Transaction{
		OrderID:   common.GenerateOrderID(),
		StudentID: studentID,
		FeeID:     fee.ID,
		Amount:    amount,
		Currency:  "INR",
		Status:    models.TxPending,
	}
	if err := s.Transactions.Create(trx); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	session, err := s.Gateway.CreateOrder(ctx, trx.OrderID, amount, CustomerInfo{
		ID:    student.RollNumber,
		Name:  student.Name,
		Email: student.Email,
		Phone: student.Phone,
	})
	if err != nil {
		// The order never reached the gateway, so no confirmation can ever
		// arrive for it. Close the attempt out rather than leaving it for
		// the pending sweep.
		if _, terr := s.Transactions.TransitionIfPending(trx.OrderID, models.TxFailed, nil, nil); terr != nil {
			telemetry.L().Error("failed to mark dead order as failed",
				zap.String("order_id", trx.OrderID),
				zap.Error(terr),
			)
		}
		return nil, err
	}

	if err := s.Transactions.SetGatewaySession(trx.OrderID, session.PaymentSessionID, session.GatewayOrderID); err != nil {
		telemetry.L().Error("failed to store gateway session",
			zap.String("order_id", trx.OrderID),
			zap.Error(err),
		)
	}

	telemetry.L().Info("payment order opened",
		zap.String("order_id", trx.OrderID),
		zap.Uint("student_id", studentID),
		zap.Float64("amount", amount),
	)

	return &CreateOrderResult{
		OrderID:          trx.OrderID,
		PaymentSessionID: session.PaymentSessionID,
		Amount:           amount,
	}, nil
}
