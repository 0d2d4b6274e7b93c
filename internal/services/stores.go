package services

import (
	"time"

	"fees-service/internal/models"
)

// TransactionStore persists payment attempts. Transactions are append-mostly:
// they are created pending, transitioned once by the reconciliation engine,
// and never deleted.
type TransactionStore interface {
	Create(trx *models.Transaction) error
	FindByOrderID(orderID string) (*models.Transaction, error)
	AllSuccessForFee(feeID uint) ([]models.Transaction, error)
	LastSuccessForStudent(studentID uint) (*models.Transaction, error)
	PendingOlderThan(cutoff time.Time, limit int) ([]models.Transaction, error)

	// SetGatewaySession records the gateway handles issued when the order
	// was opened.
	SetGatewaySession(orderID, paymentSessionID, gatewayOrderID string) error

	// TransitionIfPending applies the terminal status and the optional
	// payment fields only when the stored status is still pending, as one
	// conditional update. It returns the stored record either way, so a
	// caller that lost the race observes the winner's terminal state.
	TransitionIfPending(orderID, newStatus string, paymentID, paymentMethod *string) (*models.Transaction, error)

	// ClaimReceipt / ClaimNotification atomically flip the one-shot flag
	// from false to true and report whether this caller won the flip. The
	// Release variants undo a claim whose side effect failed so a retry can
	// run it again.
	ClaimReceipt(orderID string) (bool, error)
	ReleaseReceipt(orderID string) error
	SetReceiptPath(orderID, path string) error
	ClaimNotification(orderID string) (bool, error)
	ReleaseNotification(orderID string) error
}

// FeeStore persists the per-student-per-year balance aggregate. Only the
// reconciliation engine writes the balance fields, and always with absolute
// recomputed values.
type FeeStore interface {
	Create(fee *models.Fee) error
	FindByID(id uint) (*models.Fee, error)
	FindByStudentYear(studentID uint, academicYear string) (*models.Fee, error)
	UpdateBalance(id uint, balance models.Balance) error
}

// StudentStore reads student records owned by the admin service.
type StudentStore interface {
	FindByID(id uint) (*models.Student, error)
}

// CallbackLogStore records raw gateway callbacks for audit.
type CallbackLogStore interface {
	Save(entry *models.CallbackLog)
}
