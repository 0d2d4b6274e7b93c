package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fees-service/internal/models"
	"fees-service/internal/telemetry"
)

// Task types, kept in sync with internal/worker (copied to avoid a cycle).
const (
	TypeReceiptGenerate = "receipt:generate"
	TypeReceiptEmail    = "receipt:email"
)

type ReceiptTaskPayload struct {
	OrderID string `json:"orderId"`
}

// Renderer produces the payment artifact for a confirmed transaction and
// returns where it was stored. Rendering happens in an external collaborator.
type Renderer interface {
	Render(ctx context.Context, trx *models.Transaction, student *models.Student, fee *models.Fee) (string, error)
}

// SendReceiptRequest is the notification sent after a confirmed payment.
type SendReceiptRequest struct {
	To         string
	Name       string
	OrderID    string
	Amount     float64
	PaidAt     time.Time
	Attachment string
}

// Mailer delivers the payment notification through an external collaborator.
type Mailer interface {
	SendReceipt(ctx context.Context, req SendReceiptRequest) error
}

// ReceiptService owns the two one-shot side effects of a confirmed payment:
// the receipt artifact and the notification email. Each is guarded by an
// atomic flag claim in the store, so at most one caller ever performs it no
// matter how many reconcile runs overlap.
type ReceiptService struct {
	Transactions TransactionStore
	Students     StudentStore
	Fees         FeeStore
	Renderer     Renderer
	Mailer       Mailer
	Client       *asynq.Client
}

func NewReceiptService(transactions TransactionStore, students StudentStore, fees FeeStore, renderer Renderer, mailer Mailer, client *asynq.Client) *ReceiptService {
	return &ReceiptService{
		Transactions: transactions,
		Students:     students,
		Fees:         fees,
		Renderer:     renderer,
		Mailer:       mailer,
		Client:       client,
	}
}

// Dispatch enqueues both side-effect tasks for a confirmed transaction.
// Best-effort by contract: enqueue failures are logged and swallowed, and a
// duplicate task id just means an earlier reconcile run got here first.
func (s *ReceiptService) Dispatch(trx *models.Transaction) {
	if s.Client == nil {
		return
	}

	payload, err := json.Marshal(ReceiptTaskPayload{OrderID: trx.OrderID})
	if err != nil {
		telemetry.L().Error("failed to marshal receipt task", zap.Error(err))
		return
	}

	s.enqueue(TypeReceiptGenerate, payload, fmt.Sprintf("receipt:%s", trx.OrderID))
	s.enqueue(TypeReceiptEmail, payload, fmt.Sprintf("receipt-email:%s", trx.OrderID))
}

func (s *ReceiptService) enqueue(taskType string, payload []byte, taskID string) {
	task := asynq.NewTask(taskType, payload)
	_, err := s.Client.Enqueue(task, asynq.TaskID(taskID), asynq.MaxRetry(5))
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		telemetry.L().Error("failed to enqueue side-effect task",
			zap.String("task", taskType),
			zap.String("task_id", taskID),
			zap.Error(err),
		)
	}
}

// EnsureReceipt returns the artifact path for a successful transaction,
// generating it first if no run has done so yet. The receipt flag is claimed
// before rendering and released again if rendering fails, so a retry can
// claim it back; a concurrent caller that loses the claim while the winner is
// still rendering gets a transient error.
func (s *ReceiptService) EnsureReceipt(ctx context.Context, orderID string) (string, error) {
	trx, err := s.Transactions.FindByOrderID(orderID)
	if err != nil {
		return "", err
	}
	if trx.Status != models.TxSuccess {
		return "", ErrNotFound
	}
	if trx.ReceiptGenerated && trx.ReceiptPath != "" {
		return trx.ReceiptPath, nil
	}

	claimed, err := s.Transactions.ClaimReceipt(orderID)
	if err != nil {
		return "", &PersistenceError{Err: err}
	}
	if !claimed {
		current, err := s.Transactions.FindByOrderID(orderID)
		if err != nil {
			return "", err
		}
		if current.ReceiptPath != "" {
			return current.ReceiptPath, nil
		}
		return "", fmt.Errorf("receipt for order %s is still being generated", orderID)
	}

	path, err := s.render(ctx, trx)
	if err != nil {
		s.releaseReceipt(orderID)
		return "", err
	}

	// The claim must not outlive a failed path write, or every later call
	// would wait forever on a receipt nobody is generating.
	if err := s.Transactions.SetReceiptPath(orderID, path); err != nil {
		s.releaseReceipt(orderID)
		return "", &PersistenceError{Err: err}
	}

	telemetry.L().Info("receipt generated",
		zap.String("order_id", orderID),
		zap.String("path", path),
	)
	return path, nil
}

func (s *ReceiptService) render(ctx context.Context, trx *models.Transaction) (string, error) {
	student, err := s.Students.FindByID(trx.StudentID)
	if err != nil {
		return "", err
	}
	fee, err := s.Fees.FindByID(trx.FeeID)
	if err != nil {
		return "", err
	}
	return s.Renderer.Render(ctx, trx, student, fee)
}

// EnsureNotification sends the payment notification exactly once. The email
// carries the receipt, so the artifact is generated first when missing.
func (s *ReceiptService) EnsureNotification(ctx context.Context, orderID string) error {
	trx, err := s.Transactions.FindByOrderID(orderID)
	if err != nil {
		return err
	}
	if trx.Status != models.TxSuccess {
		return ErrNotFound
	}
	if trx.ReceiptEmailSent {
		return nil
	}

	path := trx.ReceiptPath
	if path == "" {
		path, err = s.EnsureReceipt(ctx, orderID)
		if err != nil {
			return err
		}
	}

	claimed, err := s.Transactions.ClaimNotification(orderID)
	if err != nil {
		return &PersistenceError{Err: err}
	}
	if !claimed {
		return nil
	}

	student, err := s.Students.FindByID(trx.StudentID)
	if err != nil {
		s.releaseNotification(orderID)
		return err
	}

	err = s.Mailer.SendReceipt(ctx, SendReceiptRequest{
		To:         student.Email,
		Name:       student.Name,
		OrderID:    trx.OrderID,
		Amount:     trx.Amount,
		PaidAt:     trx.UpdatedAt,
		Attachment: path,
	})
	if err != nil {
		s.releaseNotification(orderID)
		return err
	}

	telemetry.L().Info("receipt notification sent",
		zap.String("order_id", orderID),
		zap.String("to", student.Email),
	)
	return nil
}

func (s *ReceiptService) releaseReceipt(orderID string) {
	if err := s.Transactions.ReleaseReceipt(orderID); err != nil {
		telemetry.L().Error("failed to release receipt claim",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

func (s *ReceiptService) releaseNotification(orderID string) {
	if err := s.Transactions.ReleaseNotification(orderID); err != nil {
		telemetry.L().Error("failed to release notification claim",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

// ReceiptDetails is the receipt view returned to the student, mirroring what
// is printed on the artifact.
type ReceiptDetails struct {
	Receipt struct {
		OrderID       string    `json:"orderId"`
		Amount        float64   `json:"amount"`
		PaymentID     *string   `json:"paymentId"`
		PaymentMethod *string   `json:"paymentMethod"`
		CreatedAt     time.Time `json:"createdAt"`
		DownloadPath  string    `json:"receiptPath"`
	} `json:"receipt"`
	Student struct {
		Name       string `json:"name"`
		RollNumber string `json:"rollNumber"`
		Class      string `json:"class"`
		Section    string `json:"section"`
	} `json:"student"`
	Fee struct {
		Components  []models.FeeComponent `json:"components"`
		TotalAmount float64               `json:"totalAmount"`
		PaidAmount  float64               `json:"paidAmount"`
	} `json:"fee"`
}

// Details builds the receipt view for a student's successful order,
// generating the artifact and sending the notification on demand. The
// notification is best-effort here, matching the reconcile contract.
func (s *ReceiptService) Details(ctx context.Context, orderID string, studentID uint) (*ReceiptDetails, error) {
	trx, err := s.ownedSuccess(orderID, studentID)
	if err != nil {
		return nil, err
	}

	if _, err := s.EnsureReceipt(ctx, orderID); err != nil {
		return nil, err
	}
	if err := s.EnsureNotification(ctx, orderID); err != nil {
		telemetry.L().Warn("receipt notification failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}

	student, err := s.Students.FindByID(trx.StudentID)
	if err != nil {
		return nil, err
	}
	fee, err := s.Fees.FindByID(trx.FeeID)
	if err != nil {
		return nil, err
	}

	details := &ReceiptDetails{}
	details.Receipt.OrderID = trx.OrderID
	details.Receipt.Amount = trx.Amount
	details.Receipt.PaymentID = trx.PaymentID
	details.Receipt.PaymentMethod = trx.PaymentMethod
	details.Receipt.CreatedAt = trx.CreatedAt
	details.Receipt.DownloadPath = fmt.Sprintf("/api/receipt/download/%s", orderID)
	details.Student.Name = student.Name
	details.Student.RollNumber = student.RollNumber
	details.Student.Class = student.Class
	details.Student.Section = student.Section
	details.Fee.Components = fee.Components
	details.Fee.TotalAmount = fee.TotalAmount
	details.Fee.PaidAmount = fee.PaidAmount
	return details, nil
}

// File returns the artifact path for download, generating it on demand.
func (s *ReceiptService) File(ctx context.Context, orderID string, studentID uint) (string, error) {
	if _, err := s.ownedSuccess(orderID, studentID); err != nil {
		return "", err
	}
	return s.EnsureReceipt(ctx, orderID)
}

func (s *ReceiptService) ownedSuccess(orderID string, studentID uint) (*models.Transaction, error) {
	trx, err := s.Transactions.FindByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if trx.StudentID != studentID || trx.Status != models.TxSuccess {
		return nil, ErrNotFound
	}
	return trx, nil
}
