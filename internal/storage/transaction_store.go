package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"fees-service/internal/models"
	"fees-service/internal/services"
)

// TransactionStore is the GORM-backed implementation of
// services.TransactionStore.
type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(trx *models.Transaction) error {
	return s.db.Create(trx).Error
}

func (s *TransactionStore) FindByOrderID(orderID string) (*models.Transaction, error) {
	var trx models.Transaction
	err := s.db.Where("order_id = ?", orderID).First(&trx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

func (s *TransactionStore) AllSuccessForFee(feeID uint) ([]models.Transaction, error) {
	var trxs []models.Transaction
	err := s.db.Where("fee_id = ? AND status = ?", feeID, models.TxSuccess).
		Order("created_at asc").
		Find(&trxs).Error
	return trxs, err
}

func (s *TransactionStore) LastSuccessForStudent(studentID uint) (*models.Transaction, error) {
	var trx models.Transaction
	err := s.db.Where("student_id = ? AND status = ?", studentID, models.TxSuccess).
		Order("created_at desc").
		First(&trx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

func (s *TransactionStore) PendingOlderThan(cutoff time.Time, limit int) ([]models.Transaction, error) {
	var trxs []models.Transaction
	err := s.db.Where("status = ? AND created_at < ?", models.TxPending, cutoff).
		Order("created_at asc").
		Limit(limit).
		Find(&trxs).Error
	return trxs, err
}

func (s *TransactionStore) SetGatewaySession(orderID, paymentSessionID, gatewayOrderID string) error {
	return s.db.Model(&models.Transaction{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_session_id": paymentSessionID,
			"gateway_order_id":   gatewayOrderID,
		}).Error
}

// TransitionIfPending is the single conditional update that makes terminal
// statuses stick: the WHERE clause only matches a row still pending, so of any
// number of concurrent callers exactly one changes the row. The stored record
// is re-read and returned either way.
func (s *TransactionStore) TransitionIfPending(orderID, newStatus string, paymentID, paymentMethod *string) (*models.Transaction, error) {
	updates := map[string]interface{}{"status": newStatus}
	if paymentID != nil {
		updates["payment_id"] = *paymentID
	}
	if paymentMethod != nil {
		updates["payment_method"] = *paymentMethod
	}

	err := s.db.Model(&models.Transaction{}).
		Where("order_id = ? AND status = ?", orderID, models.TxPending).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}

	return s.FindByOrderID(orderID)
}

// claimFlag flips a boolean column from false to true as a single conditional
// update. RowsAffected tells the caller whether it won.
func (s *TransactionStore) claimFlag(orderID, column string) (bool, error) {
	result := s.db.Model(&models.Transaction{}).
		Where("order_id = ? AND "+column+" = ?", orderID, false).
		Update(column, true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *TransactionStore) releaseFlag(orderID, column string) error {
	return s.db.Model(&models.Transaction{}).
		Where("order_id = ?", orderID).
		Update(column, false).Error
}

func (s *TransactionStore) ClaimReceipt(orderID string) (bool, error) {
	return s.claimFlag(orderID, "receipt_generated")
}

func (s *TransactionStore) ReleaseReceipt(orderID string) error {
	return s.releaseFlag(orderID, "receipt_generated")
}

func (s *TransactionStore) SetReceiptPath(orderID, path string) error {
	return s.db.Model(&models.Transaction{}).
		Where("order_id = ?", orderID).
		Update("receipt_path", path).Error
}

func (s *TransactionStore) ClaimNotification(orderID string) (bool, error) {
	return s.claimFlag(orderID, "receipt_email_sent")
}

func (s *TransactionStore) ReleaseNotification(orderID string) error {
	return s.releaseFlag(orderID, "receipt_email_sent")
}
