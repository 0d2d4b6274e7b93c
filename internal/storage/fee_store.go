package storage

import (
	"errors"

	"gorm.io/gorm"

	"fees-service/internal/models"
	"fees-service/internal/services"
)

// FeeStore is the GORM-backed implementation of services.FeeStore.
type FeeStore struct {
	db *gorm.DB
}

func NewFeeStore(db *gorm.DB) *FeeStore {
	return &FeeStore{db: db}
}

func (s *FeeStore) Create(fee *models.Fee) error {
	return s.db.Create(fee).Error
}

func (s *FeeStore) FindByID(id uint) (*models.Fee, error) {
	var fee models.Fee
	err := s.db.Preload("Components").First(&fee, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (s *FeeStore) FindByStudentYear(studentID uint, academicYear string) (*models.Fee, error) {
	var fee models.Fee
	err := s.db.Preload("Components").
		Where("student_id = ? AND academic_year = ?", studentID, academicYear).
		First(&fee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// UpdateBalance writes the recomputed balance as absolute values. Callers
// never increment here.
func (s *FeeStore) UpdateBalance(id uint, balance models.Balance) error {
	return s.db.Model(&models.Fee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"paid_amount": balance.PaidAmount,
			"due_amount":  balance.DueAmount,
			"status":      balance.Status,
		}).Error
}
