package storage

import (
	"errors"

	"gorm.io/gorm"

	"fees-service/internal/models"
	"fees-service/internal/services"
)

// StudentStore is the GORM-backed implementation of services.StudentStore.
type StudentStore struct {
	db *gorm.DB
}

func NewStudentStore(db *gorm.DB) *StudentStore {
	return &StudentStore{db: db}
}

func (s *StudentStore) FindByID(id uint) (*models.Student, error) {
	var student models.Student
	err := s.db.First(&student, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// Create is used by the seeder and by tests.
func (s *StudentStore) Create(student *models.Student) error {
	return s.db.Create(student).Error
}
