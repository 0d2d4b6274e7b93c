package storage

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fees-service/internal/models"
	"fees-service/internal/telemetry"
)

// CallbackLogStore records raw gateway callbacks. Audit writes are
// best-effort: a failed insert is logged, never surfaced, so it can never
// break webhook acknowledgement.
type CallbackLogStore struct {
	db *gorm.DB
}

func NewCallbackLogStore(db *gorm.DB) *CallbackLogStore {
	return &CallbackLogStore{db: db}
}

func (s *CallbackLogStore) Save(entry *models.CallbackLog) {
	if err := s.db.Create(entry).Error; err != nil {
		telemetry.L().Error("failed to save callback log",
			zap.String("order_id", entry.OrderID),
			zap.Error(err),
		)
	}
}
