package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"fees-service/internal/models"
	"fees-service/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Compact in-memory stores for handler tests. The conditional-update
// semantics match the real storage layer.

type stubTxStore struct {
	mu   sync.Mutex
	rows map[string]*models.Transaction
}

func newStubTxStore(trxs ...*models.Transaction) *stubTxStore {
	s := &stubTxStore{rows: make(map[string]*models.Transaction)}
	for _, trx := range trxs {
		cp := *trx
		s.rows[trx.OrderID] = &cp
	}
	return s
}

func (s *stubTxStore) Create(trx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *trx
	s.rows[trx.OrderID] = &cp
	return nil
}

func (s *stubTxStore) FindByOrderID(orderID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[orderID]
	if !ok {
		return nil, services.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *stubTxStore) AllSuccessForFee(feeID uint) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, row := range s.rows {
		if row.FeeID == feeID && row.Status == models.TxSuccess {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubTxStore) LastSuccessForStudent(studentID uint) (*models.Transaction, error) {
	return nil, services.ErrNotFound
}

func (s *stubTxStore) PendingOlderThan(cutoff time.Time, limit int) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubTxStore) SetGatewaySession(orderID, paymentSessionID, gatewayOrderID string) error {
	return nil
}

func (s *stubTxStore) TransitionIfPending(orderID, newStatus string, paymentID, paymentMethod *string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[orderID]
	if !ok {
		return nil, services.ErrNotFound
	}
	if row.Status == models.TxPending {
		row.Status = newStatus
		if paymentID != nil {
			row.PaymentID = paymentID
		}
		if paymentMethod != nil {
			row.PaymentMethod = paymentMethod
		}
	}
	cp := *row
	return &cp, nil
}

func (s *stubTxStore) ClaimReceipt(orderID string) (bool, error)     { return false, nil }
func (s *stubTxStore) ReleaseReceipt(orderID string) error           { return nil }
func (s *stubTxStore) SetReceiptPath(orderID, path string) error     { return nil }
func (s *stubTxStore) ClaimNotification(orderID string) (bool, error) { return false, nil }
func (s *stubTxStore) ReleaseNotification(orderID string) error      { return nil }

type stubFeeStore struct {
	mu   sync.Mutex
	rows map[uint]*models.Fee
}

func newStubFeeStore(fees ...*models.Fee) *stubFeeStore {
	s := &stubFeeStore{rows: make(map[uint]*models.Fee)}
	for _, fee := range fees {
		cp := *fee
		s.rows[fee.ID] = &cp
	}
	return s
}

func (s *stubFeeStore) Create(fee *models.Fee) error { return nil }

func (s *stubFeeStore) FindByID(id uint) (*models.Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *stubFeeStore) FindByStudentYear(studentID uint, academicYear string) (*models.Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.StudentID == studentID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, services.ErrNotFound
}

func (s *stubFeeStore) UpdateBalance(id uint, balance models.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		row.PaidAmount = balance.PaidAmount
		row.DueAmount = balance.DueAmount
		row.Status = balance.Status
	}
	return nil
}

type stubGateway struct {
	attempts []services.PaymentAttempt
	fetchErr error
}

func (g *stubGateway) CreateOrder(ctx context.Context, orderID string, amount float64, customer services.CustomerInfo) (*services.OrderSession, error) {
	return &services.OrderSession{PaymentSessionID: "session_" + orderID, GatewayOrderID: orderID}, nil
}

func (g *stubGateway) FetchPayments(ctx context.Context, orderID string) ([]services.PaymentAttempt, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return g.attempts, nil
}

type stubLogStore struct {
	mu      sync.Mutex
	entries []*models.CallbackLog
}

func (s *stubLogStore) Save(entry *models.CallbackLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

type stubPrincipalProvider struct {
	students map[string]uint
}

func (p *stubPrincipalProvider) StudentFromToken(ctx context.Context, token string) (uint, error) {
	if id, ok := p.students[token]; ok {
		return id, nil
	}
	return 0, services.ErrUnauthenticated
}
