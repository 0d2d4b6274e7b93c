package services

import (
	"context"
	"sync"
	"time"

	"fees-service/internal/models"
)

// In-memory store fakes. They imitate the conditional-update semantics of the
// real stores under a mutex, which is what the engine's convergence properties
// rest on.

type fakeTransactionStore struct {
	mu     sync.Mutex
	rows   map[string]*models.Transaction
	nextID uint
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{rows: make(map[string]*models.Transaction)}
}

func (s *fakeTransactionStore) Create(trx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	trx.ID = s.nextID
	if trx.CreatedAt.IsZero() {
		trx.CreatedAt = time.Now()
	}
	cp := *trx
	s.rows[trx.OrderID] = &cp
	return nil
}

func (s *fakeTransactionStore) FindByOrderID(orderID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *fakeTransactionStore) AllSuccessForFee(feeID uint) ([]models.Transaction, error) {
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

func (s *fakeTransactionStore) LastSuccessForStudent(studentID uint) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *models.Transaction
	for _, row := range s.rows {
		if row.StudentID != studentID || row.Status != models.TxSuccess {
			continue
		}
		if last == nil || row.CreatedAt.After(last.CreatedAt) {
			last = row
		}
	}
	if last == nil {
		return nil, ErrNotFound
	}
	cp := *last
	return &cp, nil
}

func (s *fakeTransactionStore) PendingOlderThan(cutoff time.Time, limit int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, row := range s.rows {
		if row.Status == models.TxPending && row.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *fakeTransactionStore) SetGatewaySession(orderID, paymentSessionID, gatewayOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[orderID]; ok {
		row.PaymentSessionID = paymentSessionID
		row.GatewayOrderID = gatewayOrderID
	}
	return nil
}

func (s *fakeTransactionStore) TransitionIfPending(orderID, newStatus string, paymentID, paymentMethod *string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	if row.Status == models.TxPending {
		row.Status = newStatus
		if paymentID != nil {
			row.PaymentID = paymentID
		}
		if paymentMethod != nil {
			row.PaymentMethod = paymentMethod
		}
		row.UpdatedAt = time.Now()
	}
	cp := *row
	return &cp, nil
}

func (s *fakeTransactionStore) ClaimReceipt(orderID string) (bool, error) {
	return s.claim(orderID, func(r *models.Transaction) *bool { return &r.ReceiptGenerated })
}

func (s *fakeTransactionStore) ReleaseReceipt(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[orderID]; ok {
		row.ReceiptGenerated = false
	}
	return nil
}

func (s *fakeTransactionStore) SetReceiptPath(orderID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[orderID]; ok {
		row.ReceiptPath = path
	}
	return nil
}

func (s *fakeTransactionStore) ClaimNotification(orderID string) (bool, error) {
	return s.claim(orderID, func(r *models.Transaction) *bool { return &r.ReceiptEmailSent })
}

func (s *fakeTransactionStore) ReleaseNotification(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[orderID]; ok {
		row.ReceiptEmailSent = false
	}
	return nil
}

func (s *fakeTransactionStore) claim(orderID string, flag func(*models.Transaction) *bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[orderID]
	if !ok {
		return false, ErrNotFound
	}
	f := flag(row)
	if *f {
		return false, nil
	}
	*f = true
	return true, nil
}

type fakeFeeStore struct {
	mu   sync.Mutex
	rows map[uint]*models.Fee
}

func newFakeFeeStore() *fakeFeeStore {
	return &fakeFeeStore{rows: make(map[uint]*models.Fee)}
}

func (s *fakeFeeStore) Create(fee *models.Fee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *fee
	s.rows[fee.ID] = &cp
	return nil
}

func (s *fakeFeeStore) FindByID(id uint) (*models.Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *fakeFeeStore) FindByStudentYear(studentID uint, academicYear string) (*models.Fee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.StudentID == studentID && row.AcademicYear == academicYear {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeFeeStore) UpdateBalance(id uint, balance models.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	row.PaidAmount = balance.PaidAmount
	row.DueAmount = balance.DueAmount
	row.Status = balance.Status
	return nil
}

type fakeStudentStore struct {
	rows map[uint]*models.Student
}

func newFakeStudentStore(students ...*models.Student) *fakeStudentStore {
	s := &fakeStudentStore{rows: make(map[uint]*models.Student)}
	for _, st := range students {
		s.rows[st.ID] = st
	}
	return s
}

func (s *fakeStudentStore) FindByID(id uint) (*models.Student, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

// fakeGateway serves a scripted attempt list. Errors queued in fetchErrs are
// consumed first, one per FetchPayments call.
type fakeGateway struct {
	mu         sync.Mutex
	attempts   []PaymentAttempt
	fetchErrs  []error
	createErr  error
	session    *OrderSession
	fetchCalls int
}

func (g *fakeGateway) CreateOrder(ctx context.Context, orderID string, amount float64, customer CustomerInfo) (*OrderSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	if g.session != nil {
		return g.session, nil
	}
	return &OrderSession{PaymentSessionID: "session_" + orderID, GatewayOrderID: orderID}, nil
}

func (g *fakeGateway) FetchPayments(ctx context.Context, orderID string) ([]PaymentAttempt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchCalls++
	if len(g.fetchErrs) > 0 {
		err := g.fetchErrs[0]
		g.fetchErrs = g.fetchErrs[1:]
		return nil, err
	}
	return g.attempts, nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls map[string]int
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{calls: make(map[string]int)}
}

func (d *fakeDispatcher) Dispatch(trx *models.Transaction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[trx.OrderID]++
}

func (d *fakeDispatcher) count(orderID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[orderID]
}
