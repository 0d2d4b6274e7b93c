package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fees-service/internal/models"
	"fees-service/internal/telemetry"
)

// SideEffectDispatcher fires the post-payment side effects (receipt artifact,
// notification email) for a successful transaction. Implementations must be
// best-effort: they log failures and never return them.
type SideEffectDispatcher interface {
	Dispatch(trx *models.Transaction)
}

// ReconcileResult is the outcome of one reconcile pass. Pending is a normal
// outcome, not an error: the caller is expected to poll again.
type ReconcileResult struct {
	Status      string
	Transaction *models.Transaction
}

// ReconcileService reads the authoritative gateway status for an order and
// applies it to internal state exactly once in effect. It is the only
// component the webhook, the client poll and the manual re-verify call into,
// and the only writer of transaction statuses and fee balances.
type ReconcileService struct {
	Transactions TransactionStore
	Fees         FeeStore
	Gateway      Gateway
	Dispatcher   SideEffectDispatcher
}

func NewReconcileService(transactions TransactionStore, fees FeeStore, gateway Gateway, dispatcher SideEffectDispatcher) *ReconcileService {
	return &ReconcileService{
		Transactions: transactions,
		Fees:         fees,
		Gateway:      gateway,
		Dispatcher:   dispatcher,
	}
}

// Reconcile drives one order to its converged state.
//
// Concurrent and repeated calls are safe by construction rather than by
// locking: the status transition is a conditional update that fires at most
// once, the fee balance is recomputed from the full set of successful
// transactions instead of incremented, and each side effect is claimed
// through an atomic flag flip.
func (s *ReconcileService) Reconcile(ctx context.Context, orderID string) (*ReconcileResult, error) {
	trx, err := s.Transactions.FindByOrderID(orderID)
	if err != nil {
		return nil, err
	}

	// Already confirmed: repair any partial earlier run (balance not yet
	// recomputed, side effects not yet dispatched) without touching the
	// gateway or the transaction row again.
	if trx.Status == models.TxSuccess {
		if err := s.recomputeFee(trx.FeeID); err != nil {
			return nil, err
		}
		s.dispatch(trx)
		return &ReconcileResult{Status: models.TxSuccess, Transaction: trx}, nil
	}

	attempts, err := s.Gateway.FetchPayments(ctx, orderID)
	if err != nil {
		// Nothing has been mutated; the caller may retry.
		return nil, err
	}

	if len(attempts) == 0 {
		return &ReconcileResult{Status: models.TxPending, Transaction: trx}, nil
	}

	// The gateway returns attempts newest first.
	latest := attempts[0]

	switch latest.Status {
	case AttemptSuccess:
		return s.confirmSuccess(trx, latest)
	case AttemptFailed:
		updated, err := s.Transactions.TransitionIfPending(orderID, models.TxFailed, nil, nil)
		if err != nil {
			return nil, &PersistenceError{Err: err}
		}
		return s.resultFor(updated)
	default:
		return &ReconcileResult{Status: models.TxPending, Transaction: trx}, nil
	}
}

func (s *ReconcileService) confirmSuccess(trx *models.Transaction, attempt PaymentAttempt) (*ReconcileResult, error) {
	label := PaymentMethodLabel(attempt.Method)
	updated, err := s.Transactions.TransitionIfPending(trx.OrderID, models.TxSuccess, &attempt.PaymentID, &label)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	// Recompute even when the transition was a no-op: a concurrent run may
	// have transitioned the row but died before updating the ledger.
	if err := s.recomputeFee(updated.FeeID); err != nil {
		return nil, err
	}

	if updated.Status == models.TxSuccess {
		s.dispatch(updated)
	}
	return s.resultFor(updated)
}

// resultFor maps the persisted transaction status onto the reconcile outcome.
// The stored row is the source of truth: if a concurrent run won the
// transition, its terminal state is what we report.
func (s *ReconcileService) resultFor(trx *models.Transaction) (*ReconcileResult, error) {
	status := trx.Status
	if status == models.TxCancelled {
		status = models.TxFailed
	}
	return &ReconcileResult{Status: status, Transaction: trx}, nil
}

// recomputeFee re-derives the fee balance from the set of successful
// transactions. Pure recompute, never an increment: re-entrant confirmations
// of the same order cannot double-count.
func (s *ReconcileService) recomputeFee(feeID uint) error {
	fee, err := s.Fees.FindByID(feeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return &PersistenceError{Err: err}
	}

	successful, err := s.Transactions.AllSuccessForFee(feeID)
	if err != nil {
		return &PersistenceError{Err: err}
	}

	balance := models.ComputeBalance(fee.TotalAmount, successful)
	if err := s.Fees.UpdateBalance(feeID, balance); err != nil {
		return &PersistenceError{Err: err}
	}

	telemetry.L().Info("fee balance recomputed",
		zap.Uint("fee_id", feeID),
		zap.Float64("paid", balance.PaidAmount),
		zap.Float64("due", balance.DueAmount),
		zap.String("status", balance.Status),
	)
	return nil
}

func (s *ReconcileService) dispatch(trx *models.Transaction) {
	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(trx)
	}
}

// ReconcileForStudent is the authenticated entry point used by the client
// poll and the manual re-verify: the order must belong to the caller.
func (s *ReconcileService) ReconcileForStudent(ctx context.Context, orderID string, studentID uint) (*ReconcileResult, error) {
	trx, err := s.Transactions.FindByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if trx.StudentID != studentID {
		return nil, ErrNotFound
	}
	return s.Reconcile(ctx, orderID)
}

// ReconcileWithRetry retries gateway failures a bounded number of times with
// a fixed delay. Only GatewayError is retried; every other outcome, pending
// included, returns immediately.
func (s *ReconcileService) ReconcileWithRetry(ctx context.Context, orderID string, attempts int, delay time.Duration) (*ReconcileResult, error) {
	var result *ReconcileResult
	var err error
	for i := 0; i < attempts; i++ {
		result, err = s.Reconcile(ctx, orderID)
		if err == nil || !IsRetryable(err) {
			return result, err
		}
		if i < attempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return result, err
}

const (
	sweepMinAge   = 10 * time.Minute
	sweepBatch    = 100
	sweepAttempts = 3
	sweepDelay    = 3 * time.Second
)

// StartScheduler starts the cron sweep that reverifies stale pending
// transactions, covering orders whose webhook and client poll both got lost.
func (s *ReconcileService) StartScheduler() {
	c := cron.New()
	_, err := c.AddFunc("*/5 * * * *", func() {
		s.SweepPending(context.Background())
	})
	if err != nil {
		telemetry.L().Error("failed to schedule pending sweep", zap.Error(err))
		return
	}
	c.Start()
	telemetry.L().Info("reconcile scheduler started (every 5 minutes)")
}

// SweepPending reconciles every pending transaction old enough that its
// client-side poll has given up.
func (s *ReconcileService) SweepPending(ctx context.Context) {
	cutoff := time.Now().Add(-sweepMinAge)
	pending, err := s.Transactions.PendingOlderThan(cutoff, sweepBatch)
	if err != nil {
		telemetry.L().Error("pending sweep query failed", zap.Error(err))
		return
	}

	for _, trx := range pending {
		result, err := s.ReconcileWithRetry(ctx, trx.OrderID, sweepAttempts, sweepDelay)
		if err != nil {
			telemetry.L().Warn("pending sweep reconcile failed",
				zap.String("order_id", trx.OrderID),
				zap.Error(err),
			)
			continue
		}
		if result.Status != models.TxPending {
			telemetry.L().Info("pending sweep settled order",
				zap.String("order_id", trx.OrderID),
				zap.String("status", result.Status),
			)
		}
	}
}
