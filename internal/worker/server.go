package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fees-service/internal/services"
	"fees-service/internal/telemetry"
)

// Worker consumes the side-effect queue. Handlers return errors to let asynq
// retry with backoff; payloads that cannot even be decoded are dropped.
type Worker struct {
	Receipts *services.ReceiptService
}

func NewWorker(receipts *services.ReceiptService) *Worker {
	return &Worker{Receipts: receipts}
}

func (w *Worker) HandleReceiptGenerate(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal receipt task: %w: %v", asynq.SkipRetry, err)
	}

	if _, err := w.Receipts.EnsureReceipt(ctx, payload.OrderID); err != nil {
		telemetry.L().Warn("receipt generation failed, will retry",
			zap.String("order_id", payload.OrderID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (w *Worker) HandleReceiptEmail(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal receipt email task: %w: %v", asynq.SkipRetry, err)
	}

	if err := w.Receipts.EnsureNotification(ctx, payload.OrderID); err != nil {
		telemetry.L().Warn("receipt email failed, will retry",
			zap.String("order_id", payload.OrderID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// StartWorker runs the asynq server until the process is stopped.
func StartWorker(redisAddr string, w *Worker) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReceiptGenerate, w.HandleReceiptGenerate)
	mux.HandleFunc(TypeReceiptEmail, w.HandleReceiptEmail)

	telemetry.L().Info("worker started", zap.String("redis", redisAddr))
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run worker server: %v", err)
	}
}
