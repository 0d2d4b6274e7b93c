package main

import (
	"log"

	"github.com/joho/godotenv"

	"fees-service/internal/config"
	"fees-service/internal/database"
	"fees-service/internal/services"
	"fees-service/internal/storage"
	"fees-service/internal/telemetry"
	"fees-service/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := telemetry.InitLogger("fees-worker"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	database.Connect(cfg)

	transactions := storage.NewTransactionStore(database.DB)
	fees := storage.NewFeeStore(database.DB)
	students := storage.NewStudentStore(database.DB)

	renderer := services.NewRendererClient(cfg.RendererURL, cfg.ReceiptDir)
	mailer := services.NewMailerClient(cfg.MailerURL)

	// The worker consumes tasks, it never enqueues, so no asynq client.
	receipts := services.NewReceiptService(transactions, students, fees, renderer, mailer, nil)

	worker.StartWorker(cfg.RedisURL, worker.NewWorker(receipts))
}
