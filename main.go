package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"fees-service/internal/config"
	"fees-service/internal/database"
	"fees-service/internal/handlers"
	"fees-service/internal/services"
	"fees-service/internal/storage"
	"fees-service/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := telemetry.InitLogger("fees-service"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	database.Connect(cfg)
	database.Migrate()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisURL})
	defer asynqClient.Close()

	transactions := storage.NewTransactionStore(database.DB)
	fees := storage.NewFeeStore(database.DB)
	students := storage.NewStudentStore(database.DB)
	callbackLogs := storage.NewCallbackLogStore(database.DB)

	gateway := services.NewCashfreeService(cfg.CashfreeBaseURL, cfg.CashfreeClientID, cfg.CashfreeSecret, cfg.WebhookSecret)
	renderer := services.NewRendererClient(cfg.RendererURL, cfg.ReceiptDir)
	mailer := services.NewMailerClient(cfg.MailerURL)
	identity := services.NewIdentityClient(cfg.IdentityURL)

	receiptService := services.NewReceiptService(transactions, students, fees, renderer, mailer, asynqClient)
	reconcileService := services.NewReconcileService(transactions, fees, gateway, receiptService)
	paymentService := services.NewPaymentService(transactions, fees, students, gateway)
	feeService := services.NewFeeService(fees, students, transactions)

	paymentHandler := handlers.NewPaymentHandler(paymentService, reconcileService)
	webhookHandler := handlers.NewWebhookHandler(reconcileService, gateway, callbackLogs)
	feeHandler := handlers.NewFeeHandler(feeService)
	receiptHandler := handlers.NewReceiptHandler(receiptService)

	reconcileService.StartScheduler()

	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/api/webhook/cashfree", webhookHandler.Cashfree)

	authed := r.Group("/api", handlers.AuthMiddleware(identity))
	{
		authed.POST("/payment/create-order", paymentHandler.CreateOrder)
		authed.POST("/payment/verify", paymentHandler.Verify)
		authed.GET("/fees/details", feeHandler.Details)
		authed.GET("/receipt/:orderId", receiptHandler.Details)
		authed.GET("/receipt/download/:orderId", receiptHandler.Download)
	}

	log.Printf("Starting fees service on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
