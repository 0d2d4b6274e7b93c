package config

import "os"

type Config struct {
	Port              string
	RedisURL          string
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	CashfreeBaseURL   string
	CashfreeClientID  string
	CashfreeSecret    string
	WebhookSecret     string
	IdentityURL       string
	MailerURL         string
	RendererURL       string
	ReceiptDir        string
}

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
	}

	cashfreeBase := os.Getenv("CASHFREE_BASE_URL")
	if cashfreeBase == "" {
		cashfreeBase = "https://sandbox.cashfree.com"
	}

	receiptDir := os.Getenv("RECEIPT_DIR")
	if receiptDir == "" {
		receiptDir = "./receipts"
	}

	return &Config{
		Port:             port,
		RedisURL:         redisURL,
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBHost:           os.Getenv("DB_HOST"),
		DBPort:           os.Getenv("DB_PORT"),
		DBName:           os.Getenv("DB_NAME"),
		CashfreeBaseURL:  cashfreeBase,
		CashfreeClientID: os.Getenv("CASHFREE_CLIENT_ID"),
		CashfreeSecret:   os.Getenv("CASHFREE_CLIENT_SECRET"),
		WebhookSecret:    os.Getenv("CASHFREE_WEBHOOK_SECRET"),
		IdentityURL:      os.Getenv("IDENTITY_SERVICE_URL"),
		MailerURL:        os.Getenv("MAILER_SERVICE_URL"),
		RendererURL:      os.Getenv("RENDERER_SERVICE_URL"),
		ReceiptDir:       receiptDir,
	}
}
