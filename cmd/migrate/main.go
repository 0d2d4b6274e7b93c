package main

import (
	"log"

	"github.com/joho/godotenv"

	"fees-service/internal/config"
	"fees-service/internal/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	database.Connect(cfg)
	database.Migrate()

	log.Println("Migration completed")
}
