package main

import (
	"log"

	"github.com/joho/godotenv"

	"fees-service/internal/config"
	"fees-service/internal/database"
	"fees-service/internal/models"
	"fees-service/internal/services"
)

// Seeds a demo student with a fee record for the current academic year.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	database.Connect(cfg)
	database.Migrate()

	student := models.Student{
		Name:       "Aarav Sharma",
		RollNumber: "2026-A-042",
		Class:      "10",
		Section:    "A",
		Email:      "aarav.sharma@example.com",
		Phone:      "9876543210",
	}
	if err := database.DB.Where("roll_number = ?", student.RollNumber).FirstOrCreate(&student).Error; err != nil {
		log.Fatalf("Failed to seed student: %v", err)
	}

	fee := models.Fee{
		StudentID:    student.ID,
		AcademicYear: services.CurrentAcademicYear(),
		TotalAmount:  60000,
		PaidAmount:   0,
		DueAmount:    60000,
		Status:       models.FeePending,
		Components: []models.FeeComponent{
			{Name: "Tuition", Amount: 45000},
			{Name: "Transport", Amount: 9000},
			{Name: "Library", Amount: 3000},
			{Name: "Activities", Amount: 3000},
		},
	}
	if err := database.DB.Where("student_id = ? AND academic_year = ?", fee.StudentID, fee.AcademicYear).
		FirstOrCreate(&fee).Error; err != nil {
		log.Fatalf("Failed to seed fee: %v", err)
	}

	log.Printf("Seeded student %d with fee %d for %s", student.ID, fee.ID, fee.AcademicYear)
}
