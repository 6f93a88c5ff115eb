package main

import (
	"log"

	"hrms-backend/shared/config"
	"hrms-backend/shared/database"
)

func main() {
	log.Println("🗑️ Starting database reset...")

	config.LoadConfig()

	if err := database.InitDatabase(); err != nil {
		log.Fatal("❌ Database connection failed:", err)
	}
	defer database.CloseDatabase()

	log.Println("🗑️ Dropping all tables...")

	if err := database.DropAll(database.GetDB()); err != nil {
		log.Fatalf("❌ Database reset failed: %v", err)
	}

	log.Println("✅ Database reset completed - all tables dropped!")
	log.Println("💡 Run 'go run ./cmd/seed' to recreate tables and seed data")
}
