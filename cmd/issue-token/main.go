package main

import (
	"flag"
	"fmt"
	"log"

	"hrms-backend/shared/config"
	"hrms-backend/shared/database"
	"hrms-backend/shared/database/models"
	"hrms-backend/shared/utils/auth"
)

// issue-token prints a signed access token for an existing user, for local development
func main() {
	email := flag.String("email", "", "email of the user to issue a token for")
	flag.Parse()

	if *email == "" {
		log.Fatal("❌ -email is required")
	}

	config.LoadConfig()
	cfg := config.GetConfig()

	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	var user models.User
	if err := database.GetDB().Where("email = ?", *email).First(&user).Error; err != nil {
		log.Fatalf("❌ User %s not found: %v", *email, err)
	}
	if !user.IsActive() {
		log.Fatalf("❌ User %s is not active", *email)
	}

	token, err := auth.NewTokenIssuerFromConfig(cfg).GenerateJWT(user.ID, user.Email, user.OrganizationID, user.UserType)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	log.Printf("✅ Token for %s (%s, expires in %s)", user.Email, user.UserType, cfg.GetJWTExpiry())
	fmt.Println(token)
}
