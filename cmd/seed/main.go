package main

import (
	"flag"
	"log"

	"hrms-backend/shared/config"
	"hrms-backend/shared/database"
)

func main() {
	orgName := flag.String("org-name", "", "also create this organization with its system roles")
	orgSlug := flag.String("org-slug", "", "slug of the organization created with -org-name")
	flag.Parse()

	log.Println("🌱 Starting database seeding...")

	// Load configuration
	config.LoadConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Catalog, plus demo organization and users when SEED_DEMO_DATA is set
	if err := database.SeedDatabase(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	if *orgName != "" {
		if *orgSlug == "" {
			log.Fatal("❌ -org-slug is required with -org-name")
		}
		org, err := database.SeedOrganization(database.GetDB(), *orgName, *orgSlug)
		if err != nil {
			log.Fatalf("Failed to create organization: %v", err)
		}
		created, err := database.SeedSystemRoles(database.GetDB(), org.ID)
		if err != nil {
			log.Fatalf("Failed to seed system roles: %v", err)
		}
		log.Printf("✅ Organization %s (%s) ready, %d system roles created", org.Slug, org.ID, created)
	}

	log.Println("✅ Database seeding completed successfully!")
}
