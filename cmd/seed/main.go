package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/Baaaki/heritage-museum/internal/config"
	"github.com/Baaaki/heritage-museum/internal/database"
	"github.com/Baaaki/heritage-museum/internal/models"
	"github.com/Baaaki/heritage-museum/internal/repository"
	"github.com/Baaaki/heritage-museum/internal/utils"
)

// Seeds the first superadmin. Every later role change goes through the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	name := os.Getenv("SUPERADMIN_NAME")
	email := strings.ToLower(strings.TrimSpace(os.Getenv("SUPERADMIN_EMAIL")))
	password := os.Getenv("SUPERADMIN_PASSWORD")

	if name == "" || email == "" || password == "" {
		log.Fatal("Missing environment variables: SUPERADMIN_NAME, SUPERADMIN_EMAIL, SUPERADMIN_PASSWORD")
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)

	existing, err := userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if existing != nil {
		if existing.Role != models.RoleSuperAdmin {
			if _, err := userRepo.UpdateRole(ctx, existing.ID, models.RoleSuperAdmin); err != nil {
				log.Fatalf("Failed to promote user: %v", err)
			}
			log.Println("Existing user promoted to superadmin:", existing.Email)
			return
		}
		log.Println("Superadmin already exists:", existing.Email)
		return
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleSuperAdmin,
		Verified:     true,
	}
	if err := userRepo.CreateUser(ctx, admin); err != nil {
		log.Fatal("Failed to create superadmin:", err)
	}

	log.Println("Superadmin created successfully")
	log.Println("   Name:", admin.Name)
	log.Println("   Email:", admin.Email)
}
