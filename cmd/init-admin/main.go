package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bedrock_usage/internal/auth"
	"bedrock_usage/internal/config"
	"bedrock_usage/internal/models"
	"bedrock_usage/internal/storage"
)

func main() {
	fmt.Println("Bedrock Usage Dashboard - Bootstrap Admin Initialization")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.Database.URL == "" {
		fmt.Fprintf(os.Stderr, "ERROR: DATABASE_URL must be set\n")
		os.Exit(1)
	}

	email := os.Getenv("ADMIN_BOOTSTRAP_EMAIL")
	password := os.Getenv("ADMIN_BOOTSTRAP_PASSWORD")

	if email == "" || password == "" {
		fmt.Fprintf(os.Stderr, "ERROR: ADMIN_BOOTSTRAP_EMAIL and ADMIN_BOOTSTRAP_PASSWORD must be set\n")
		os.Exit(1)
	}

	if !isValidEmail(email) {
		fmt.Fprintf(os.Stderr, "ERROR: Invalid email format: %s\n", email)
		os.Exit(1)
	}

	if len(password) < 8 {
		fmt.Fprintf(os.Stderr, "ERROR: Password must be at least 8 characters long\n")
		os.Exit(1)
	}

	fmt.Println("Connecting to database...")
	db, err := storage.NewDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := db.NewAdminUserRepository()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("Checking for existing admin users...")
	existingUsers, err := repo.List(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to check existing users: %v\n", err)
		os.Exit(1)
	}

	if len(existingUsers) > 0 {
		fmt.Printf("INFO: Found %d existing admin user(s). Bootstrap not needed.\n", len(existingUsers))
		for _, user := range existingUsers {
			status := "enabled"
			if !user.Enabled {
				status = "disabled"
			}
			fmt.Printf("  - %s (%s) - Roles: %v\n", user.Email, status, user.Roles)
		}
		fmt.Println("Exiting successfully (no action taken)")
		os.Exit(0)
	}

	existingUser, err := repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrAdminUserNotFound) {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to check for existing user: %v\n", err)
		os.Exit(1)
	}
	if existingUser != nil {
		fmt.Printf("INFO: Admin user with email %s already exists\n", email)
		fmt.Println("Exiting successfully (no action taken)")
		os.Exit(0)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Creating bootstrap admin user: %s\n", email)
	adminUser := &models.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        pq.StringArray{"admin"},
		Enabled:      true,
	}

	if err := repo.Create(ctx, adminUser); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to create admin user: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SUCCESS: Bootstrap admin user created")
	fmt.Printf("Email: %s\n", adminUser.Email)
	fmt.Printf("ID: %s\n", adminUser.ID)
	fmt.Printf("Roles: %v\n", adminUser.Roles)
	fmt.Println("\nYou can now log in with these credentials.")
	fmt.Println("Remove ADMIN_BOOTSTRAP_EMAIL and ADMIN_BOOTSTRAP_PASSWORD from the environment afterwards.")
}

// isValidEmail performs a basic email validation
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Count(email, "@") == 1
}
