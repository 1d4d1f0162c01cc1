package main

import (
	"log"
	"os"
	"strings"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/model"
	"saas-billing-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds the first admin account from ADMIN_EMAIL and ADMIN_PASSWORD. Running
// it again for an existing address promotes that account instead.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	password := os.Getenv("ADMIN_PASSWORD")
	if dsn == "" || email == "" || len(password) < 8 {
		color.Red("Error: DB_CONNECTION_STRING, ADMIN_EMAIL and ADMIN_PASSWORD (min 8 chars) are required")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		if err := db.Model(&existing).Updates(map[string]interface{}{
			"role":    string(entity.UserRoleAdmin),
			"enabled": true,
		}).Error; err != nil {
			color.Red("Failed to promote %s: %v", email, err)
			os.Exit(1)
		}
		color.Yellow("User %s already exists, promoted to admin", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		color.Red("Failed to hash password: %v", err)
		os.Exit(1)
	}

	admin := model.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Admin",
		Role:         string(entity.UserRoleAdmin),
		Enabled:      true,
	}
	if err := db.Create(&admin).Error; err != nil {
		color.Red("Failed to create admin: %v", err)
		os.Exit(1)
	}
	color.Green("✅ Created admin %s (id %d)", admin.Email, admin.Id)
}
