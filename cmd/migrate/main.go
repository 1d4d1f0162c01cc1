package main

import (
	"log"
	"os"

	"saas-billing-be/internal/model"
	"saas-billing-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	tables := model.All()
	color.Cyan("Step 1: Running AutoMigrate for %d tables...", len(tables))
	if err := db.AutoMigrate(tables...); err != nil {
		color.Red("AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	color.Cyan("Step 2: Applying constraints...")
	failed := 0
	for _, sql := range model.PostMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: %v", err)
			failed++
		}
	}
	if failed > 0 {
		color.Red("Migration finished with %d failed statements", failed)
		os.Exit(1)
	}

	color.Green("✅ Migration completed")
}
