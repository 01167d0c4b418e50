package main

import (
	"os"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/auth"
	"github.com/agrolink-dev/agrolink/internal/logger"
	"github.com/agrolink-dev/agrolink/internal/router"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Warnf("No .env file loaded: %v", err)
	}

	dsn := os.Getenv("DATABASE_DSN")

	if dsn == "" {
		logger.Log.Fatal("DATABASE_DSN environment variable is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		logger.Log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		logger.Log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	r := router.NewRouter()

	port := os.Getenv("PORT")

	if port == "" {
		port = "8000"
		logger.Log.Info("PORT not set, defaulting to 8000")
	}

	if err := r.Run(":" + port); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
