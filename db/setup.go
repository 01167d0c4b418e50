package db

import (
	"os"

	"github.com/agrolink-dev/agrolink/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDatabase opens the store. Postgres is the default; DB_DRIVER=sqlite
// switches to a local sqlite file, which is also what the tests use in-memory.
func ConnectDatabase(dsn string) error {
	var err error
	var dialector gorm.Dialector

	if os.Getenv("DB_DRIVER") == "sqlite" {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}

	DB, err = gorm.Open(dialector, &gorm.Config{})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	models := []interface{}{
		&models.User{},
		&models.Paysan{},
		&models.Expert{},
		&models.Consultation{},
		&models.Message{},
	}

	migrator := DB.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := DB.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
