package database

import (
	"fmt"
	"time"

	"footwear-backend/internal/config"
	"footwear-backend/internal/models"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init connects to Postgres, retrying while the database comes up, and migrates the schema.
func Init(cfg *config.Config) {
	var err error
	for i := 0; i < 5; i++ {
		DB, err = Open(postgres.Open(cfg.DatabaseDSN), cfg.LogSQL)
		if err == nil {
			break
		}
		log.Warnf("database not reachable, retrying in 2s (%d/5): %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Info("database connected, schema migrated")
}

// Open wraps gorm.Open with the settings every store relies on. TranslateError makes
// unique violations surface as gorm.ErrDuplicatedKey regardless of driver.
func Open(dialector gorm.Dialector, logSQL bool) (*gorm.DB, error) {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Brand{},
		&models.Category{},
		&models.Section{},
		&models.Size{},
		&models.Product{},
		&models.Stock{},
		&models.Supplier{},
		&models.Customer{},
		&models.PurchaseBill{},
		&models.PurchaseItem{},
		&models.SalesBill{},
		&models.SalesItem{},
		&models.ExpenseCategory{},
		&models.Expense{},
		&models.AuditLog{},
		&models.DailySummary{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
