package postgres

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smartcharge/core/internal/domain"
)

// NewConnection opens a GORM connection to Postgres with a bounded pool.
func NewConnection(url string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("successfully connected to Postgres")
	return db, nil
}

// RunMigrations auto-migrates the domain's GORM-tagged types. There is no
// hand-written SQL migration set for this core; every table it owns is
// derived straight from the domain package.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Account{},
		&domain.Vehicle{},
		&domain.Location{},
		&domain.PricePoint{},
		&domain.Connection{},
		&domain.Charge{},
		&domain.ChargeCurrent{},
		&domain.ChargeCurve{},
		&domain.Trip{},
		&domain.EventMap{},
		&domain.CurrentStats{},
		&domain.Action{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
