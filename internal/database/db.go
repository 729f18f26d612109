package database

import (
	"fmt"
	"log/slog"
	"time"

	"buildops/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxAttempts  = 10
	retryBackoff = 2 * time.Second
)

// Open подключается к postgres, повторяя попытки пока БД поднимается.
func Open(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	return Connect(postgres.Open(dsn), logger, maxAttempts, retryBackoff)
}

// Connect открывает БД через любой gorm-диалект (в тестах sqlite).
func Connect(dialector gorm.Dialector, logger *slog.Logger, attempts int, backoff time.Duration) (*gorm.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if attempts < 1 {
		attempts = 1
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= attempts; i++ {
		logger.Info("connecting to DB", "attempt", i, "max_attempts", attempts)

		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			logger.Info("connected to DB")
			return db, nil
		}

		logger.Warn("failed to connect to DB", "error", err)
		if i < attempts {
			time.Sleep(backoff)
		}
	}
	return nil, fmt.Errorf("connect to db after %d attempts: %w", attempts, err)
}

// Migrate создаёт / обновляет схему.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Project{},
		&models.Task{},
		&models.Expense{},
		&models.CostEntry{},
		&models.ChangeOrder{},
		&models.MaterialUsage{},
		&models.TimeEntry{},
		&models.QualityInspection{},
		&models.DailyReport{},
		&models.WeatherSensitiveActivity{},
		&models.WeatherScheduleAdjustment{},
		&models.RiskAssessment{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
