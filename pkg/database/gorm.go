package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"kt-assistant-be/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getLogger(level string) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  parseLogLevel(level),
			IgnoreRecordNotFoundError: true, // sessions are looked up by id routinely
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  true,
		},
	)
}

// parseLogLevel maps the application LOG_LEVEL onto gorm's levels; SQL is
// only traced at DEBUG.
func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return logger.Info
	case "WARN", "INFO":
		return logger.Warn
	case "ERROR":
		return logger.Error
	case "SILENT":
		return logger.Silent
	}
	return logger.Warn
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

func NewGormDBFromDSN(dsn string, logLevel string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: getLogger(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the relational tables. The pgvector table is created by
// its repository because its width depends on the embedding dimension.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(&model.Session{}, &model.Message{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
