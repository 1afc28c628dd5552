package database

import (
	"fmt"
	"time"

	"pulse-chat/config"
	"pulse-chat/internal/domain/chat"
	"pulse-chat/internal/domain/user"
	pulse_errors "pulse-chat/pkg/errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("%w: %v", pulse_errors.ErrServiceUnavailable, err)
	}
	return nil
}

// Migrate provisions the full schema. Called only from cmd/migrate;
// the API server assumes the schema exists.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&chat.Conversation{},
		&chat.Participant{},
		&chat.Message{},
		&chat.MessageRead{},
	)
}
