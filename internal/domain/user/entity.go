package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents the users table. Only the columns the auth layer
// needs; profile data lives with the front end service.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Username     string         `gorm:"uniqueIndex;not null"`
	Email        sql.NullString `gorm:"uniqueIndex"`
	PasswordHash string         `gorm:"not null"`
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}
