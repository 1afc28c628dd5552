package repository_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"pulse-chat/internal/domain/chat"
	"pulse-chat/internal/domain/user"
	"pulse-chat/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory database per test. MaxOpenConns is
// pinned to 1 so every connection sees the same memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&user.User{},
		&chat.Conversation{},
		&chat.Participant{},
		&chat.Message{},
		&chat.MessageRead{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return repository.New(db), db
}
