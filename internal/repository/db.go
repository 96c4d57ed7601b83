package repository

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"daily-review/internal/model"
)

const defaultDSN = "daily_review.db"

// Tables owned by the store, parents first.
var models = []interface{}{
	&model.User{},
	&model.Project{},
	&model.Task{},
	&model.Habit{},
	&model.DailyPlan{},
	&model.WorkLog{},
	&model.LessonLog{},
	&model.Offer{},
}

// NewDB opens the SQLite store behind dsn and migrates every table.
// File databases run in WAL mode with a busy timeout so the scheduler and
// the bot loop can write concurrently; in-memory ones share one connection.
func NewDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	memory := isMemoryDSN(dsn)
	if !memory {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(dsn, memory)), &gorm.Config{
		Logger: gormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if memory {
		// Each pooled connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

func gormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "[db] ", log.LstdFlags),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// withPragmas appends go-sqlite3 connection parameters unless dsn sets them.
func withPragmas(dsn string, memory bool) string {
	params := []string{"_foreign_keys=on", "_busy_timeout=5000"}
	if !memory {
		params = append(params, "_journal_mode=WAL")
	}
	var extra []string
	for _, p := range params {
		key, _, _ := strings.Cut(p, "=")
		if !strings.Contains(dsn, key+"=") {
			extra = append(extra, p)
		}
	}
	if len(extra) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(extra, "&")
}

func ensureDir(dsn string) error {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
