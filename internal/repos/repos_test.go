package repos

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/plantpal-backend/internal/logger"
)

// The postgres schema uses uuid_generate_v4() defaults, which sqlite can't
// express, so tests create the tables by hand and set ids explicitly.
var testSchema = []string{
	`CREATE TABLE plant (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		species TEXT,
		location TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE care_activity (
		id TEXT PRIMARY KEY,
		plant_id TEXT NOT NULL,
		category TEXT NOT NULL,
		performed_at DATETIME NOT NULL,
		note TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE global_policy (
		id TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL DEFAULT 1,
		categories TEXT,
		quiet_hours_start TEXT,
		quiet_hours_end TEXT,
		morning_start TEXT,
		morning_end TEXT,
		evening_start TEXT,
		evening_end TEXT,
		dnd_start TEXT,
		dnd_end TEXT,
		dnd_allow_urgent INTEGER NOT NULL DEFAULT 1,
		dnd_allow_achievements INTEGER NOT NULL DEFAULT 0,
		max_per_hour INTEGER NOT NULL DEFAULT 3,
		max_per_day INTEGER NOT NULL DEFAULT 10,
		cooldown_minutes INTEGER NOT NULL DEFAULT 30,
		weather_integration INTEGER NOT NULL DEFAULT 1,
		seasonal_adjustment INTEGER NOT NULL DEFAULT 1,
		batching INTEGER NOT NULL DEFAULT 1,
		priority_delivery INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE plant_policy (
		id TEXT PRIMARY KEY,
		plant_id TEXT NOT NULL UNIQUE,
		enabled INTEGER NOT NULL DEFAULT 1,
		settings TEXT,
		dnd_start TEXT,
		dnd_end TEXT,
		morning_time TEXT,
		evening_time TEXT,
		batch_similar INTEGER NOT NULL DEFAULT 1,
		max_per_day INTEGER NOT NULL DEFAULT 0,
		delivery_blocked INTEGER NOT NULL DEFAULT 0,
		weather_defer TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE scheduled_notification (
		id TEXT PRIMARY KEY,
		plant_id TEXT,
		category TEXT NOT NULL,
		scheduled_for DATETIME NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		priority TEXT NOT NULL DEFAULT 'medium',
		is_recurring INTEGER NOT NULL DEFAULT 0,
		recurrence TEXT,
		status TEXT NOT NULL DEFAULT 'scheduled',
		delivery_status TEXT NOT NULL DEFAULT 'pending',
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_attempt DATETIME,
		error_message TEXT,
		delivered_at DATETIME,
		interacted_at DATETIME,
		interaction TEXT,
		skip_reason TEXT,
		delivery_handle TEXT,
		batch_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE notification_batch (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		scheduled_for DATETIME NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		members TEXT,
		status TEXT NOT NULL DEFAULT 'scheduled',
		delivery_handle TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	// One connection, or each pooled connection would see its own empty
	// in-memory database.
	sqlDB.SetMaxOpenConns(1)
	for _, ddl := range testSchema {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

func testTime(hoursAgo int) time.Time {
	return time.Now().UTC().Add(-time.Duration(hoursAgo) * time.Hour).Truncate(time.Second)
}
