// Package cache persists the last successful fetch of each list view in a
// local sqlite database, so the CLI can keep showing stale-but-visible data
// when the journal API is unreachable.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Snapshot is one cached fetch result. Kind names the collection
// ("accounts", "trades"), Key scopes it (user id, account id), and Payload
// holds the JSON-encoded domain values.
type Snapshot struct {
	gorm.Model
	Kind      string `gorm:"uniqueIndex:idx_kind_key;not null"`
	Key       string `gorm:"uniqueIndex:idx_kind_key;not null"`
	Payload   []byte `gorm:"not null"`
	FetchedAt time.Time
}

// ErrMiss is returned when no snapshot exists for the requested kind+key.
var ErrMiss = errors.New("no cached snapshot")

// Store wraps the sqlite snapshot database.
type Store struct {
	db *gorm.DB
}

// Open creates the database file if needed and migrates the schema.
func Open(dsn string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Put stores value under kind+key, replacing any previous snapshot.
func (s *Store) Put(kind, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	snap := Snapshot{Kind: kind, Key: key}
	if err := s.db.Where(&snap).Assign(Snapshot{
		Payload:   payload,
		FetchedAt: time.Now(),
	}).FirstOrCreate(&snap).Error; err != nil {
		return fmt.Errorf("failed to store snapshot %s/%s: %w", kind, key, err)
	}
	return nil
}

// Get loads the snapshot for kind+key into out and reports when it was
// fetched. A missing snapshot returns ErrMiss.
func (s *Store) Get(kind, key string, out any) (time.Time, error) {
	var snap Snapshot
	err := s.db.Where("kind = ? AND key = ?", kind, key).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, ErrMiss
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load snapshot %s/%s: %w", kind, key, err)
	}

	if err := json.Unmarshal(snap.Payload, out); err != nil {
		return time.Time{}, fmt.Errorf("cached snapshot %s/%s is unreadable: %w", kind, key, err)
	}
	return snap.FetchedAt, nil
}

// Clear drops every snapshot, e.g. on logout so the next user cannot read
// the previous user's data.
func (s *Store) Clear() error {
	if err := s.db.Where("1 = 1").Delete(&Snapshot{}).Error; err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
