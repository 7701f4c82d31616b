// Package storage provides the SQLite-backed analysis cache. Wardrobe
// state itself is memory-resident and never persisted; the cache only
// avoids re-classifying an image the model has already seen.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// AnalysisCacheEntry is a cached garment classification.
type AnalysisCacheEntry struct {
	Category    string
	Description string
	StylingTips string
	Raw         string
}

// CacheStore defines the interface for analysis-result caching.
type CacheStore interface {
	GetAnalysisCache(imageHash string) (*AnalysisCacheEntry, error)
	SetAnalysisCache(imageHash string, entry *AnalysisCacheEntry) error
	Close() error
}

// SQLiteStore implements CacheStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and initializes if needed) the cache database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS analysis_cache (
		image_hash TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		styling_tips TEXT NOT NULL,
		raw TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create analysis_cache table: %w", err)
	}
	return nil
}

// GetAnalysisCache returns the cached entry for the hash, or nil on miss.
func (s *SQLiteStore) GetAnalysisCache(imageHash string) (*AnalysisCacheEntry, error) {
	var entry AnalysisCacheEntry
	err := s.db.QueryRow(
		`SELECT category, description, styling_tips, raw FROM analysis_cache WHERE image_hash = ?`,
		imageHash,
	).Scan(&entry.Category, &entry.Description, &entry.StylingTips, &entry.Raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis cache: %w", err)
	}
	return &entry, nil
}

// SetAnalysisCache stores or replaces the cached entry for the hash.
func (s *SQLiteStore) SetAnalysisCache(imageHash string, entry *AnalysisCacheEntry) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO analysis_cache (image_hash, category, description, styling_tips, raw, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		imageHash, entry.Category, entry.Description, entry.StylingTips, entry.Raw, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write analysis cache: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
