// Package storage persists completed audit results to SQLite. The
// scrape library itself never touches storage; this is the optional
// history layer used by the CLI.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sajtmaskin/skrapa/internal/scrape"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// AuditSummary is one row of the audit history listing.
type AuditSummary struct {
	ID           int64
	URL          string
	Title        string
	WordCount    int
	SampledPages int
	CreatedAt    time.Time
}

// AuditStore stores audit results in a SQLite database.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore opens (or creates) the database at dbPath and ensures
// the schema exists.
func NewAuditStore(dbPath string) (*AuditStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &AuditStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *AuditStore) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// SaveAudit persists one audit result and its sampled pages, returning
// the new audit's row ID.
func (s *AuditStore) SaveAudit(content *scrape.WebsiteContent) (int64, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal audit content: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO audits (
			url, title, description, word_count, image_count,
			internal_links, external_links, has_ssl, response_time_ms,
			text_preview, content_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		content.URL, content.Title, content.Description, content.WordCount,
		content.Images, content.Links.Internal, content.Links.External,
		boolToInt(content.HasSSL), content.ResponseTime.Milliseconds(),
		content.TextPreview, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert audit: %w", err)
	}

	auditID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read audit id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sampled_pages (audit_id, position, url) VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, pageURL := range content.SampledURLs {
		if _, err := stmt.Exec(auditID, i, pageURL); err != nil {
			return 0, fmt.Errorf("failed to insert sampled page %s: %w", pageURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit audit: %w", err)
	}
	return auditID, nil
}

// GetAudit loads one stored audit result by ID.
func (s *AuditStore) GetAudit(id int64) (*scrape.WebsiteContent, error) {
	var payload string
	err := s.db.QueryRow(`SELECT content_json FROM audits WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("audit %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load audit %d: %w", id, err)
	}

	var content scrape.WebsiteContent
	if err := json.Unmarshal([]byte(payload), &content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit %d: %w", id, err)
	}
	return &content, nil
}

// RecentAudits lists the newest audits, most recent first.
func (s *AuditStore) RecentAudits(limit int) ([]AuditSummary, error) {
	rows, err := s.db.Query(`
		SELECT a.id, a.url, a.title, a.word_count,
		       (SELECT COUNT(*) FROM sampled_pages sp WHERE sp.audit_id = a.id),
		       a.created_at
		FROM audits a
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []AuditSummary
	for rows.Next() {
		var a AuditSummary
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.WordCount, &a.SampledPages, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
