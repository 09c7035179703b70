// Package history records the outcome of every acquisition attempt.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reelgrab/models"
)

// Service persists acquisition records in SQLite.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record stores one acquisition outcome and returns it with the generated
// ID and timestamp filled in.
func (s *Service) Record(ctx context.Context, a models.Acquisition) (models.Acquisition, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO acquisitions (id, title, year, torrent_name, size_bytes, resolution, codec, status, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Year, a.TorrentName, a.SizeBytes, a.Resolution, a.Codec, a.Status, a.Detail, a.CreatedAt,
	)
	if err != nil {
		return models.Acquisition{}, fmt.Errorf("record acquisition: %w", err)
	}
	return a, nil
}

// List returns the most recent acquisition records, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]models.Acquisition, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, year, torrent_name, size_bytes, resolution, codec, status, detail, created_at
		FROM acquisitions
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list acquisitions: %w", err)
	}
	defer rows.Close()

	var out []models.Acquisition
	for rows.Next() {
		var a models.Acquisition
		if err := rows.Scan(&a.ID, &a.Title, &a.Year, &a.TorrentName, &a.SizeBytes,
			&a.Resolution, &a.Codec, &a.Status, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan acquisition: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LastStatus returns the latest recorded status for a movie, or "" when the
// movie was never attempted.
func (s *Service) LastStatus(ctx context.Context, title string, year int) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT status FROM acquisitions
		WHERE title = ? AND year = ?
		ORDER BY created_at DESC LIMIT 1`, title, year).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last status: %w", err)
	}
	return status, nil
}
