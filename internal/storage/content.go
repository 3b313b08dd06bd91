package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentNote is a free-form planning note attached to a client.
type ContentNote struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CalendarEntry is a scheduled send on a client's content calendar.
// Kind is "campaign" or "flow".
type CalendarEntry struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	Title        string    `json:"title"`
	Kind         string    `json:"kind"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Store) CreateNote(ctx context.Context, n *ContentNote) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_notes (id, client_id, title, body, author, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, n.ID, n.ClientID, n.Title, n.Body, n.Author, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (s *Store) ListNotes(ctx context.Context, clientID string) ([]ContentNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, title, COALESCE(body,''), COALESCE(author,''), created_at, updated_at
		FROM content_notes WHERE client_id = $1 ORDER BY updated_at DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []ContentNote{}
	for rows.Next() {
		var n ContentNote
		if err := rows.Scan(&n.ID, &n.ClientID, &n.Title, &n.Body, &n.Author, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) UpdateNote(ctx context.Context, n *ContentNote) error {
	n.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE content_notes SET title = $2, body = $3, updated_at = $4 WHERE id = $1
	`, n.ID, n.Title, n.Body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM content_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func (s *Store) CreateCalendarEntry(ctx context.Context, e *CalendarEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Kind == "" {
		e.Kind = "campaign"
	}
	e.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar_entries (id, client_id, title, kind, scheduled_for, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, e.ID, e.ClientID, e.Title, e.Kind, e.ScheduledFor, e.Notes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create calendar entry: %w", err)
	}
	return nil
}

// ListCalendarEntries returns a client's scheduled sends inside a window.
func (s *Store) ListCalendarEntries(ctx context.Context, clientID string, from, to time.Time) ([]CalendarEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, title, kind, scheduled_for, COALESCE(notes,''), created_at
		FROM calendar_entries
		WHERE client_id = $1 AND scheduled_for >= $2 AND scheduled_for < $3
		ORDER BY scheduled_for
	`, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar entries: %w", err)
	}
	defer rows.Close()

	entries := []CalendarEntry{}
	for rows.Next() {
		var e CalendarEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Title, &e.Kind, &e.ScheduledFor, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) DeleteCalendarEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM calendar_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete calendar entry: %w", err)
	}
	return nil
}
