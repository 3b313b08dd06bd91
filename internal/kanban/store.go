package kanban

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// BoardStore persists boards. The Postgres implementation keeps each
// board as one JSONB document; moves and edits rewrite the whole row,
// which is fine at board sizes.
type BoardStore interface {
	GetBoard(ctx context.Context, clientID string) (*Board, error)
	SaveBoard(ctx context.Context, board *Board) error
}

// PostgresStore implements BoardStore on a shared database handle.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps db and bootstraps the board table.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kanban_boards (
			client_id VARCHAR(100) PRIMARY KEY,
			doc JSONB NOT NULL,
			last_modified TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create kanban table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// GetBoard loads a client's board, returning a fresh default board
// when none has been saved yet.
func (s *PostgresStore) GetBoard(ctx context.Context, clientID string) (*Board, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT doc FROM kanban_boards WHERE client_id = $1
	`, clientID).Scan(&doc)
	if err == sql.ErrNoRows {
		return NewBoard(clientID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	var board Board
	if err := json.Unmarshal(doc, &board); err != nil {
		return nil, fmt.Errorf("failed to decode board: %w", err)
	}
	return &board, nil
}

// SaveBoard upserts the board document.
func (s *PostgresStore) SaveBoard(ctx context.Context, board *Board) error {
	board.LastModified = time.Now()
	doc, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to encode board: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kanban_boards (client_id, doc, last_modified)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id) DO UPDATE SET doc = $2, last_modified = $3
	`, board.ClientID, doc, board.LastModified)
	if err != nil {
		return fmt.Errorf("failed to save board: %w", err)
	}
	return nil
}
