package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateAgency(ctx context.Context, a *Agency) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agencies (id, name, logo_url, created_at) VALUES ($1,$2,$3,$4)
	`, a.ID, a.Name, a.LogoURL, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agency: %w", err)
	}
	return nil
}

func (s *Store) GetAgency(ctx context.Context, id string) (*Agency, error) {
	var a Agency
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(logo_url,''), created_at FROM agencies WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.LogoURL, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agency: %w", err)
	}
	return &a, nil
}

func (s *Store) ListAgencies(ctx context.Context) ([]Agency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(logo_url,''), created_at FROM agencies ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	defer rows.Close()

	agencies := []Agency{}
	for rows.Next() {
		var a Agency
		if err := rows.Scan(&a.ID, &a.Name, &a.LogoURL, &a.CreatedAt); err != nil {
			return nil, err
		}
		agencies = append(agencies, a)
	}
	return agencies, rows.Err()
}

func (s *Store) UpdateAgency(ctx context.Context, a *Agency) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agencies SET name = $2, logo_url = $3 WHERE id = $1
	`, a.ID, a.Name, a.LogoURL)
	if err != nil {
		return fmt.Errorf("failed to update agency: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteAgency(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete agency: %w", err)
	}
	return nil
}
