package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/agency-pulse/internal/config"
	"github.com/ignite/agency-pulse/internal/klaviyo"
)

// Store is the PostgreSQL-backed persistence layer: client/agency
// administration plus the synced record tables the engine reads from.
type Store struct {
	db *sql.DB
}

// New opens the database and verifies connectivity.
func New(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle (used by tests).
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for collaborators that manage their
// own tables (the kanban service).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Agency is one agency tenant.
type Agency struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LogoURL   string    `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is one brand managed by an agency. The Klaviyo key is never
// serialized to API responses.
type Client struct {
	ID            string    `json:"id"`
	AgencyID      string    `json:"agency_id"`
	Name          string    `json:"name"`
	KlaviyoAPIKey string    `json:"-"`
	LogoURL       string    `json:"logo_url,omitempty"`
	BrandColor    string    `json:"brand_color,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateClient inserts a new client under an agency.
func (s *Store) CreateClient(ctx context.Context, c *Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, agency_id, name, klaviyo_api_key, logo_url, brand_color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.AgencyID, c.Name, c.KlaviyoAPIKey, c.LogoURL, c.BrandColor, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetClient fetches one client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*Client, error) {
	var c Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, agency_id, name, klaviyo_api_key, COALESCE(logo_url,''), COALESCE(brand_color,''), created_at
		FROM clients WHERE id = $1
	`, id).Scan(&c.ID, &c.AgencyID, &c.Name, &c.KlaviyoAPIKey, &c.LogoURL, &c.BrandColor, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// ListClients returns all clients for an agency, newest first.
func (s *Store) ListClients(ctx context.Context, agencyID string) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agency_id, name, klaviyo_api_key, COALESCE(logo_url,''), COALESCE(brand_color,''), created_at
		FROM clients WHERE agency_id = $1 ORDER BY created_at DESC
	`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.AgencyID, &c.Name, &c.KlaviyoAPIKey, &c.LogoURL, &c.BrandColor, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpdateClient updates a client's editable fields.
func (s *Store) UpdateClient(ctx context.Context, c *Client) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE clients SET name = $2, klaviyo_api_key = $3, logo_url = $4, brand_color = $5
		WHERE id = $1
	`, c.ID, c.Name, c.KlaviyoAPIKey, c.LogoURL, c.BrandColor)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteClient removes a client and its synced records (FK cascade).
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// ListClientAccounts returns the sync view of every client with a key,
// satisfying the collector's StorageInterface.
func (s *Store) ListClientAccounts(ctx context.Context) ([]klaviyo.ClientAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, klaviyo_api_key FROM clients WHERE klaviyo_api_key <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list client accounts: %w", err)
	}
	defer rows.Close()

	accounts := []klaviyo.ClientAccount{}
	for rows.Next() {
		var a klaviyo.ClientAccount
		if err := rows.Scan(&a.ID, &a.Name, &a.APIKey); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
