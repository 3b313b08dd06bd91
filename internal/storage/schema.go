package storage

import (
	"context"
	"fmt"
)

// EnsureSchema creates the dashboard tables if they don't exist
// (idempotent bootstrap, run by both the server and the worker).
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS agencies (
			id VARCHAR(100) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			logo_url TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id VARCHAR(100) PRIMARY KEY,
			agency_id VARCHAR(100) REFERENCES agencies(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			klaviyo_api_key TEXT NOT NULL DEFAULT '',
			logo_url TEXT,
			brand_color VARCHAR(20),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS campaign_records (
			client_id VARCHAR(100) REFERENCES clients(id) ON DELETE CASCADE,
			id VARCHAR(100) NOT NULL,
			name TEXT,
			subject TEXT,
			status VARCHAR(20),
			channel VARCHAR(20),
			sent_at TIMESTAMP WITH TIME ZONE,
			recipients INTEGER DEFAULT 0,
			opened INTEGER DEFAULT 0,
			clicked INTEGER DEFAULT 0,
			orders INTEGER DEFAULT 0,
			bounced INTEGER DEFAULT 0,
			unsubscribed INTEGER DEFAULT 0,
			revenue DOUBLE PRECISION DEFAULT 0,
			open_rate DOUBLE PRECISION DEFAULT 0,
			click_rate DOUBLE PRECISION DEFAULT 0,
			bounce_rate DOUBLE PRECISION DEFAULT 0,
			unsubscribe_rate DOUBLE PRECISION DEFAULT 0,
			PRIMARY KEY (client_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS flow_records (
			client_id VARCHAR(100) REFERENCES clients(id) ON DELETE CASCADE,
			id VARCHAR(100) NOT NULL,
			name TEXT,
			status VARCHAR(20),
			trigger_type VARCHAR(50),
			revenue DOUBLE PRECISION DEFAULT 0,
			opens INTEGER DEFAULT 0,
			clicks INTEGER DEFAULT 0,
			recipients INTEGER DEFAULT 0,
			deliveries INTEGER DEFAULT 0,
			bounces INTEGER DEFAULT 0,
			unsubscribes INTEGER DEFAULT 0,
			spam_complaints INTEGER DEFAULT 0,
			open_rate DOUBLE PRECISION DEFAULT 0,
			click_rate DOUBLE PRECISION DEFAULT 0,
			PRIMARY KEY (client_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS flow_trend_points (
			client_id VARCHAR(100) REFERENCES clients(id) ON DELETE CASCADE,
			flow_id VARCHAR(100) NOT NULL,
			week_start TIMESTAMP WITH TIME ZONE NOT NULL,
			revenue DOUBLE PRECISION DEFAULT 0,
			opens INTEGER DEFAULT 0,
			clicks INTEGER DEFAULT 0,
			recipients INTEGER DEFAULT 0,
			PRIMARY KEY (client_id, flow_id, week_start)
		)`,
		`CREATE TABLE IF NOT EXISTS flow_message_records (
			client_id VARCHAR(100) REFERENCES clients(id) ON DELETE CASCADE,
			id VARCHAR(100) NOT NULL,
			flow_id VARCHAR(100) NOT NULL,
			name TEXT,
			subject TEXT,
			created_at TIMESTAMP WITH TIME ZONE,
			opens INTEGER DEFAULT 0,
			clicks INTEGER DEFAULT 0,
			revenue DOUBLE PRECISION DEFAULT 0,
			open_rate DOUBLE PRECISION DEFAULT 0,
			PRIMARY KEY (client_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS list_growth_records (
			client_id VARCHAR(100) REFERENCES clients(id) ON DELETE CASCADE,
			date TIMESTAMP WITH TIME ZONE NOT NULL,
			subscribed INTEGER DEFAULT 0,
			unsubscribed INTEGER DEFAULT 0,
			PRIMARY KEY (client_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS content_notes (
			id VARCHAR(100) PRIMARY KEY,
			client_id VARCHAR(100) REFERENCES clients(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			body TEXT,
			author VARCHAR(255),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS calendar_entries (
			id VARCHAR(100) PRIMARY KEY,
			client_id VARCHAR(100) REFERENCES clients(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			kind VARCHAR(20) DEFAULT 'campaign',
			scheduled_for TIMESTAMP WITH TIME ZONE NOT NULL,
			notes TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_campaign_records_sent ON campaign_records(client_id, sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_flow_trend_flow ON flow_trend_points(client_id, flow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_calendar_entries_sched ON calendar_entries(client_id, scheduled_for)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
