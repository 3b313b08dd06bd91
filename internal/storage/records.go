package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/agency-pulse/internal/engine"
)

// Save methods replace a client's synced rows inside a transaction so a
// partially failed sync never leaves a mixed snapshot behind. Load
// methods filter by the dashboard timeframe and keep rows without a
// timestamp, since the funnel and tier views still count those.

func (s *Store) SaveCampaigns(ctx context.Context, clientID string, records []engine.CampaignRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin campaign save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_records WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("failed to clear campaigns: %w", err)
	}
	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO campaign_records
				(client_id, id, name, subject, status, channel, sent_at, recipients,
				 opened, clicked, orders, bounced, unsubscribed, revenue,
				 open_rate, click_rate, bounce_rate, unsubscribe_rate)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		`, clientID, r.ID, r.Name, r.Subject, r.Status, r.Channel, nullableTime(r.SentAt), r.Recipients,
			r.Opened, r.Clicked, r.Orders, r.Bounced, r.Unsubscribed, r.Revenue,
			r.OpenRate, r.ClickRate, r.BounceRate, r.UnsubRate)
		if err != nil {
			return fmt.Errorf("failed to insert campaign %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign save: %w", err)
	}
	return nil
}

// LoadCampaigns returns a client's campaigns inside the timeframe.
// Campaigns without a send time are always included.
func (s *Store) LoadCampaigns(ctx context.Context, clientID string, timeframeDays int) ([]engine.CampaignRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, subject, status, channel, sent_at, recipients,
		       opened, clicked, orders, bounced, unsubscribed, revenue,
		       open_rate, click_rate, bounce_rate, unsubscribe_rate
		FROM campaign_records
		WHERE client_id = $1 AND (sent_at IS NULL OR sent_at >= $2)
		ORDER BY sent_at DESC NULLS LAST
	`, clientID, cutoff(timeframeDays))
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}
	defer rows.Close()

	records := []engine.CampaignRecord{}
	for rows.Next() {
		var r engine.CampaignRecord
		var sentAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Name, &r.Subject, &r.Status, &r.Channel, &sentAt, &r.Recipients,
			&r.Opened, &r.Clicked, &r.Orders, &r.Bounced, &r.Unsubscribed, &r.Revenue,
			&r.OpenRate, &r.ClickRate, &r.BounceRate, &r.UnsubRate); err != nil {
			return nil, err
		}
		if sentAt.Valid {
			t := sentAt.Time
			r.SentAt = &t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) SaveFlows(ctx context.Context, clientID string, records []engine.FlowRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin flow save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_records WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("failed to clear flows: %w", err)
	}
	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO flow_records
				(client_id, id, name, status, trigger_type, revenue, opens, clicks,
				 recipients, deliveries, bounces, unsubscribes, spam_complaints,
				 open_rate, click_rate)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`, clientID, r.ID, r.Name, r.Status, r.TriggerType, r.Revenue, r.Opens, r.Clicks,
			r.Recipients, r.Deliveries, r.Bounces, r.Unsubscribes, r.SpamComplaints,
			r.OpenRate, r.ClickRate)
		if err != nil {
			return fmt.Errorf("failed to insert flow %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flow save: %w", err)
	}
	return nil
}

func (s *Store) LoadFlows(ctx context.Context, clientID string) ([]engine.FlowRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, trigger_type, revenue, opens, clicks,
		       recipients, deliveries, bounces, unsubscribes, spam_complaints,
		       open_rate, click_rate
		FROM flow_records WHERE client_id = $1 ORDER BY revenue DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flows: %w", err)
	}
	defer rows.Close()

	records := []engine.FlowRecord{}
	for rows.Next() {
		var r engine.FlowRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Status, &r.TriggerType, &r.Revenue, &r.Opens, &r.Clicks,
			&r.Recipients, &r.Deliveries, &r.Bounces, &r.Unsubscribes, &r.SpamComplaints,
			&r.OpenRate, &r.ClickRate); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) SaveFlowTrend(ctx context.Context, clientID, flowID string, points []engine.WeeklyFlowTrendPoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin trend save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_trend_points WHERE client_id = $1 AND flow_id = $2`, clientID, flowID); err != nil {
		return fmt.Errorf("failed to clear flow trend: %w", err)
	}
	for _, p := range points {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO flow_trend_points (client_id, flow_id, week_start, revenue, opens, clicks, recipients)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, clientID, flowID, p.WeekStart, p.Revenue, p.Opens, p.Clicks, p.Recipients)
		if err != nil {
			return fmt.Errorf("failed to insert trend point: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trend save: %w", err)
	}
	return nil
}

// LoadFlowTrends returns every flow's weekly trend series for a client,
// keyed by flow ID and ordered oldest week first.
func (s *Store) LoadFlowTrends(ctx context.Context, clientID string) (map[string][]engine.WeeklyFlowTrendPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flow_id, week_start, revenue, opens, clicks, recipients
		FROM flow_trend_points WHERE client_id = $1 ORDER BY flow_id, week_start
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow trends: %w", err)
	}
	defer rows.Close()

	trends := map[string][]engine.WeeklyFlowTrendPoint{}
	for rows.Next() {
		var flowID string
		var p engine.WeeklyFlowTrendPoint
		if err := rows.Scan(&flowID, &p.WeekStart, &p.Revenue, &p.Opens, &p.Clicks, &p.Recipients); err != nil {
			return nil, err
		}
		trends[flowID] = append(trends[flowID], p)
	}
	return trends, rows.Err()
}

func (s *Store) SaveFlowMessages(ctx context.Context, clientID, flowID string, records []engine.FlowMessageRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin flow message save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_message_records WHERE client_id = $1 AND flow_id = $2`, clientID, flowID); err != nil {
		return fmt.Errorf("failed to clear flow messages: %w", err)
	}
	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO flow_message_records
				(client_id, id, flow_id, name, subject, created_at, opens, clicks, revenue, open_rate)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, clientID, r.ID, flowID, r.Name, r.Subject, nullableTime(r.CreatedAt), r.Opens, r.Clicks, r.Revenue, r.OpenRate)
		if err != nil {
			return fmt.Errorf("failed to insert flow message %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flow message save: %w", err)
	}
	return nil
}

func (s *Store) LoadFlowMessages(ctx context.Context, clientID, flowID string) ([]engine.FlowMessageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flow_id, name, subject, created_at, opens, clicks, revenue, open_rate
		FROM flow_message_records WHERE client_id = $1 AND flow_id = $2
	`, clientID, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow messages: %w", err)
	}
	defer rows.Close()

	records := []engine.FlowMessageRecord{}
	for rows.Next() {
		var r engine.FlowMessageRecord
		var createdAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.FlowID, &r.Name, &r.Subject, &createdAt, &r.Opens, &r.Clicks, &r.Revenue, &r.OpenRate); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			t := createdAt.Time
			r.CreatedAt = &t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) SaveListGrowth(ctx context.Context, clientID string, records []engine.ListGrowthRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin list growth save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_growth_records WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("failed to clear list growth: %w", err)
	}
	for _, r := range records {
		if r.Date == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO list_growth_records (client_id, date, subscribed, unsubscribed)
			VALUES ($1,$2,$3,$4)
		`, clientID, *r.Date, r.Subscribed, r.Unsubscribed)
		if err != nil {
			return fmt.Errorf("failed to insert list growth row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit list growth save: %w", err)
	}
	return nil
}

func (s *Store) LoadListGrowth(ctx context.Context, clientID string, timeframeDays int) ([]engine.ListGrowthRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, subscribed, unsubscribed
		FROM list_growth_records
		WHERE client_id = $1 AND date >= $2
		ORDER BY date
	`, clientID, cutoff(timeframeDays))
	if err != nil {
		return nil, fmt.Errorf("failed to load list growth: %w", err)
	}
	defer rows.Close()

	records := []engine.ListGrowthRecord{}
	for rows.Next() {
		var r engine.ListGrowthRecord
		var date time.Time
		if err := rows.Scan(&date, &r.Subscribed, &r.Unsubscribed); err != nil {
			return nil, err
		}
		r.Date = &date
		records = append(records, r)
	}
	return records, rows.Err()
}

// cutoff maps a timeframe in days to its inclusive start instant.
func cutoff(timeframeDays int) time.Time {
	if timeframeDays <= 0 {
		timeframeDays = engine.TimeframeAll
	}
	return time.Now().UTC().AddDate(0, 0, -timeframeDays)
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
