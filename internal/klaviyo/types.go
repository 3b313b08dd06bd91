package klaviyo

import (
	"time"

	"github.com/ignite/agency-pulse/internal/engine"
)

// APIResponse is the base JSON:API envelope returned by Klaviyo.
type APIResponse struct {
	Data  []Resource `json:"data"`
	Links PageLinks  `json:"links"`
}

// Resource is one JSON:API resource object.
type Resource struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes"`
}

// PageLinks carries cursor pagination links.
type PageLinks struct {
	Next string `json:"next,omitempty"`
}

// CampaignStats is a row from the campaign-values reporting endpoint.
type CampaignStats struct {
	CampaignID     string  `json:"campaign_id"`
	Name           string  `json:"name"`
	Subject        string  `json:"subject"`
	Status         string  `json:"status"`
	Channel        string  `json:"channel"`
	SendTime       string  `json:"send_time"` // RFC3339, empty for drafts
	Recipients     int     `json:"recipients"`
	OpensUnique    int     `json:"opens_unique"`
	ClicksUnique   int     `json:"clicks_unique"`
	Conversions    int     `json:"conversions"`
	Bounced        int     `json:"bounced"`
	Unsubscribes   int     `json:"unsubscribes"`
	ConversionValue float64 `json:"conversion_value"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
	BounceRate     float64 `json:"bounce_rate"`
	UnsubscribeRate float64 `json:"unsubscribe_rate"`
}

// FlowStats is a row from the flow-values reporting endpoint.
type FlowStats struct {
	FlowID         string  `json:"flow_id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	TriggerType    string  `json:"trigger_type"`
	ConversionValue float64 `json:"conversion_value"`
	OpensUnique    int     `json:"opens_unique"`
	ClicksUnique   int     `json:"clicks_unique"`
	Recipients     int     `json:"recipients"`
	Deliveries     int     `json:"deliveries"`
	Bounced        int     `json:"bounced"`
	Unsubscribes   int     `json:"unsubscribes"`
	SpamComplaints int     `json:"spam_complaints"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
}

// FlowMessageStats is a row for one email inside a flow.
type FlowMessageStats struct {
	MessageID      string  `json:"message_id"`
	FlowID         string  `json:"flow_id"`
	Name           string  `json:"name"`
	Subject        string  `json:"subject"`
	Created        string  `json:"created"` // RFC3339, may be empty
	OpensUnique    int     `json:"opens_unique"`
	ClicksUnique   int     `json:"clicks_unique"`
	ConversionValue float64 `json:"conversion_value"`
	OpenRate       float64 `json:"open_rate"`
}

// WeeklyTrendRow is one week of a flow's pre-aggregated trend series.
type WeeklyTrendRow struct {
	WeekStart      string  `json:"week_start"` // YYYY-MM-DD
	ConversionValue float64 `json:"conversion_value"`
	OpensUnique    int     `json:"opens_unique"`
	ClicksUnique   int     `json:"clicks_unique"`
	Recipients     int     `json:"recipients"`
}

// ListGrowthStats is one day of list growth from the list-growth report.
type ListGrowthStats struct {
	Date         string `json:"date"` // YYYY-MM-DD
	Subscribed   int    `json:"subscribed"`
	Unsubscribed int    `json:"unsubscribed"`
}

// normalizeStatus maps Klaviyo campaign statuses onto the engine's set.
func normalizeStatus(status string) string {
	switch status {
	case "Sent", "sent":
		return engine.CampaignStatusSent
	case "Draft", "draft", "Scheduled", "scheduled":
		return engine.CampaignStatusDraft
	default:
		return status
	}
}

// parseTime parses an upstream RFC3339 timestamp, returning nil on empty
// or malformed input: unparseable timestamps exclude a record from
// time-bucketed views downstream but never fail the sync.
func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// ToCampaignRecord converts an API stats row to the engine's record shape.
// Missing numeric fields were already defaulted to 0 by JSON decoding.
func (s CampaignStats) ToCampaignRecord() engine.CampaignRecord {
	return engine.CampaignRecord{
		ID:           s.CampaignID,
		Name:         s.Name,
		Subject:      s.Subject,
		Status:       normalizeStatus(s.Status),
		Channel:      s.Channel,
		SentAt:       parseTime(s.SendTime),
		Recipients:   s.Recipients,
		Opened:       s.OpensUnique,
		Clicked:      s.ClicksUnique,
		Orders:       s.Conversions,
		Bounced:      s.Bounced,
		Unsubscribed: s.Unsubscribes,
		Revenue:      s.ConversionValue,
		OpenRate:     s.OpenRate,
		ClickRate:    s.ClickRate,
		BounceRate:   s.BounceRate,
		UnsubRate:    s.UnsubscribeRate,
	}
}

// ToFlowRecord converts an API flow row to the engine's record shape.
func (s FlowStats) ToFlowRecord() engine.FlowRecord {
	return engine.FlowRecord{
		ID:             s.FlowID,
		Name:           s.Name,
		Status:         s.Status,
		TriggerType:    s.TriggerType,
		Revenue:        s.ConversionValue,
		Opens:          s.OpensUnique,
		Clicks:         s.ClicksUnique,
		Recipients:     s.Recipients,
		Deliveries:     s.Deliveries,
		Bounces:        s.Bounced,
		Unsubscribes:   s.Unsubscribes,
		SpamComplaints: s.SpamComplaints,
		OpenRate:       s.OpenRate,
		ClickRate:      s.ClickRate,
	}
}

// ToFlowMessageRecord converts an API flow-message row to the engine's
// record shape.
func (s FlowMessageStats) ToFlowMessageRecord() engine.FlowMessageRecord {
	return engine.FlowMessageRecord{
		ID:        s.MessageID,
		FlowID:    s.FlowID,
		Name:      s.Name,
		Subject:   s.Subject,
		CreatedAt: parseTime(s.Created),
		Opens:     s.OpensUnique,
		Clicks:    s.ClicksUnique,
		Revenue:   s.ConversionValue,
		OpenRate:  s.OpenRate,
	}
}

// ToTrendPoint converts a weekly trend row to the engine's record shape.
// Rows with an unparseable week label are dropped by the caller.
func (r WeeklyTrendRow) ToTrendPoint() (engine.WeeklyFlowTrendPoint, bool) {
	week := parseTime(r.WeekStart)
	if week == nil {
		return engine.WeeklyFlowTrendPoint{}, false
	}
	return engine.WeeklyFlowTrendPoint{
		WeekStart:  *week,
		Revenue:    r.ConversionValue,
		Opens:      r.OpensUnique,
		Clicks:     r.ClicksUnique,
		Recipients: r.Recipients,
	}, true
}

// ToListGrowthRecord converts an API list-growth row to the engine's
// record shape.
func (s ListGrowthStats) ToListGrowthRecord() engine.ListGrowthRecord {
	return engine.ListGrowthRecord{
		Date:         parseTime(s.Date),
		Subscribed:   s.Subscribed,
		Unsubscribed: s.Unsubscribed,
	}
}
