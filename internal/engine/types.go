package engine

import "time"

// Timeframe values supported by the dashboard timeframe selector, in days.
// TimeframeAll stands in for "all history" and is treated the same as any
// value above 365 by the bucketer and the recap comparator.
const (
	Timeframe28  = 28
	Timeframe56  = 56
	Timeframe90  = 90
	Timeframe180 = 180
	Timeframe365 = 365
	TimeframeAll = 3650
)

// Campaign status values as normalized by the sync layer.
const (
	CampaignStatusDraft = "draft"
	CampaignStatusSent  = "sent"
)

// Flow status values as normalized by the sync layer.
const (
	FlowStatusLive  = "live"
	FlowStatusDraft = "draft"
)

// CampaignRecord is one synced campaign for a client. Counts default to 0
// upstream; SentAt is nil for campaigns that never went out. Rates are
// pre-computed upstream as fractions in [0,1] and are trusted as-is.
type CampaignRecord struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Subject      string     `json:"subject"`
	Status       string     `json:"status"`
	Channel      string     `json:"channel"` // "email" or "sms"
	SentAt       *time.Time `json:"sent_at,omitempty"`
	Recipients   int        `json:"recipients"`
	Opened       int        `json:"opened"`
	Clicked      int        `json:"clicked"`
	Orders       int        `json:"orders"`
	Bounced      int        `json:"bounced"`
	Unsubscribed int        `json:"unsubscribed"`
	Revenue      float64    `json:"revenue"`
	OpenRate     float64    `json:"open_rate"`
	ClickRate    float64    `json:"click_rate"`
	BounceRate   float64    `json:"bounce_rate"`
	UnsubRate    float64    `json:"unsubscribe_rate"`
}

// FlowRecord is one automation flow with aggregates over the active
// timeframe, pre-aggregated by the sync layer.
type FlowRecord struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	TriggerType    string  `json:"trigger_type"`
	Revenue        float64 `json:"revenue"`
	Opens          int     `json:"opens"`
	Clicks         int     `json:"clicks"`
	Recipients     int     `json:"recipients"`
	Deliveries     int     `json:"deliveries"`
	Bounces        int     `json:"bounces"`
	Unsubscribes   int     `json:"unsubscribes"`
	SpamComplaints int     `json:"spam_complaints"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
}

// FlowMessageRecord is one individual email inside a flow.
type FlowMessageRecord struct {
	ID        string     `json:"id"`
	FlowID    string     `json:"flow_id"`
	Name      string     `json:"name"`
	Subject   string     `json:"subject"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Opens     int        `json:"opens"`
	Clicks    int        `json:"clicks"`
	Revenue   float64    `json:"revenue"`
	OpenRate  float64    `json:"open_rate"`
}

// WeeklyFlowTrendPoint is one week of pre-aggregated flow performance,
// supplied upstream when available. Recipients is 0 when the source
// system did not include it; rate deltas degrade to 0 in that case.
type WeeklyFlowTrendPoint struct {
	WeekStart  time.Time `json:"week_start"`
	Revenue    float64   `json:"revenue"`
	Opens      int       `json:"opens"`
	Clicks     int       `json:"clicks"`
	Recipients int       `json:"recipients"`
}

// ListGrowthRecord is one day of list growth for a client: how many
// profiles subscribed and unsubscribed that day.
type ListGrowthRecord struct {
	Date         *time.Time `json:"date,omitempty"`
	Subscribed   int        `json:"subscribed"`
	Unsubscribed int        `json:"unsubscribed"`
}

// Tier is a brand-relative performance segment. It is owned by the
// single analyzer call that produced it and never mutated after return.
type Tier struct {
	Name      string           `json:"name"`
	Campaigns []CampaignRecord `json:"campaigns"`
	Revenue   float64          `json:"revenue"`
	Clicks    int              `json:"clicks"`
	Orders    int              `json:"orders"`
}

// safeRatio divides a by b, returning 0 when b is 0. The engine never
// faults on a zero denominator.
func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
