// Package api exposes the dashboard over HTTP: metric snapshots per
// client, subject and flow analysis, agency administration, content
// planning and the production board.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/agency-pulse/internal/engine"
	"github.com/ignite/agency-pulse/internal/kanban"
	"github.com/ignite/agency-pulse/internal/klaviyo"
	"github.com/ignite/agency-pulse/internal/pkg/httputil"
	"github.com/ignite/agency-pulse/internal/storage"
)

// DataStore is the slice of the storage layer the handlers use.
// *storage.Store satisfies it; tests substitute an in-memory fake.
type DataStore interface {
	CreateAgency(ctx context.Context, a *storage.Agency) error
	GetAgency(ctx context.Context, id string) (*storage.Agency, error)
	ListAgencies(ctx context.Context) ([]storage.Agency, error)
	UpdateAgency(ctx context.Context, a *storage.Agency) error
	DeleteAgency(ctx context.Context, id string) error

	CreateClient(ctx context.Context, c *storage.Client) error
	GetClient(ctx context.Context, id string) (*storage.Client, error)
	ListClients(ctx context.Context, agencyID string) ([]storage.Client, error)
	UpdateClient(ctx context.Context, c *storage.Client) error
	DeleteClient(ctx context.Context, id string) error

	LoadCampaigns(ctx context.Context, clientID string, timeframeDays int) ([]engine.CampaignRecord, error)
	LoadFlows(ctx context.Context, clientID string) ([]engine.FlowRecord, error)
	LoadFlowTrends(ctx context.Context, clientID string) (map[string][]engine.WeeklyFlowTrendPoint, error)
	LoadFlowMessages(ctx context.Context, clientID, flowID string) ([]engine.FlowMessageRecord, error)
	SaveFlowMessages(ctx context.Context, clientID, flowID string, records []engine.FlowMessageRecord) error
	LoadListGrowth(ctx context.Context, clientID string, timeframeDays int) ([]engine.ListGrowthRecord, error)

	CreateNote(ctx context.Context, n *storage.ContentNote) error
	ListNotes(ctx context.Context, clientID string) ([]storage.ContentNote, error)
	UpdateNote(ctx context.Context, n *storage.ContentNote) error
	DeleteNote(ctx context.Context, id string) error

	CreateCalendarEntry(ctx context.Context, e *storage.CalendarEntry) error
	ListCalendarEntries(ctx context.Context, clientID string, from, to time.Time) ([]storage.CalendarEntry, error)
	DeleteCalendarEntry(ctx context.Context, id string) error
}

// MessageFetcher pulls flow emails from Klaviyo on demand; the flow
// drill-down fetches lazily instead of syncing every message upfront.
type MessageFetcher interface {
	GetFlowMessageStats(ctx context.Context, apiKey, flowID string, lookbackDays int) ([]klaviyo.FlowMessageStats, error)
}

// SyncStatus reports and drives the background collector.
type SyncStatus interface {
	LastSyncTime() time.Time
	IsRunning() bool
	SyncNow(ctx context.Context)
}

// Handlers carries every dependency the HTTP layer needs.
type Handlers struct {
	store     DataStore
	cache     *storage.SnapshotCache
	fetcher   MessageFetcher
	collector SyncStatus
	kanban    *kanban.Service
	startTime time.Time
}

// NewHandlers creates the handler set. cache, fetcher, collector and
// board may be nil; the matching endpoints degrade gracefully.
func NewHandlers(store DataStore, cache *storage.SnapshotCache, fetcher MessageFetcher, collector SyncStatus, board *kanban.Service) *Handlers {
	return &Handlers{
		store:     store,
		cache:     cache,
		fetcher:   fetcher,
		collector: collector,
		kanban:    board,
		startTime: time.Now(),
	}
}

// HealthCheck reports service liveness and sync state.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
	}
	if h.collector != nil {
		resp["sync_running"] = h.collector.IsRunning()
		if last := h.collector.LastSyncTime(); !last.IsZero() {
			resp["last_sync"] = last.Format(time.RFC3339)
		}
	}
	httputil.OK(w, resp)
}

// GetSyncStatus reports the collector's state.
func (h *Handlers) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	if h.collector == nil {
		httputil.OK(w, map[string]any{"enabled": false})
		return
	}
	httputil.OK(w, map[string]any{
		"enabled":   true,
		"running":   h.collector.IsRunning(),
		"last_sync": h.collector.LastSyncTime(),
	})
}

// TriggerSync runs a sync pass in the background.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.collector == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "sync is not enabled")
		return
	}
	go h.collector.SyncNow(context.Background())
	httputil.JSON(w, http.StatusAccepted, map[string]string{"status": "sync started"})
}

// timeframeDays parses the ?days= query parameter. Unknown or missing
// values fall back to 90 days; "all" maps to the full-history window.
func timeframeDays(r *http.Request) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return engine.Timeframe90
	}
	if raw == "all" {
		return engine.TimeframeAll
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return engine.Timeframe90
	}
	return days
}
