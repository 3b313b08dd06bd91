package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/agency-pulse/internal/engine"
	"github.com/ignite/agency-pulse/internal/pkg/httputil"
)

// DashboardSnapshot is everything the overview page renders in one
// call: funnel, tiers and the charted series for the client+timeframe.
type DashboardSnapshot struct {
	ClientID      string    `json:"client_id"`
	TimeframeDays int       `json:"timeframe_days"`
	GeneratedAt   time.Time `json:"generated_at"`

	TotalCampaigns int     `json:"total_campaigns"`
	TotalRevenue   float64 `json:"total_revenue"`

	Funnel     engine.Funnel          `json:"funnel"`
	Efficiency engine.EfficiencyTiers `json:"efficiency_tiers"`
	AOV        engine.AOVTiers        `json:"aov_tiers"`

	RevenueSeries       []engine.SeriesPoint `json:"revenue_series"`
	EngagementSeries    []engine.SeriesPoint `json:"engagement_series"`
	RevenuePerRecipient []engine.SeriesPoint `json:"revenue_per_recipient"`
	ListGrowth          []engine.SeriesPoint `json:"list_growth"`
}

// GetDashboard assembles the full metric snapshot for one client.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	days := timeframeDays(r)

	client, err := h.store.GetClient(r.Context(), clientID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if client == nil {
		httputil.NotFound(w, "client not found")
		return
	}

	var snapshot DashboardSnapshot
	if h.cache.Get(r.Context(), clientID, days, &snapshot) {
		httputil.OK(w, snapshot)
		return
	}

	campaigns, err := h.store.LoadCampaigns(r.Context(), clientID, days)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	growth, err := h.store.LoadListGrowth(r.Context(), clientID, days)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	snapshot = DashboardSnapshot{
		ClientID:       clientID,
		TimeframeDays:  days,
		GeneratedAt:    time.Now().UTC(),
		TotalCampaigns: len(campaigns),
		Funnel:         engine.BuildFunnel(campaigns),
		Efficiency:     engine.ClassifyEfficiency(campaigns),
		AOV:            engine.ClassifyAOV(campaigns),
		RevenueSeries:  engine.AggregateSeries(campaigns, []string{engine.FieldRevenue, engine.FieldOrders}, days),
		EngagementSeries: engine.AggregateSeries(campaigns,
			[]string{engine.FieldRecipients, engine.FieldOpens, engine.FieldClicks}, days),
		RevenuePerRecipient: engine.RevenuePerRecipientSeries(campaigns, days),
		ListGrowth:          engine.ListGrowthSeries(growth, days),
	}
	for _, c := range campaigns {
		snapshot.TotalRevenue += c.Revenue
	}

	h.cache.Set(r.Context(), clientID, days, snapshot)
	httputil.OK(w, snapshot)
}

// SubjectReport pairs the feature analysis with the top-subject chart.
type SubjectReport struct {
	ClientID      string                      `json:"client_id"`
	TimeframeDays int                         `json:"timeframe_days"`
	Metric        string                      `json:"metric"`
	Analysis      engine.SubjectAnalysis      `json:"analysis"`
	TopSubjects   []engine.SubjectPerformance `json:"top_subjects"`
}

// GetSubjects mines subject-line features and ranks top subjects.
func (h *Handlers) GetSubjects(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	days := timeframeDays(r)
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "revenue"
	}

	campaigns, err := h.store.LoadCampaigns(r.Context(), clientID, days)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, SubjectReport{
		ClientID:      clientID,
		TimeframeDays: days,
		Metric:        metric,
		Analysis:      engine.MineSubjectFeatures(campaigns),
		TopSubjects:   engine.TopSubjects(campaigns, metric),
	})
}

// FlowReport lists flows alongside their prior-period recaps.
type FlowReport struct {
	ClientID      string              `json:"client_id"`
	TimeframeDays int                 `json:"timeframe_days"`
	Flows         []engine.FlowRecord `json:"flows"`
	Recaps        []engine.FlowRecap  `json:"recaps"`
}

// GetFlows returns the client's flows with period-over-period recaps.
func (h *Handlers) GetFlows(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	days := timeframeDays(r)

	flows, err := h.store.LoadFlows(r.Context(), clientID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	trends, err := h.store.LoadFlowTrends(r.Context(), clientID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, FlowReport{
		ClientID:      clientID,
		TimeframeDays: days,
		Flows:         flows,
		Recaps:        engine.RecapFlows(flows, trends, days),
	})
}

// GetFlowEmails returns a flow's emails in sequence order. Messages
// are fetched from Klaviyo on first request and stored for later.
func (h *Handlers) GetFlowEmails(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	flowID := chi.URLParam(r, "flowID")
	days := timeframeDays(r)

	messages, err := h.store.LoadFlowMessages(r.Context(), clientID, flowID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	if len(messages) == 0 && h.fetcher != nil {
		client, err := h.store.GetClient(r.Context(), clientID)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		if client == nil {
			httputil.NotFound(w, "client not found")
			return
		}
		if client.KlaviyoAPIKey != "" {
			stats, err := h.fetcher.GetFlowMessageStats(r.Context(), client.KlaviyoAPIKey, flowID, days)
			if err != nil {
				httputil.InternalError(w, err)
				return
			}
			messages = make([]engine.FlowMessageRecord, 0, len(stats))
			for _, s := range stats {
				messages = append(messages, s.ToFlowMessageRecord())
			}
			if err := h.store.SaveFlowMessages(r.Context(), clientID, flowID, messages); err != nil {
				httputil.InternalError(w, err)
				return
			}
		}
	}

	httputil.OK(w, map[string]any{
		"client_id": clientID,
		"flow_id":   flowID,
		"emails":    engine.ResolveSequence(messages),
	})
}
