package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/agency-pulse/internal/engine"
	"github.com/ignite/agency-pulse/internal/klaviyo"
	"github.com/ignite/agency-pulse/internal/storage"
)

// fakeStore is an in-memory DataStore for handler tests.
type fakeStore struct {
	agencies     map[string]storage.Agency
	clients      map[string]storage.Client
	campaigns    map[string][]engine.CampaignRecord
	flows        map[string][]engine.FlowRecord
	trends       map[string]map[string][]engine.WeeklyFlowTrendPoint
	flowMessages map[string][]engine.FlowMessageRecord
	growth       map[string][]engine.ListGrowthRecord
	notes        map[string][]storage.ContentNote
	calendar     map[string][]storage.CalendarEntry

	savedMessages int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		agencies:     map[string]storage.Agency{},
		clients:      map[string]storage.Client{},
		campaigns:    map[string][]engine.CampaignRecord{},
		flows:        map[string][]engine.FlowRecord{},
		trends:       map[string]map[string][]engine.WeeklyFlowTrendPoint{},
		flowMessages: map[string][]engine.FlowMessageRecord{},
		growth:       map[string][]engine.ListGrowthRecord{},
		notes:        map[string][]storage.ContentNote{},
		calendar:     map[string][]storage.CalendarEntry{},
	}
}

func (f *fakeStore) CreateAgency(_ context.Context, a *storage.Agency) error {
	if a.ID == "" {
		a.ID = "agency-" + a.Name
	}
	f.agencies[a.ID] = *a
	return nil
}

func (f *fakeStore) GetAgency(_ context.Context, id string) (*storage.Agency, error) {
	if a, ok := f.agencies[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeStore) ListAgencies(_ context.Context) ([]storage.Agency, error) {
	out := []storage.Agency{}
	for _, a := range f.agencies {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) UpdateAgency(_ context.Context, a *storage.Agency) error {
	f.agencies[a.ID] = *a
	return nil
}

func (f *fakeStore) DeleteAgency(_ context.Context, id string) error {
	delete(f.agencies, id)
	return nil
}

func (f *fakeStore) CreateClient(_ context.Context, c *storage.Client) error {
	if c.ID == "" {
		c.ID = "client-" + c.Name
	}
	f.clients[c.ID] = *c
	return nil
}

func (f *fakeStore) GetClient(_ context.Context, id string) (*storage.Client, error) {
	if c, ok := f.clients[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) ListClients(_ context.Context, agencyID string) ([]storage.Client, error) {
	out := []storage.Client{}
	for _, c := range f.clients {
		if c.AgencyID == agencyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateClient(_ context.Context, c *storage.Client) error {
	f.clients[c.ID] = *c
	return nil
}

func (f *fakeStore) DeleteClient(_ context.Context, id string) error {
	delete(f.clients, id)
	return nil
}

func (f *fakeStore) LoadCampaigns(_ context.Context, clientID string, _ int) ([]engine.CampaignRecord, error) {
	return f.campaigns[clientID], nil
}

func (f *fakeStore) LoadFlows(_ context.Context, clientID string) ([]engine.FlowRecord, error) {
	return f.flows[clientID], nil
}

func (f *fakeStore) LoadFlowTrends(_ context.Context, clientID string) (map[string][]engine.WeeklyFlowTrendPoint, error) {
	if t, ok := f.trends[clientID]; ok {
		return t, nil
	}
	return map[string][]engine.WeeklyFlowTrendPoint{}, nil
}

func (f *fakeStore) LoadFlowMessages(_ context.Context, clientID, flowID string) ([]engine.FlowMessageRecord, error) {
	return f.flowMessages[clientID+"/"+flowID], nil
}

func (f *fakeStore) SaveFlowMessages(_ context.Context, clientID, flowID string, records []engine.FlowMessageRecord) error {
	f.flowMessages[clientID+"/"+flowID] = records
	f.savedMessages++
	return nil
}

func (f *fakeStore) LoadListGrowth(_ context.Context, clientID string, _ int) ([]engine.ListGrowthRecord, error) {
	return f.growth[clientID], nil
}

func (f *fakeStore) CreateNote(_ context.Context, n *storage.ContentNote) error {
	n.ID = "note-1"
	f.notes[n.ClientID] = append(f.notes[n.ClientID], *n)
	return nil
}

func (f *fakeStore) ListNotes(_ context.Context, clientID string) ([]storage.ContentNote, error) {
	return f.notes[clientID], nil
}

func (f *fakeStore) UpdateNote(_ context.Context, n *storage.ContentNote) error { return nil }
func (f *fakeStore) DeleteNote(_ context.Context, id string) error              { return nil }

func (f *fakeStore) CreateCalendarEntry(_ context.Context, e *storage.CalendarEntry) error {
	e.ID = "entry-1"
	f.calendar[e.ClientID] = append(f.calendar[e.ClientID], *e)
	return nil
}

func (f *fakeStore) ListCalendarEntries(_ context.Context, clientID string, _, _ time.Time) ([]storage.CalendarEntry, error) {
	return f.calendar[clientID], nil
}

func (f *fakeStore) DeleteCalendarEntry(_ context.Context, id string) error { return nil }

// fakeFetcher returns canned flow messages.
type fakeFetcher struct {
	stats []klaviyo.FlowMessageStats
	calls int
}

func (f *fakeFetcher) GetFlowMessageStats(_ context.Context, _, _ string, _ int) ([]klaviyo.FlowMessageStats, error) {
	f.calls++
	return f.stats, nil
}

func setupAPI(t *testing.T, store *fakeStore, fetcher MessageFetcher) http.Handler {
	t.Helper()
	h := NewHandlers(store, nil, fetcher, nil, nil)
	return SetupRoutes(h, nil)
}

func seedClient(store *fakeStore) {
	store.clients["client-1"] = storage.Client{
		ID:       "client-1",
		AgencyID: "agency-1",
		Name:     "Acme Apparel",
	}
}

func tsp(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return &parsed
}

func TestGetDashboard_AssemblesSnapshot(t *testing.T) {
	store := newFakeStore()
	seedClient(store)
	store.campaigns["client-1"] = []engine.CampaignRecord{
		{ID: "c1", SentAt: tsp(t, "2026-02-01T10:00:00Z"), Recipients: 1000, Opened: 300, Clicked: 50, Orders: 5, Revenue: 250},
		{ID: "c2", SentAt: tsp(t, "2026-02-08T10:00:00Z"), Recipients: 500, Opened: 100, Clicked: 20, Orders: 2, Revenue: 100},
	}
	router := setupAPI(t, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/client-1/dashboard?days=all", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot DashboardSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, "client-1", snapshot.ClientID)
	assert.Equal(t, 2, snapshot.TotalCampaigns)
	assert.InDelta(t, 350.0, snapshot.TotalRevenue, 0.001)
	assert.Equal(t, 1500, snapshot.Funnel.Recipients)
	assert.Equal(t, 400, snapshot.Funnel.Opens)
	assert.NotEmpty(t, snapshot.RevenueSeries)
}

func TestGetDashboard_UnknownClient(t *testing.T) {
	router := setupAPI(t, newFakeStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/ghost/dashboard", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSubjects_DefaultsToRevenueMetric(t *testing.T) {
	store := newFakeStore()
	seedClient(store)
	store.campaigns["client-1"] = []engine.CampaignRecord{
		{ID: "c1", Subject: "Big sale", Status: engine.CampaignStatusSent, Recipients: 100, Revenue: 50, OpenRate: 0.3},
	}
	router := setupAPI(t, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/client-1/subjects", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report SubjectReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "revenue", report.Metric)
	require.Len(t, report.TopSubjects, 1)
	assert.Equal(t, "Big sale", report.TopSubjects[0].Subject)
}

func TestGetFlows_IncludesRecaps(t *testing.T) {
	store := newFakeStore()
	seedClient(store)
	store.flows["client-1"] = []engine.FlowRecord{
		{ID: "f1", Name: "Welcome Series", Status: engine.FlowStatusLive, Revenue: 900},
	}
	router := setupAPI(t, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/client-1/flows?days=28", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report FlowReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Recaps, 1)
	assert.Equal(t, "Welcome Series", report.Recaps[0].FlowName)
	assert.False(t, report.Recaps[0].HasComparison)
}

func TestGetFlowEmails_LazyFetchesAndStores(t *testing.T) {
	store := newFakeStore()
	store.clients["client-1"] = storage.Client{
		ID: "client-1", AgencyID: "agency-1", Name: "Acme", KlaviyoAPIKey: "pk_test",
	}
	fetcher := &fakeFetcher{stats: []klaviyo.FlowMessageStats{
		{MessageID: "m1", FlowID: "f1", Name: "Welcome Email #2", Subject: "Here's 10% off"},
		{MessageID: "m2", FlowID: "f1", Name: "Welcome Email #1", Subject: "Welcome!"},
	}}
	router := setupAPI(t, store, fetcher)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/client-1/flows/f1/emails", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, store.savedMessages)

	var resp struct {
		Emails []engine.SequencedMessage `json:"emails"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Emails, 2)
	assert.Equal(t, "Email #1", resp.Emails[0].Label)
	assert.Equal(t, "m2", resp.Emails[0].ID)
}

func TestGetFlowEmails_UsesStoredMessages(t *testing.T) {
	store := newFakeStore()
	seedClient(store)
	store.flowMessages["client-1/f1"] = []engine.FlowMessageRecord{
		{ID: "m1", FlowID: "f1", Name: "Email #1"},
	}
	fetcher := &fakeFetcher{}
	router := setupAPI(t, store, fetcher)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/client-1/flows/f1/emails", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, fetcher.calls)
}

func TestCreateClient_RequiresNameAndAgency(t *testing.T) {
	router := setupAPI(t, newFakeStore(), nil)

	body := bytes.NewBufferString(`{"name":"No Agency"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clients/", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateClient_HidesAPIKeyInResponse(t *testing.T) {
	router := setupAPI(t, newFakeStore(), nil)

	body := bytes.NewBufferString(`{"name":"Acme","agency_id":"agency-1","klaviyo_api_key":"pk_secret"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clients/", body))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pk_secret")
}

func TestCreateNote_RequiresTitle(t *testing.T) {
	store := newFakeStore()
	seedClient(store)
	router := setupAPI(t, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clients/client-1/notes/", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	router := setupAPI(t, newFakeStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestTimeframeDays_Parsing(t *testing.T) {
	cases := map[string]int{
		"":        engine.Timeframe90,
		"days=28": 28,
		"days=all": engine.TimeframeAll,
		"days=-5": engine.Timeframe90,
		"days=x":  engine.Timeframe90,
	}
	for query, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
		assert.Equal(t, want, timeframeDays(req), "query %q", query)
	}
}
