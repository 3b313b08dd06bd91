package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/agency-pulse/internal/pkg/httputil"
	"github.com/ignite/agency-pulse/internal/storage"
)

// Agency administration

func (h *Handlers) ListAgencies(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.store.ListAgencies(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, agencies)
}

func (h *Handlers) CreateAgency(w http.ResponseWriter, r *http.Request) {
	var agency storage.Agency
	if !httputil.Decode(w, r, &agency) {
		return
	}
	if agency.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	if err := h.store.CreateAgency(r.Context(), &agency); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, agency)
}

func (h *Handlers) UpdateAgency(w http.ResponseWriter, r *http.Request) {
	var agency storage.Agency
	if !httputil.Decode(w, r, &agency) {
		return
	}
	agency.ID = chi.URLParam(r, "agencyID")
	if err := h.store.UpdateAgency(r.Context(), &agency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, "agency not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, agency)
}

func (h *Handlers) DeleteAgency(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAgency(r.Context(), chi.URLParam(r, "agencyID")); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// Client administration

type clientRequest struct {
	AgencyID      string `json:"agency_id"`
	Name          string `json:"name"`
	KlaviyoAPIKey string `json:"klaviyo_api_key"`
	LogoURL       string `json:"logo_url"`
	BrandColor    string `json:"brand_color"`
}

func (h *Handlers) ListClients(w http.ResponseWriter, r *http.Request) {
	agencyID := r.URL.Query().Get("agency_id")
	if agencyID == "" {
		httputil.BadRequest(w, "agency_id is required")
		return
	}
	clients, err := h.store.ListClients(r.Context(), agencyID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, clients)
}

func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.store.GetClient(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if client == nil {
		httputil.NotFound(w, "client not found")
		return
	}
	httputil.OK(w, client)
}

func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.AgencyID == "" {
		httputil.BadRequest(w, "name and agency_id are required")
		return
	}
	client := storage.Client{
		AgencyID:      req.AgencyID,
		Name:          req.Name,
		KlaviyoAPIKey: req.KlaviyoAPIKey,
		LogoURL:       req.LogoURL,
		BrandColor:    req.BrandColor,
	}
	if err := h.store.CreateClient(r.Context(), &client); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, client)
}

func (h *Handlers) UpdateClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	existing, err := h.store.GetClient(r.Context(), clientID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if existing == nil {
		httputil.NotFound(w, "client not found")
		return
	}

	var req clientRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	// An empty key in the request keeps the stored key.
	if req.KlaviyoAPIKey != "" {
		existing.KlaviyoAPIKey = req.KlaviyoAPIKey
	}
	if req.LogoURL != "" {
		existing.LogoURL = req.LogoURL
	}
	if req.BrandColor != "" {
		existing.BrandColor = req.BrandColor
	}

	if err := h.store.UpdateClient(r.Context(), existing); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, existing)
}

func (h *Handlers) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteClient(r.Context(), chi.URLParam(r, "clientID")); err != nil {
		httputil.InternalError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), chi.URLParam(r, "clientID"))
	}
	httputil.NoContent(w)
}

// Content notes

func (h *Handlers) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.ListNotes(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, notes)
}

func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	var note storage.ContentNote
	if !httputil.Decode(w, r, &note) {
		return
	}
	if note.Title == "" {
		httputil.BadRequest(w, "title is required")
		return
	}
	note.ClientID = chi.URLParam(r, "clientID")
	if err := h.store.CreateNote(r.Context(), &note); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, note)
}

func (h *Handlers) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var note storage.ContentNote
	if !httputil.Decode(w, r, &note) {
		return
	}
	note.ID = chi.URLParam(r, "noteID")
	if err := h.store.UpdateNote(r.Context(), &note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, "note not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, note)
}

func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteNote(r.Context(), chi.URLParam(r, "noteID")); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// Content calendar

func (h *Handlers) ListCalendar(w http.ResponseWriter, r *http.Request) {
	from, to := calendarWindow(r)
	entries, err := h.store.ListCalendarEntries(r.Context(), chi.URLParam(r, "clientID"), from, to)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, entries)
}

func (h *Handlers) CreateCalendarEntry(w http.ResponseWriter, r *http.Request) {
	var entry storage.CalendarEntry
	if !httputil.Decode(w, r, &entry) {
		return
	}
	if entry.Title == "" || entry.ScheduledFor.IsZero() {
		httputil.BadRequest(w, "title and scheduled_for are required")
		return
	}
	entry.ClientID = chi.URLParam(r, "clientID")
	if err := h.store.CreateCalendarEntry(r.Context(), &entry); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, entry)
}

func (h *Handlers) DeleteCalendarEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCalendarEntry(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// calendarWindow parses ?from=/&to= (RFC 3339 dates). Defaults to the
// current month.
func calendarWindow(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if raw := r.URL.Query().Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			from = t
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			to = t
		}
	}
	return from, to
}
