package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/agency-pulse/internal/auth"
)

// SetupRoutes builds the router: auth endpoints stay open, everything
// under /api requires a session when auth is enabled.
func SetupRoutes(h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - cookies require credentials, so origins are explicit
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://pulse.ignite.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if authManager != nil {
		r.Use(authManager.Middleware)
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/me", authManager.HandleMe)
	}

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sync/status", h.GetSyncStatus)
		r.Post("/sync/run", h.TriggerSync)

		r.Route("/agencies", func(r chi.Router) {
			r.Get("/", h.ListAgencies)
			r.Post("/", h.CreateAgency)
			r.Put("/{agencyID}", h.UpdateAgency)
			r.Delete("/{agencyID}", h.DeleteAgency)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)

			r.Route("/{clientID}", func(r chi.Router) {
				r.Get("/", h.GetClient)
				r.Put("/", h.UpdateClient)
				r.Delete("/", h.DeleteClient)

				r.Get("/dashboard", h.GetDashboard)
				r.Get("/subjects", h.GetSubjects)
				r.Get("/flows", h.GetFlows)
				r.Get("/flows/{flowID}/emails", h.GetFlowEmails)

				r.Route("/notes", func(r chi.Router) {
					r.Get("/", h.ListNotes)
					r.Post("/", h.CreateNote)
					r.Put("/{noteID}", h.UpdateNote)
					r.Delete("/{noteID}", h.DeleteNote)
				})

				r.Route("/calendar", func(r chi.Router) {
					r.Get("/", h.ListCalendar)
					r.Post("/", h.CreateCalendarEntry)
					r.Delete("/{entryID}", h.DeleteCalendarEntry)
				})

				r.Route("/board", func(r chi.Router) {
					r.Get("/", h.GetBoard)
					r.Get("/due", h.GetBoardDueTasks)
					r.Get("/velocity", h.GetBoardVelocity)
					r.Post("/cards", h.CreateBoardCard)
					r.Put("/cards/{cardID}", h.UpdateBoardCard)
					r.Post("/cards/{cardID}/move", h.MoveBoardCard)
					r.Delete("/cards/{cardID}", h.DeleteBoardCard)
				})
			})
		})
	})

	return r
}
