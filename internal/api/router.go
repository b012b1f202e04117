package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clipman/internal/clipservice"
	"github.com/starford/clipman/internal/monitor"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// state, if non-nil, exposes the monitor pause switch under /monitor.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *clipservice.Service, state *monitor.State, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, state)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.ListEntries)
		r.Post("/", h.CaptureEntry)
		r.Delete("/", h.ClearHistory)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEntry)
			r.Delete("/", h.DeleteEntry)
			r.Post("/pin", h.PinEntry)
			r.Delete("/pin", h.UnpinEntry)
			r.Post("/copy", h.CopyEntry)
		})
	})

	r.Get("/pinned", h.ListPinned)
	r.Get("/search", h.Search)

	r.Get("/monitor", h.MonitorStatus)
	r.Post("/monitor/pause", h.PauseMonitor)
	r.Post("/monitor/resume", h.ResumeMonitor)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
