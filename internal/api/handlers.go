package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clipman/internal/apperr"
	"github.com/starford/clipman/internal/clipservice"
	"github.com/starford/clipman/internal/monitor"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *clipservice.Service
	state *monitor.State
}

// NewHandler creates a new Handler. state may be nil when the monitor is off.
func NewHandler(svc *clipservice.Service, state *monitor.State) *Handler {
	return &Handler{svc: svc, state: state}
}

// entryID parses the {id} URL parameter.
func entryID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List history, pinned entries first
//	@Tags			entries
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries (default 50, max 1000)"
//	@Success		200		{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, "list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: len(entries)})
}

// CaptureEntry handles POST /api/entries.
//
//	@Summary		Store clipboard content as a new entry
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CaptureRequest	true	"Content to store"
//	@Success		201		{object}	models.Entry
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) CaptureEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	e, err := h.svc.Capture(r.Context(), req.Content)
	if err != nil {
		writeError(w, "capture entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// ClearHistory handles DELETE /api/entries.
//
//	@Summary		Delete every entry and empty the search index
//	@Tags			entries
//	@Success		204	"History cleared"
//	@Security		BearerAuth
//	@Router			/entries [delete]
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		writeError(w, "clear history", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEntry handles GET /api/entries/{id}.
//
//	@Summary		Get a single entry
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		int	true	"Entry id"
//	@Success		200	{object}	models.Entry
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteEntry handles DELETE /api/entries/{id}.
//
//	@Summary		Delete an entry
//	@Tags			entries
//	@Param			id	path	int	true	"Entry id"
//	@Success		204	"Entry deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PinEntry handles POST /api/entries/{id}/pin.
//
//	@Summary		Pin an entry after the currently pinned ones
//	@Tags			pins
//	@Produce		json
//	@Param			id	path		int	true	"Entry id"
//	@Success		200	{object}	models.Entry
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id}/pin [post]
func (h *Handler) PinEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	e, err := h.svc.Pin(r.Context(), id)
	if err != nil {
		writeError(w, "pin entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UnpinEntry handles DELETE /api/entries/{id}/pin.
//
//	@Summary		Unpin an entry
//	@Tags			pins
//	@Produce		json
//	@Param			id	path		int	true	"Entry id"
//	@Success		200	{object}	models.Entry
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id}/pin [delete]
func (h *Handler) UnpinEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	e, err := h.svc.Unpin(r.Context(), id)
	if err != nil {
		writeError(w, "unpin entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CopyEntry handles POST /api/entries/{id}/copy.
//
//	@Summary		Write an entry back to the system clipboard
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		int	true	"Entry id"
//	@Success		200	{object}	models.Entry
//	@Failure		404	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id}/copy [post]
func (h *Handler) CopyEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	e, err := h.svc.Copy(r.Context(), id)
	if err != nil {
		writeError(w, "copy entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ListPinned handles GET /api/pinned.
//
//	@Summary		List pinned entries by pin order
//	@Tags			pins
//	@Produce		json
//	@Success		200	{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/pinned [get]
func (h *Handler) ListPinned(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Pinned(r.Context())
	if err != nil {
		writeError(w, "list pinned", err)
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: len(entries)})
}

// Search handles GET /api/search.
//
//	@Summary		Hybrid prefix and full-text search
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}

// MonitorStatus handles GET /api/monitor.
//
//	@Summary		Report whether the clipboard monitor runs and is paused
//	@Tags			monitor
//	@Produce		json
//	@Success		200	{object}	MonitorResponse
//	@Security		BearerAuth
//	@Router			/monitor [get]
func (h *Handler) MonitorStatus(w http.ResponseWriter, _ *http.Request) {
	if h.state == nil {
		writeJSON(w, http.StatusOK, MonitorResponse{})
		return
	}
	writeJSON(w, http.StatusOK, MonitorResponse{Enabled: true, Snapshot: h.state.Snapshot()})
}

// PauseMonitor handles POST /api/monitor/pause.
//
//	@Summary		Stop capturing clipboard changes
//	@Tags			monitor
//	@Produce		json
//	@Success		200	{object}	MonitorResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/monitor/pause [post]
func (h *Handler) PauseMonitor(w http.ResponseWriter, r *http.Request) {
	h.toggleMonitor(w, r, true)
}

// ResumeMonitor handles POST /api/monitor/resume.
//
//	@Summary		Resume capturing clipboard changes
//	@Tags			monitor
//	@Produce		json
//	@Success		200	{object}	MonitorResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/monitor/resume [post]
func (h *Handler) ResumeMonitor(w http.ResponseWriter, r *http.Request) {
	h.toggleMonitor(w, r, false)
}

func (h *Handler) toggleMonitor(w http.ResponseWriter, r *http.Request, pause bool) {
	if h.state == nil {
		writeError(w, "toggle monitor", apperr.ErrUnavailable)
		return
	}
	if pause {
		h.state.Pause()
	} else {
		h.state.Resume()
	}
	h.MonitorStatus(w, r)
}
