package api

import (
	"github.com/starford/clipman/internal/models"
	"github.com/starford/clipman/internal/monitor"
)

// CaptureRequest is the request body for storing a clipboard entry.
type CaptureRequest struct {
	Content string `json:"content" example:"hello world"`
}

// EntryListResponse wraps entry listings.
type EntryListResponse struct {
	Entries []models.Entry `json:"entries"`
	Total   int            `json:"total" example:"42"`
}

// SearchResponse wraps hybrid search results, newest first.
type SearchResponse struct {
	Query   string         `json:"query" example:"hello"`
	Results []models.Entry `json:"results"`
}

// MonitorResponse reports the monitor state.
type MonitorResponse struct {
	Enabled bool `json:"enabled"`
	monitor.Snapshot
}
