// Package models defines the domain types for clipman.
package models

import "time"

// ContentTypeText is the only content type captured today.
const ContentTypeText = "text"

// Entry is one persisted clipboard record.
//
// ID is zero until the store assigns one. PinOrder is non-nil iff IsPinned.
type Entry struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	Timestamp   time.Time `json:"timestamp"`
	Preview     string    `json:"preview"`
	IsPinned    bool      `json:"is_pinned"`
	PinOrder    *int      `json:"pin_order,omitempty"`
}
