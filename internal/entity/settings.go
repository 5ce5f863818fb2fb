package entity

import "time"

// Settings are the user preferences kept in local storage.
type Settings struct {
	AutoDetectionEnabled bool   `json:"auto_detection_enabled"`
	TargetLanguage       string `json:"target_language"`
}

// APIKey is the persisted backend credential.
type APIKey struct {
	Key       string `json:"key"`
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds
}

// Expired reports whether the key is older than ttl at now.
func (k APIKey) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(time.UnixMilli(k.CreatedAt)) > ttl
}

// ModalKind is what the injected page modal shows.
type ModalKind string

const (
	ModalResult ModalKind = "result"
	ModalError  ModalKind = "error"
)

// Modal is the last modal command queued for a tab's content script.
type Modal struct {
	Kind    ModalKind       `json:"kind"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Result  *AnalysisResult `json:"result,omitempty"`
	ShownAt time.Time       `json:"shown_at"`
}
