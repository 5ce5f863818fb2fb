package entity

import "time"

// ReportStatus records a submitted scam report, keyed by tab id and content hash.
type ReportStatus struct {
	ReportID     string            `json:"report_id"`
	Timestamp    time.Time         `json:"timestamp"`
	ScamType     ScamType          `json:"scam_type"`
	AnalysisData *ExtractedContent `json:"analysis_data,omitempty"`
}
