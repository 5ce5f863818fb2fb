package entity

import "time"

// AnalysisResult is the backend verdict for one piece of content.
type AnalysisResult struct {
	RiskLevel         string `json:"risk_level"`
	Analysis          string `json:"analysis"`
	RecommendedAction string `json:"recommended_action"`
	DetectedLanguage  string `json:"detected_language,omitempty"`
	TargetLanguage    string `json:"target_language"`
	LegitimateURL     string `json:"legitimate_url,omitempty"`
}

// TabAnalysisState lets a reopened panel restore the last scan of a tab.
type TabAnalysisState struct {
	TabID        int               `json:"tab_id"`
	URL          string            `json:"url"`
	Result       *AnalysisResult   `json:"result,omitempty"`
	Content      *ExtractedContent `json:"content,omitempty"`
	ReportStatus *ReportStatus     `json:"report_status,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// HistoryEntry is one line of the capped analysis log.
type HistoryEntry struct {
	ID                string    `json:"id"`
	TabID             int       `json:"tab_id"`
	URL               string    `json:"url"`
	ScamType          ScamType  `json:"scam_type"`
	RiskLevel         string    `json:"risk_level"`
	Analysis          string    `json:"analysis"`
	RecommendedAction string    `json:"recommended_action"`
	TargetLanguage    string    `json:"target_language"`
	AnalyzedAt        time.Time `json:"analyzed_at"`
}
