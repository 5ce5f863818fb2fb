// Package messaging defines the closed set of messages exchanged between
// the browser surfaces and the agent.
package messaging

import (
	"github.com/user/scamshield-agent/internal/entity"
)

// Type is the "type" discriminator of a message.
type Type string

const (
	TypeTabUpdated          Type = "TAB_UPDATED"
	TypeTabActivated        Type = "TAB_ACTIVATED"
	TypeTabRemoved          Type = "TAB_REMOVED"
	TypeGetSiteDetection    Type = "GET_SITE_DETECTION"
	TypeUpdateSiteDetection Type = "UPDATE_SITE_DETECTION"
	TypeExtractGmailData    Type = "EXTRACT_GMAIL_DATA"
	TypeExtractWebsiteData  Type = "EXTRACT_WEBSITE_DATA"
	TypeStartPostSelection  Type = "START_POST_SELECTION"
	TypeSelectPost          Type = "SELECT_POST"
	TypeCancelPostSelection Type = "CANCEL_POST_SELECTION"
	TypeGetExtractionStatus Type = "GET_EXTRACTION_STATUS"
	TypeAnalyzeEmail        Type = "ANALYZE_EMAIL"
	TypeAnalyzeWebsite      Type = "ANALYZE_WEBSITE"
	TypeAnalyzeSocialPost   Type = "ANALYZE_SOCIAL_POST"
	TypeSubmitReport        Type = "SUBMIT_REPORT"
	TypeGetReportStatus     Type = "GET_REPORT_STATUS"
	TypeSetReportStatus     Type = "SET_REPORT_STATUS"
	TypeClearReportStatus   Type = "CLEAR_REPORT_STATUS"
	TypeGetAnalysisState    Type = "GET_ANALYSIS_STATE"
	TypeSetAnalysisState    Type = "SET_ANALYSIS_STATE"
	TypeClearAnalysisState  Type = "CLEAR_ANALYSIS_STATE"
	TypeShowModal           Type = "SHOW_MODAL"
	TypeShowError           Type = "SHOW_ERROR"
	TypeGetModal            Type = "GET_MODAL"
	TypeDismissModal        Type = "DISMISS_MODAL"
	TypeGetSettings         Type = "GET_SETTINGS"
	TypeSetSettings         Type = "SET_SETTINGS"
	TypeGetHistory          Type = "GET_HISTORY"
)

// Message is implemented by every concrete message struct.
type Message interface {
	MessageType() Type
}

type TabUpdated struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url"`
}

type TabActivated struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url,omitempty"`
}

type TabRemoved struct {
	TabID int `json:"tabId"`
}

type GetSiteDetection struct {
	TabID int `json:"tabId"`
}

type UpdateSiteDetection struct {
	TabID     int                        `json:"tabId"`
	URL       string                     `json:"url"`
	Detection entity.SiteDetectionResult `json:"detection"`
}

// ExtractGmailData asks for the open thread. Snapshot is the serialized
// DOM pushed by the content script; without it the page is rendered.
type ExtractGmailData struct {
	TabID    int                  `json:"tabId"`
	Snapshot *entity.PageSnapshot `json:"snapshot,omitempty"`
}

type ExtractWebsiteData struct {
	TabID    int                  `json:"tabId"`
	Snapshot *entity.PageSnapshot `json:"snapshot,omitempty"`
}

type StartPostSelection struct {
	TabID    int                  `json:"tabId"`
	Snapshot *entity.PageSnapshot `json:"snapshot,omitempty"`
}

// SelectPost reports the user's click on the candidate with Index.
type SelectPost struct {
	TabID int `json:"tabId"`
	Index int `json:"index"`
}

type CancelPostSelection struct {
	TabID int `json:"tabId"`
}

type GetExtractionStatus struct {
	TabID int `json:"tabId"`
}

type AnalyzeEmail struct {
	TabID          int                  `json:"tabId"`
	Snapshot       *entity.PageSnapshot `json:"snapshot,omitempty"`
	TargetLanguage string               `json:"targetLanguage,omitempty"`
}

type AnalyzeWebsite struct {
	TabID          int                  `json:"tabId"`
	Snapshot       *entity.PageSnapshot `json:"snapshot,omitempty"`
	TargetLanguage string               `json:"targetLanguage,omitempty"`
}

type AnalyzeSocialPost struct {
	TabID          int    `json:"tabId"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
}

type SubmitReport struct {
	TabID          int                      `json:"tabId"`
	Content        *entity.ExtractedContent `json:"content"`
	Result         *entity.AnalysisResult   `json:"result,omitempty"`
	TargetLanguage string                   `json:"targetLanguage,omitempty"`
}

type GetReportStatus struct {
	TabID   int                      `json:"tabId"`
	Content *entity.ExtractedContent `json:"content"`
}

type SetReportStatus struct {
	TabID  int                 `json:"tabId"`
	Status entity.ReportStatus `json:"status"`
}

type ClearReportStatus struct {
	TabID   int                      `json:"tabId"`
	Content *entity.ExtractedContent `json:"content"`
}

type GetAnalysisState struct {
	TabID int `json:"tabId"`
}

type SetAnalysisState struct {
	TabID int                     `json:"tabId"`
	State entity.TabAnalysisState `json:"state"`
}

type ClearAnalysisState struct {
	TabID int `json:"tabId"`
}

type ShowModal struct {
	TabID  int                    `json:"tabId"`
	Result *entity.AnalysisResult `json:"result"`
}

type ShowError struct {
	TabID   int    `json:"tabId"`
	Message string `json:"message"`
}

type GetModal struct {
	TabID int `json:"tabId"`
}

type DismissModal struct {
	TabID int `json:"tabId"`
}

type GetSettings struct{}

// SetSettings changes only the fields that are present.
type SetSettings struct {
	AutoDetectionEnabled *bool   `json:"autoDetectionEnabled,omitempty"`
	TargetLanguage       *string `json:"targetLanguage,omitempty"`
}

// GetHistory lists past analyses; Limit <= 0 returns all.
type GetHistory struct {
	Limit int `json:"limit,omitempty"`
}

func (TabUpdated) MessageType() Type          { return TypeTabUpdated }
func (TabActivated) MessageType() Type        { return TypeTabActivated }
func (TabRemoved) MessageType() Type          { return TypeTabRemoved }
func (GetSiteDetection) MessageType() Type    { return TypeGetSiteDetection }
func (UpdateSiteDetection) MessageType() Type { return TypeUpdateSiteDetection }
func (ExtractGmailData) MessageType() Type    { return TypeExtractGmailData }
func (ExtractWebsiteData) MessageType() Type  { return TypeExtractWebsiteData }
func (StartPostSelection) MessageType() Type  { return TypeStartPostSelection }
func (SelectPost) MessageType() Type          { return TypeSelectPost }
func (CancelPostSelection) MessageType() Type { return TypeCancelPostSelection }
func (GetExtractionStatus) MessageType() Type { return TypeGetExtractionStatus }
func (AnalyzeEmail) MessageType() Type        { return TypeAnalyzeEmail }
func (AnalyzeWebsite) MessageType() Type      { return TypeAnalyzeWebsite }
func (AnalyzeSocialPost) MessageType() Type   { return TypeAnalyzeSocialPost }
func (SubmitReport) MessageType() Type        { return TypeSubmitReport }
func (GetReportStatus) MessageType() Type     { return TypeGetReportStatus }
func (SetReportStatus) MessageType() Type     { return TypeSetReportStatus }
func (ClearReportStatus) MessageType() Type   { return TypeClearReportStatus }
func (GetAnalysisState) MessageType() Type    { return TypeGetAnalysisState }
func (SetAnalysisState) MessageType() Type    { return TypeSetAnalysisState }
func (ClearAnalysisState) MessageType() Type  { return TypeClearAnalysisState }
func (ShowModal) MessageType() Type           { return TypeShowModal }
func (ShowError) MessageType() Type           { return TypeShowError }
func (GetModal) MessageType() Type            { return TypeGetModal }
func (DismissModal) MessageType() Type        { return TypeDismissModal }
func (GetSettings) MessageType() Type         { return TypeGetSettings }
func (SetSettings) MessageType() Type         { return TypeSetSettings }
func (GetHistory) MessageType() Type          { return TypeGetHistory }
