package messaging

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	ErrMissingType = errors.New("message has no type")
	ErrUnknownType = errors.New("unknown message type")
)

// registry maps every Type to a constructor of its concrete struct.
var registry = map[Type]func() Message{
	TypeTabUpdated:          func() Message { return &TabUpdated{} },
	TypeTabActivated:        func() Message { return &TabActivated{} },
	TypeTabRemoved:          func() Message { return &TabRemoved{} },
	TypeGetSiteDetection:    func() Message { return &GetSiteDetection{} },
	TypeUpdateSiteDetection: func() Message { return &UpdateSiteDetection{} },
	TypeExtractGmailData:    func() Message { return &ExtractGmailData{} },
	TypeExtractWebsiteData:  func() Message { return &ExtractWebsiteData{} },
	TypeStartPostSelection:  func() Message { return &StartPostSelection{} },
	TypeSelectPost:          func() Message { return &SelectPost{} },
	TypeCancelPostSelection: func() Message { return &CancelPostSelection{} },
	TypeGetExtractionStatus: func() Message { return &GetExtractionStatus{} },
	TypeAnalyzeEmail:        func() Message { return &AnalyzeEmail{} },
	TypeAnalyzeWebsite:      func() Message { return &AnalyzeWebsite{} },
	TypeAnalyzeSocialPost:   func() Message { return &AnalyzeSocialPost{} },
	TypeSubmitReport:        func() Message { return &SubmitReport{} },
	TypeGetReportStatus:     func() Message { return &GetReportStatus{} },
	TypeSetReportStatus:     func() Message { return &SetReportStatus{} },
	TypeClearReportStatus:   func() Message { return &ClearReportStatus{} },
	TypeGetAnalysisState:    func() Message { return &GetAnalysisState{} },
	TypeSetAnalysisState:    func() Message { return &SetAnalysisState{} },
	TypeClearAnalysisState:  func() Message { return &ClearAnalysisState{} },
	TypeShowModal:           func() Message { return &ShowModal{} },
	TypeShowError:           func() Message { return &ShowError{} },
	TypeGetModal:            func() Message { return &GetModal{} },
	TypeDismissModal:        func() Message { return &DismissModal{} },
	TypeGetSettings:         func() Message { return &GetSettings{} },
	TypeSetSettings:         func() Message { return &SetSettings{} },
	TypeGetHistory:          func() Message { return &GetHistory{} },
}

// Decode reads {"type": ..., ...fields} into the concrete message for type.
// The returned Message is a pointer to the struct.
func Decode(raw []byte) (Message, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if head.Type == "" {
		return nil, ErrMissingType
	}
	newMsg, ok := registry[head.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, head.Type)
	}
	msg := newMsg()
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Type, err)
	}
	return msg, nil
}

// Response is the reply to every message. A handler with nothing to
// return answers Success with no Data.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(data any) Response {
	return Response{Success: true, Data: data}
}

func Fail(msg string) Response {
	return Response{Success: false, Error: msg}
}
