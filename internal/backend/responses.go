package backend

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"

	"github.com/user/scamshield-agent/internal/entity"
)

// envelope is the outer shape of every backend answer.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Detail  string          `json:"detail"`
}

func (e *envelope) text() string {
	for _, s := range []string{e.Message, e.Error, e.Detail} {
		if s != "" {
			return s
		}
	}
	return ""
}

// flexText accepts either a string or a list of strings.
type flexText string

func (t *flexText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = flexText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*t = flexText(strings.Join(list, "\n"))
	return nil
}

type analysisData struct {
	RiskLevel         string   `json:"risk_level"`
	Analysis          flexText `json:"analysis"`
	Reasons           flexText `json:"reasons"`
	RecommendedAction string   `json:"recommended_action"`
	DetectedLanguage  string   `json:"detected_language"`
	LegitimateURL     string   `json:"legitimate_url"`
}

func (d *analysisData) result(endpoint, lang string) (*entity.AnalysisResult, error) {
	if d.RiskLevel == "" {
		return nil, &MalformedResponseError{Endpoint: endpoint, Reason: "missing risk_level"}
	}
	text := string(d.Analysis)
	if text == "" {
		text = string(d.Reasons)
	}
	return &entity.AnalysisResult{
		RiskLevel:         d.RiskLevel,
		Analysis:          text,
		RecommendedAction: d.RecommendedAction,
		DetectedLanguage:  d.DetectedLanguage,
		TargetLanguage:    lang,
		LegitimateURL:     d.LegitimateURL,
	}, nil
}

// ReportResponse is the data of a successful report submission.
type ReportResponse struct {
	ReportID string `json:"report_id"`
}

type apiKeyResponse struct {
	APIKey string `json:"api_key"`
}

// decodeAnalysis reads the flat {risk_level, ...} data shape.
func decodeAnalysis(endpoint string, data json.RawMessage, lang string) (*entity.AnalysisResult, error) {
	var d analysisData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &MalformedResponseError{Endpoint: endpoint, Reason: err.Error()}
	}
	return d.result(endpoint, lang)
}

// decodeSocialAnalysis reads data keyed by language, preferring lang and
// otherwise taking the first entry in document order.
func decodeSocialAnalysis(endpoint string, data json.RawMessage, lang string) (*entity.AnalysisResult, error) {
	var byLang map[string]json.RawMessage
	if err := json.Unmarshal(data, &byLang); err != nil {
		return nil, &MalformedResponseError{Endpoint: endpoint, Reason: err.Error()}
	}
	if _, flat := byLang["risk_level"]; flat {
		return decodeAnalysis(endpoint, data, lang)
	}
	if raw, ok := byLang[lang]; ok {
		return decodeAnalysis(endpoint, raw, lang)
	}
	key, ok := firstKey(data)
	if !ok {
		return nil, &MalformedResponseError{Endpoint: endpoint, Reason: "no language entries"}
	}
	return decodeAnalysis(endpoint, byLang[key], key)
}

// firstKey returns the first member name of a JSON object.
func firstKey(obj []byte) (string, bool) {
	obj = bytes.TrimSpace(obj)
	if len(obj) < 2 || obj[0] != '{' {
		return "", false
	}
	rest := bytes.TrimLeft(obj[1:], " \t\r\n")
	if len(rest) == 0 || rest[0] != '"' {
		return "", false
	}
	for i := 1; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			i++
		case '"':
			var key string
			if err := json.Unmarshal(rest[:i+1], &key); err != nil {
				return "", false
			}
			return key, true
		}
	}
	return "", false
}
