package backend

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/user/scamshield-agent/internal/entity"
)

// EmailRequest is the body of POST /email/v2/analyze.
type EmailRequest struct {
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	FromEmail      string `json:"from_email"`
	TargetLanguage string `json:"target_language"`
	ReplyToEmail   string `json:"reply_to_email,omitempty"`
}

// WebsiteRequest is the body of POST /website/v2/analyze.
type WebsiteRequest struct {
	URL            string            `json:"url"`
	Title          string            `json:"title,omitempty"`
	Content        string            `json:"content,omitempty"`
	TargetLanguage string            `json:"target_language"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// SocialMediaRequest is the body of POST /socialmedia/v2/analyze.
type SocialMediaRequest struct {
	Platform             string                    `json:"platform"`
	Content              string                    `json:"content"`
	AuthorUsername       string                    `json:"author_username"`
	TargetLanguage       string                    `json:"target_language"`
	Image                string                    `json:"image,omitempty"`
	PostURL              string                    `json:"post_url,omitempty"`
	AuthorFollowersCount int                       `json:"author_followers_count,omitempty"`
	EngagementMetrics    *entity.EngagementMetrics `json:"engagement_metrics,omitempty"`
}

// ReportRequest is the body of POST /report/v2/submit. Exactly one payload
// matching ScamType is set.
type ReportRequest struct {
	ScamType    entity.ScamType        `json:"scam_type"`
	Email       *EmailRequest          `json:"email_data,omitempty"`
	Website     *WebsiteRequest        `json:"website_data,omitempty"`
	SocialMedia *SocialMediaRequest    `json:"socialmedia_data,omitempty"`
	Analysis    *entity.AnalysisResult `json:"analysis_result,omitempty"`
}

type apiKeyRequest struct {
	ClientID    string `json:"client_id"`
	ClientType  string `json:"client_type"`
	Description string `json:"description"`
}

func NewEmailRequest(d *entity.GmailData, lang string) *EmailRequest {
	return &EmailRequest{
		Subject:        d.Subject,
		Content:        d.Content,
		FromEmail:      d.FromEmail,
		TargetLanguage: lang,
		ReplyToEmail:   d.ReplyToEmail,
	}
}

func NewWebsiteRequest(d *entity.WebsiteData, lang string) *WebsiteRequest {
	return &WebsiteRequest{
		URL:            d.URL,
		Title:          d.Title,
		Content:        d.Content,
		TargetLanguage: lang,
		Metadata:       d.Metadata,
	}
}

func NewSocialMediaRequest(d *entity.SocialPostData, lang string) *SocialMediaRequest {
	return &SocialMediaRequest{
		Platform:             d.Platform,
		Content:              d.Caption,
		AuthorUsername:       d.Username,
		TargetLanguage:       lang,
		Image:                d.Image,
		PostURL:              d.PostURL,
		AuthorFollowersCount: d.AuthorFollowersCount,
		EngagementMetrics:    d.Engagement,
	}
}

// NewReportRequest builds the report union for content.
func NewReportRequest(content *entity.ExtractedContent, result *entity.AnalysisResult, lang string) (*ReportRequest, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}
	req := &ReportRequest{ScamType: content.Type, Analysis: result}
	switch content.Type {
	case entity.ScamEmail:
		req.Email = NewEmailRequest(content.Email, lang)
	case entity.ScamWebsite:
		req.Website = NewWebsiteRequest(content.Website, lang)
	case entity.ScamSocialMedia:
		req.SocialMedia = NewSocialMediaRequest(content.Social, lang)
	}
	return req, nil
}

func (r *ReportRequest) validate() error {
	n := 0
	for _, set := range []bool{r.Email != nil, r.Website != nil, r.SocialMedia != nil} {
		if set {
			n++
		}
	}
	ok := n == 1
	switch r.ScamType {
	case entity.ScamEmail:
		ok = ok && r.Email != nil
	case entity.ScamWebsite:
		ok = ok && r.Website != nil
	case entity.ScamSocialMedia:
		ok = ok && r.SocialMedia != nil
	default:
		return fmt.Errorf("%w: %q", entity.ErrUnknownScamType, r.ScamType)
	}
	if !ok {
		return fmt.Errorf("%w: report payload does not match scam_type %q", entity.ErrInvalidContent, r.ScamType)
	}
	return nil
}

// NormalizeLanguage canonicalises a BCP 47 tag such as "EN" or "pt_br".
// Empty or unparsable input yields def.
func NormalizeLanguage(lang, def string) string {
	if lang == "" {
		return def
	}
	tag, err := language.Parse(lang)
	if err != nil || tag == language.Und {
		return def
	}
	return tag.String()
}
