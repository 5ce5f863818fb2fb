package entity

import (
	"errors"
	"fmt"
	"time"
)

// ScamType discriminates extracted content and report payloads.
type ScamType string

const (
	ScamEmail       ScamType = "email"
	ScamWebsite     ScamType = "website"
	ScamSocialMedia ScamType = "socialmedia"
)

var ErrUnknownScamType = errors.New("unknown scam type")

// ParseScamType validates s against the known content kinds.
func ParseScamType(s string) (ScamType, error) {
	switch ScamType(s) {
	case ScamEmail, ScamWebsite, ScamSocialMedia:
		return ScamType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScamType, s)
}

// GmailData is what the email extractor scrapes from an open thread.
type GmailData struct {
	Subject      string `json:"subject"`
	FromEmail    string `json:"from_email"`
	ReplyToEmail string `json:"reply_to_email,omitempty"`
	Content      string `json:"content"`
	URL          string `json:"url,omitempty"`
}

// WebsiteData is what the generic page extractor scrapes.
type WebsiteData struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EngagementMetrics are the visible counters under a social post.
type EngagementMetrics struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// SocialPostData is a user-selected Facebook or Twitter post.
type SocialPostData struct {
	Platform             string             `json:"platform"`
	Username             string             `json:"username"`
	Caption              string             `json:"caption"`
	Image                string             `json:"image,omitempty"`
	PostURL              string             `json:"post_url,omitempty"`
	Timestamp            string             `json:"timestamp,omitempty"`
	AuthorFollowersCount int                `json:"author_followers_count,omitempty"`
	Engagement           *EngagementMetrics `json:"engagement_metrics,omitempty"`
}

// ExtractedContent holds exactly one surface record, tagged by Type.
type ExtractedContent struct {
	Type    ScamType        `json:"type"`
	Email   *GmailData      `json:"email,omitempty"`
	Website *WebsiteData    `json:"website,omitempty"`
	Social  *SocialPostData `json:"social,omitempty"`
}

var ErrInvalidContent = errors.New("extracted content does not match its type")

// Validate checks that the record for Type is present.
func (c *ExtractedContent) Validate() error {
	if c == nil {
		return ErrInvalidContent
	}
	if _, err := ParseScamType(string(c.Type)); err != nil {
		return err
	}
	switch c.Type {
	case ScamEmail:
		if c.Email == nil {
			return ErrInvalidContent
		}
	case ScamWebsite:
		if c.Website == nil {
			return ErrInvalidContent
		}
	case ScamSocialMedia:
		if c.Social == nil {
			return ErrInvalidContent
		}
	}
	return nil
}

func EmailContent(d *GmailData) *ExtractedContent {
	return &ExtractedContent{Type: ScamEmail, Email: d}
}

func WebsiteContent(d *WebsiteData) *ExtractedContent {
	return &ExtractedContent{Type: ScamWebsite, Website: d}
}

func SocialContent(d *SocialPostData) *ExtractedContent {
	return &ExtractedContent{Type: ScamSocialMedia, Social: d}
}

// PageSnapshot is a serialized DOM handed to the extractors.
type PageSnapshot struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	StatusCode int       `json:"status_code,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}
