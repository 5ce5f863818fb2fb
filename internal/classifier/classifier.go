// Package classifier maps page URLs to a coarse site category.
//
// Matching is a fixed, ordered walk over regex buckets: exclusions, email
// providers, primary social platforms, other social platforms, then the
// generic website default. The first match wins and confidence is a constant
// per bucket.
package classifier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/user/scamshield-agent/internal/entity"
)

const (
	ConfidenceEmail         = 0.95
	ConfidencePrimarySocial = 0.95
	ConfidenceOtherSocial   = 0.8
	ConfidenceWebsite       = 0.7
)

type pattern struct {
	platform string
	re       *regexp.Regexp
}

var excluded = []*regexp.Regexp{
	regexp.MustCompile(`^(chrome|chrome-extension|chrome-search|moz-extension|edge|brave|opera|vivaldi|about|file|data|blob|javascript|view-source|devtools):`),
	regexp.MustCompile(`^https?://(localhost|0\.0\.0\.0|\[::1\])(:\d+)?([/?#]|$)`),
	regexp.MustCompile(`^https?://127\.\d{1,3}\.\d{1,3}\.\d{1,3}(:\d+)?([/?#]|$)`),
	regexp.MustCompile(`^https?://10\.\d{1,3}\.\d{1,3}\.\d{1,3}(:\d+)?([/?#]|$)`),
	regexp.MustCompile(`^https?://172\.(1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}(:\d+)?([/?#]|$)`),
	regexp.MustCompile(`^https?://192\.168\.\d{1,3}\.\d{1,3}(:\d+)?([/?#]|$)`),
	regexp.MustCompile(`^https?://[^/?#]+\.local(:\d+)?([/?#]|$)`),
}

var emailProviders = []pattern{
	{"gmail", regexp.MustCompile(`^https?://mail\.google\.com/`)},
	{"outlook", regexp.MustCompile(`^https?://(outlook\.live\.com|outlook\.office\.com|outlook\.office365\.com|outlook\.com)/`)},
	{"yahoo", regexp.MustCompile(`^https?://mail\.yahoo\.com/`)},
	{"protonmail", regexp.MustCompile(`^https?://(mail\.proton\.me|mail\.protonmail\.com)/`)},
	{"icloud", regexp.MustCompile(`^https?://(www\.)?icloud\.com/mail`)},
	{"aol", regexp.MustCompile(`^https?://mail\.aol\.com/`)},
}

var primarySocial = []pattern{
	{"facebook", regexp.MustCompile(`^https?://([a-z0-9-]+\.)?(facebook\.com|fb\.com)(/|$)`)},
	{"twitter", regexp.MustCompile(`^https?://(www\.|mobile\.)?(twitter\.com|x\.com)(/|$)`)},
	{"instagram", regexp.MustCompile(`^https?://(www\.)?instagram\.com(/|$)`)},
}

var otherSocial = []pattern{
	{"linkedin", regexp.MustCompile(`^https?://([a-z]+\.)?linkedin\.com(/|$)`)},
	{"tiktok", regexp.MustCompile(`^https?://(www\.)?tiktok\.com(/|$)`)},
	{"reddit", regexp.MustCompile(`^https?://([a-z]+\.)?reddit\.com(/|$)`)},
	{"youtube", regexp.MustCompile(`^https?://(www\.|m\.)?youtube\.com(/|$)`)},
	{"pinterest", regexp.MustCompile(`^https?://([a-z]+\.)?pinterest\.[a-z.]+(/|$)`)},
	{"snapchat", regexp.MustCompile(`^https?://(www\.|web\.)?snapchat\.com(/|$)`)},
	{"tumblr", regexp.MustCompile(`^https?://([a-z0-9-]+\.)?tumblr\.com(/|$)`)},
	{"whatsapp", regexp.MustCompile(`^https?://web\.whatsapp\.com(/|$)`)},
	{"telegram", regexp.MustCompile(`^https?://web\.telegram\.org(/|$)`)},
	{"discord", regexp.MustCompile(`^https?://(www\.)?discord\.com(/|$)`)},
	{"threads", regexp.MustCompile(`^https?://(www\.)?threads\.(net|com)(/|$)`)},
	{"mastodon", regexp.MustCompile(`^https?://mastodon\.(social|online)(/|$)`)},
}

var unknown = entity.SiteDetectionResult{Type: entity.SiteWebsite, Confidence: 0}

// Detect classifies rawURL. It never fails: malformed or excluded input yields
// a website result with zero confidence.
func Detect(rawURL string) entity.SiteDetectionResult {
	raw := strings.TrimSpace(rawURL)
	lower := strings.ToLower(raw)

	for _, re := range excluded {
		if re.MatchString(lower) {
			return unknown
		}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return unknown
	}

	if p, ok := match(emailProviders, lower); ok {
		return entity.SiteDetectionResult{Type: entity.SiteEmail, Platform: p, Confidence: ConfidenceEmail}
	}
	if p, ok := match(primarySocial, lower); ok {
		return entity.SiteDetectionResult{Type: entity.SiteSocial, Platform: p, Confidence: ConfidencePrimarySocial}
	}
	if p, ok := match(otherSocial, lower); ok {
		return entity.SiteDetectionResult{Type: entity.SiteSocial, Platform: p, Confidence: ConfidenceOtherSocial}
	}

	return entity.SiteDetectionResult{
		Type:       entity.SiteWebsite,
		Platform:   strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."),
		Confidence: ConfidenceWebsite,
	}
}

func match(patterns []pattern, s string) (string, bool) {
	for _, p := range patterns {
		if p.re.MatchString(s) {
			return p.platform, true
		}
	}
	return "", false
}

// Badge is the toolbar badge text for a detection.
func Badge(r entity.SiteDetectionResult) string {
	if r.Excluded() {
		return ""
	}
	switch r.Type {
	case entity.SiteEmail:
		return "✉️"
	case entity.SiteSocial:
		return "👥"
	default:
		return "🌐"
	}
}
