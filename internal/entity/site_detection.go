package entity

// SiteType is the coarse category of a page.
type SiteType string

const (
	SiteEmail   SiteType = "email"
	SiteSocial  SiteType = "social"
	SiteWebsite SiteType = "website"
)

// SiteDetectionResult is what the classifier produces for a URL.
type SiteDetectionResult struct {
	Type       SiteType `json:"type"`
	Platform   string   `json:"platform,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Excluded reports whether the URL fell into the exclusion bucket.
func (r SiteDetectionResult) Excluded() bool {
	return r.Confidence == 0
}

// TabDetection is the store's record of the last classified navigation of a tab.
type TabDetection struct {
	TabID     int                 `json:"tab_id"`
	URL       string              `json:"url"`
	Detection SiteDetectionResult `json:"detection"`
	Badge     string              `json:"badge"`
}
