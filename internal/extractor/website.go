package extractor

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/pkg/utils"
)

// MaxWebsiteContent caps the body text sent for analysis, in runes.
const MaxWebsiteContent = 5000

var websiteTitleRules = []Rule{
	{Selector: "title"},
	{Selector: "meta[property='og:title']", Attr: "content"},
	{Selector: "meta[name='twitter:title']", Attr: "content"},
	{Selector: "h1"},
}

var websiteContentRules = []Rule{
	{Selector: "main", Validate: minLen(200)},
	{Selector: "article", Validate: minLen(200)},
	{Selector: "[role='main']", Validate: minLen(200)},
	{Selector: "body"},
}

// ExtractWebsite scrapes generic page metadata and visible text.
func ExtractWebsite(doc Node, pageURL string) (*entity.WebsiteData, bool) {
	if doc == nil {
		return nil, false
	}

	title, titleOK := FirstMatch(doc, websiteTitleRules)
	content, contentOK := FirstMatch(doc, websiteContentRules)

	data := &entity.WebsiteData{
		URL:      pageURL,
		Title:    title,
		Content:  utils.TruncateRunes(content, MaxWebsiteContent),
		Metadata: make(map[string]string),
	}

	for _, m := range doc.Find("meta") {
		name, _ := m.Attr("name")
		property, _ := m.Attr("property")
		value, _ := m.Attr("content")
		key := name
		if property != "" {
			key = property
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if !interestingMeta(key) || value == "" {
			continue
		}
		data.Metadata[key] = utils.CleanText(value)
	}

	if lang, ok := FirstMatch(doc, []Rule{{Selector: "html[lang]", Attr: "lang"}}); ok {
		data.Metadata["lang"] = lang
	}
	if canonical, ok := FirstMatch(doc, []Rule{{Selector: "link[rel='canonical']", Attr: "href"}}); ok {
		data.Metadata["canonical"] = canonical
	}

	forms := doc.Find("form")
	data.Metadata["form_count"] = strconv.Itoa(len(forms))
	data.Metadata["has_password_form"] = strconv.FormatBool(has(doc, "input[type='password']"))
	data.Metadata["external_link_count"] = strconv.Itoa(countExternalLinks(doc, pageURL))

	return data, titleOK && contentOK
}

func interestingMeta(key string) bool {
	switch key {
	case "description", "keywords", "author", "generator", "robots", "application-name":
		return true
	}
	return strings.HasPrefix(key, "og:") || strings.HasPrefix(key, "twitter:")
}

func countExternalLinks(doc Node, pageURL string) int {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return 0
	}
	host := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")
	n := 0
	for _, a := range doc.Find("a[href]") {
		href, _ := a.Attr("href")
		abs, err := utils.ToAbsoluteURL(base, strings.TrimSpace(href))
		if err != nil {
			continue
		}
		u, err := url.Parse(abs)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") != host {
			n++
		}
	}
	return n
}
