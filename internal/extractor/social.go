package extractor

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/pkg/utils"
)

const (
	// MinImageSize rejects icons and avatars by declared pixel size.
	MinImageSize = 100
	// MinCaptionLength rejects reaction-only or button text captions.
	MinCaptionLength = 10

	NoCaption   = "No caption found"
	UnknownUser = "Unknown user"
)

var ErrUnsupportedPlatform = errors.New("post selection is not supported on this platform")

type socialRules struct {
	posts     []string
	username  []Rule
	caption   []Rule
	images    []string
	timestamp []Rule
	postURL   []Rule
	counters  func(post Node) *entity.EngagementMetrics
}

var facebookRules = socialRules{
	posts: []string{
		"div[role='article'][aria-posinset]",
		"div[data-pagelet^='FeedUnit']",
		"div[role='article']",
	},
	username: []Rule{
		{Selector: "[data-ad-rendering-role='profile_name'] a"},
		{Selector: "h2 strong a"},
		{Selector: "h3 strong a"},
		{Selector: "h4 a"},
		{Selector: "strong span a"},
		{Selector: "a[role='link'] strong"},
	},
	caption: []Rule{
		{Selector: "[data-ad-rendering-role='story_message']", Validate: minLen(MinCaptionLength)},
		{Selector: "div[data-ad-preview='message']", Validate: minLen(MinCaptionLength)},
		{Selector: "div[data-ad-comet-preview='message']", Validate: minLen(MinCaptionLength)},
		{Selector: "div[dir='auto']", Validate: minLen(MinCaptionLength)},
	},
	images: []string{"a[href*='/photo'] img", "img[data-visualcompletion='media-vc-image']", "img"},
	timestamp: []Rule{
		{Selector: "abbr[data-utime]", Attr: "title"},
		{Selector: "a[href*='/posts/']", Attr: "aria-label"},
		{Selector: "a[href*='story_fbid']", Attr: "aria-label"},
		{Selector: "a[href*='/posts/'] span"},
	},
	postURL: []Rule{
		{Selector: "a[href*='/posts/']", Attr: "href"},
		{Selector: "a[href*='story_fbid']", Attr: "href"},
		{Selector: "a[href*='/permalink']", Attr: "href"},
		{Selector: "a[href*='/photo']", Attr: "href"},
	},
	counters: textCounters,
}

var twitterRules = socialRules{
	posts: []string{
		"article[data-testid='tweet']",
		"article[role='article']",
	},
	username: []Rule{
		{Selector: "[data-testid='User-Name'] a[tabindex='-1'] span", Validate: isHandle},
		{Selector: "[data-testid='User-Name'] span", Validate: isHandle},
		{Selector: "[data-testid='User-Name'] a", Attr: "href", Transform: handleFromHref},
	},
	caption: []Rule{
		{Selector: "div[data-testid='tweetText']", Validate: minLen(MinCaptionLength)},
		{Selector: "div[lang]", Validate: minLen(MinCaptionLength)},
	},
	images: []string{"div[data-testid='tweetPhoto'] img", "img[src*='pbs.twimg.com/media']"},
	timestamp: []Rule{
		{Selector: "time", Attr: "datetime"},
	},
	postURL: []Rule{
		{Selector: "a[href*='/status/']", Attr: "href"},
	},
	counters: twitterCounters,
}

func rulesFor(platform string) (socialRules, error) {
	switch platform {
	case "facebook":
		return facebookRules, nil
	case "twitter":
		return twitterRules, nil
	}
	return socialRules{}, ErrUnsupportedPlatform
}

// FindPostCandidates returns the posts on the page a user could select: those
// carrying an acceptable image and no video.
func FindPostCandidates(doc Node, platform string) ([]Node, error) {
	rules, err := rulesFor(platform)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	for _, sel := range rules.posts {
		var out []Node
		for _, post := range doc.Find(sel) {
			if has(post, "video") {
				continue
			}
			if _, ok := postImage(post, rules.images); ok {
				out = append(out, post)
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, nil
}

// ExtractSocialPost scrapes one selected post element.
func ExtractSocialPost(post Node, platform, pageURL string) (*entity.SocialPostData, error) {
	rules, err := rulesFor(platform)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}

	username, ok := FirstMatch(post, rules.username)
	if !ok {
		username = UnknownUser
	}
	caption, ok := FirstMatch(post, rules.caption)
	if !ok {
		caption = NoCaption
	}
	image, _ := postImage(post, rules.images)
	timestamp, _ := FirstMatch(post, rules.timestamp)
	postURL, _ := FirstMatch(post, rules.postURL)

	base, _ := url.Parse(pageURL)
	if base != nil {
		if image != "" {
			image, _ = utils.ToAbsoluteURL(base, image)
		}
		if postURL != "" {
			postURL, _ = utils.ToAbsoluteURL(base, postURL)
		}
	}

	return &entity.SocialPostData{
		Platform:   platform,
		Username:   username,
		Caption:    caption,
		Image:      image,
		PostURL:    postURL,
		Timestamp:  timestamp,
		Engagement: rules.counters(post),
	}, nil
}

var spritePattern = regexp.MustCompile(`(?i)(emoji|profile_images|rsrc\.php|/static\.|\.svg($|\?)|avatar)`)

func postImage(post Node, selectors []string) (string, bool) {
	for _, sel := range selectors {
		for _, img := range post.Find(sel) {
			src, _ := img.Attr("src")
			if src == "" {
				src, _ = img.Attr("data-src")
			}
			if acceptableImage(img, src) {
				return src, true
			}
		}
	}
	return "", false
}

func acceptableImage(img Node, src string) bool {
	if src == "" || strings.HasPrefix(src, "data:") || spritePattern.MatchString(src) {
		return false
	}
	for _, dim := range []string{"width", "height"} {
		if v, ok := img.Attr(dim); ok {
			if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px")); err == nil && n < MinImageSize {
				return false
			}
		}
	}
	return true
}

func isHandle(s string) bool {
	return strings.HasPrefix(s, "@") && len(s) > 1
}

func handleFromHref(href string) string {
	h := strings.Trim(href, "/")
	if h == "" || strings.Contains(h, "/") {
		return ""
	}
	return "@" + h
}

var counterPattern = regexp.MustCompile(`(?i)(\d[\d.,]*\s?[KkMm]?)\s*(likes?|reactions?|comments?|shares?)\b`)

func textCounters(post Node) *entity.EngagementMetrics {
	var m entity.EngagementMetrics
	found := false
	for _, match := range counterPattern.FindAllStringSubmatch(post.Text(), -1) {
		n := ParseCount(match[1])
		switch kind := strings.ToLower(match[2]); {
		case strings.HasPrefix(kind, "like"), strings.HasPrefix(kind, "reaction"):
			m.Likes = max(m.Likes, n)
		case strings.HasPrefix(kind, "comment"):
			m.Comments = max(m.Comments, n)
		case strings.HasPrefix(kind, "share"):
			m.Shares = max(m.Shares, n)
		}
		found = true
	}
	for _, el := range post.Find("[aria-label*='reaction']") {
		label, _ := el.Attr("aria-label")
		if n := ParseCount(label); n > m.Likes {
			m.Likes, found = n, true
		}
	}
	if !found {
		return nil
	}
	return &m
}

func twitterCounters(post Node) *entity.EngagementMetrics {
	read := func(testID string) (int, bool) {
		el, ok := first(post, "[data-testid='"+testID+"']")
		if !ok {
			return 0, false
		}
		label, _ := el.Attr("aria-label")
		if label == "" {
			label = el.Text()
		}
		return ParseCount(label), true
	}
	likes, ok1 := read("like")
	replies, ok2 := read("reply")
	reposts, ok3 := read("retweet")
	if !ok1 && !ok2 && !ok3 {
		return nil
	}
	return &entity.EngagementMetrics{Likes: likes, Comments: replies, Shares: reposts}
}

var countPattern = regexp.MustCompile(`(\d[\d.,]*)\s?([KkMm])?`)

// ParseCount reads the first human-formatted count in s ("1.2K", "3,401", "12 Likes").
func ParseCount(s string) int {
	m := countPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	num := m[1]
	mult := 1.0
	switch strings.ToUpper(m[2]) {
	case "K":
		mult = 1e3
	case "M":
		mult = 1e6
	}
	if mult == 1 {
		n, err := strconv.Atoi(strings.NewReplacer(",", "", ".", "").Replace(num))
		if err != nil {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
	if err != nil {
		return 0
	}
	return int(f * mult)
}
