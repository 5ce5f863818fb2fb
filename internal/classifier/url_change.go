package classifier

import (
	"net/url"
	"strings"

	"github.com/user/scamshield-agent/pkg/utils"
)

var facebookPostParams = []string{"story_fbid", "fbid", "v", "id", "set"}

// IsSignificantURLChange decides whether navigating from oldURL to newURL
// should trigger reclassification. Fragment and query changes only count on
// providers whose single-page apps encode the open item there.
func IsSignificantURLChange(oldURL, newURL string) bool {
	if oldURL == "" {
		return true
	}
	if oldURL == newURL {
		return false
	}
	if utils.StripURL(oldURL) != utils.StripURL(newURL) {
		return true
	}

	switch Detect(newURL).Platform {
	case "gmail":
		return gmailViewChanged(utils.Fragment(oldURL), utils.Fragment(newURL))
	case "facebook":
		return facebookPostChanged(oldURL, newURL)
	}
	return false
}

// gmailViewChanged compares "#label/threadId" fragments.
func gmailViewChanged(oldFrag, newFrag string) bool {
	if oldFrag == newFrag {
		return false
	}
	oldView, oldThread := splitGmailFragment(oldFrag)
	newView, newThread := splitGmailFragment(newFrag)
	if oldThread != newThread {
		return true
	}
	return newThread == "" && oldView != newView
}

func splitGmailFragment(frag string) (view, thread string) {
	i := strings.LastIndexByte(frag, '/')
	if i < 0 {
		return frag, ""
	}
	tail := frag[i+1:]
	// Thread ids are long opaque tokens; short segments are nested labels.
	if len(tail) >= 16 && !strings.ContainsAny(tail, " %") {
		return frag[:i], tail
	}
	return frag, ""
}

func facebookPostChanged(oldURL, newURL string) bool {
	o, err1 := url.Parse(oldURL)
	n, err2 := url.Parse(newURL)
	if err1 != nil || err2 != nil {
		return true
	}
	oq, nq := o.Query(), n.Query()
	for _, p := range facebookPostParams {
		if oq.Get(p) != nq.Get(p) {
			return true
		}
	}
	path := strings.ToLower(n.Path)
	isPostPath := strings.Contains(path, "/posts/") ||
		strings.Contains(path, "/photo") ||
		strings.Contains(path, "/permalink") ||
		strings.Contains(path, "/watch") ||
		strings.Contains(path, "/story.php")
	return isPostPath && o.RawQuery != n.RawQuery
}
