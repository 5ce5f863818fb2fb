package extractor

import "github.com/user/scamshield-agent/pkg/utils"

// Rule is one selector candidate for a field. Rules for a field are tried in
// order and the first element yielding a usable value wins.
type Rule struct {
	Selector string
	// Attr reads an attribute instead of the element text.
	Attr string
	// Transform rewrites the raw value before validation.
	Transform func(string) string
	// Validate rejects values; nil accepts any non-empty value.
	Validate func(string) bool
}

// FirstMatch walks rules against root and returns the first accepted value.
func FirstMatch(root Node, rules []Rule) (string, bool) {
	if root == nil {
		return "", false
	}
	for _, r := range rules {
		for _, el := range root.Find(r.Selector) {
			if v, ok := r.value(el); ok {
				return v, true
			}
		}
	}
	return "", false
}

func (r Rule) value(el Node) (string, bool) {
	var v string
	if r.Attr != "" {
		a, ok := el.Attr(r.Attr)
		if !ok {
			return "", false
		}
		v = a
	} else {
		v = el.Text()
	}
	v = utils.CleanText(v)
	if r.Transform != nil {
		v = r.Transform(v)
	}
	if v == "" {
		return "", false
	}
	if r.Validate != nil && !r.Validate(v) {
		return "", false
	}
	return v, true
}

func minLen(n int) func(string) bool {
	return func(s string) bool {
		return len([]rune(s)) >= n
	}
}
