package extractor

import "testing"

// fakeNode resolves selectors from a fixed table, so rule ordering can be
// tested without a real DOM.
type fakeNode struct {
	text     string
	attrs    map[string]string
	children map[string][]Node
}

func (f *fakeNode) Find(selector string) []Node { return f.children[selector] }
func (f *fakeNode) Text() string                { return f.text }
func (f *fakeNode) Attr(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

func TestFirstMatchOrder(t *testing.T) {
	root := &fakeNode{children: map[string][]Node{
		".primary":   {&fakeNode{text: "   "}},
		".secondary": {&fakeNode{text: "short"}, &fakeNode{text: "  long enough value  "}},
		".tertiary":  {&fakeNode{text: "never reached"}},
	}}
	rules := []Rule{
		{Selector: ".missing"},
		{Selector: ".primary"},
		{Selector: ".secondary", Validate: minLen(10)},
		{Selector: ".tertiary"},
	}
	got, ok := FirstMatch(root, rules)
	if !ok || got != "long enough value" {
		t.Fatalf("FirstMatch = %q, %v; want %q, true", got, ok, "long enough value")
	}
}

func TestFirstMatchAttrAndTransform(t *testing.T) {
	root := &fakeNode{children: map[string][]Node{
		"span": {
			&fakeNode{attrs: map[string]string{}},
			&fakeNode{attrs: map[string]string{"email": "noreply@bank.com"}},
			&fakeNode{attrs: map[string]string{"email": "alice@bank.com"}},
		},
		".go": {&fakeNode{text: "<bob@example.com>"}},
	}}

	got, ok := FirstMatch(root, []Rule{{Selector: "span", Attr: "email", Validate: IsValidSender}})
	if !ok || got != "alice@bank.com" {
		t.Errorf("attr rule = %q, %v", got, ok)
	}

	got, ok = FirstMatch(root, []Rule{{Selector: ".go", Transform: trimAngles, Validate: IsValidSender}})
	if !ok || got != "bob@example.com" {
		t.Errorf("transform rule = %q, %v", got, ok)
	}
}

func TestFirstMatchExhausted(t *testing.T) {
	if _, ok := FirstMatch(&fakeNode{}, []Rule{{Selector: "h1"}}); ok {
		t.Error("FirstMatch on empty node reported a match")
	}
	if _, ok := FirstMatch(nil, []Rule{{Selector: "h1"}}); ok {
		t.Error("FirstMatch on nil root reported a match")
	}
}

func TestIsValidSender(t *testing.T) {
	tests := map[string]bool{
		"alice@example.com":            true,
		"billing.team@paypa1.co":       true,
		"noreply@example.com":          false,
		"no-reply@accounts.google.com": false,
		"do-not-reply@bank.com":        false,
		"mailer-daemon@googlemail.com": false,
		"notifications@github.com":     false,
		"not an email":                 false,
		"alice@example.com extra":      false,
	}
	for addr, want := range tests {
		if got := IsValidSender(addr); got != want {
			t.Errorf("IsValidSender(%q) = %v, want %v", addr, got, want)
		}
	}
}
