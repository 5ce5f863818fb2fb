package backend

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ConnectionError{Tried: []string{"https://a"}}, "Unable to reach"},
		{fmt.Errorf("analyze: %w", &TimeoutError{Endpoint: EndpointEmail}), "took too long"},
		{&AuthError{Status: 401}, "session"},
		{&APIError{Status: 500, Message: "model offline"}, "Analysis failed: model offline"},
		{&APIError{Status: 500}, "returned an error"},
		{&MalformedResponseError{Endpoint: EndpointEmail}, "unexpected response"},
		{errors.New("boom"), "Something went wrong"},
	}
	for _, tt := range tests {
		got := UserMessage(tt.err)
		if tt.want == "" {
			if got != "" {
				t.Errorf("UserMessage(nil) = %q", got)
			}
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("UserMessage(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"":       "en",
		"en":     "en",
		"EN":     "en",
		"pt-br":  "pt-BR",
		"not a!": "en",
	}
	for in, want := range tests {
		if got := NormalizeLanguage(in, "en"); got != want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFirstKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"fr":{},"en":{}}`, "fr", true},
		{" {\n  \"a\\\"b\": 1}", `a"b`, true},
		{`{}`, "", false},
		{`[1,2]`, "", false},
	}
	for _, tt := range tests {
		got, ok := firstKey([]byte(tt.in))
		if got != tt.want || ok != tt.ok {
			t.Errorf("firstKey(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
