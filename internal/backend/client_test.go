package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/adapter/memory"
	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/repository"
)

const emailOK = `{"success":true,"data":{"risk_level":"High","reasons":"Urgent tone and credential request","recommended_action":"Do not click links","detected_language":"en"}}`

// backendStub answers health probes with health, issues numbered keys and
// hands analysis calls to respond.
type backendStub struct {
	mu      sync.Mutex
	calls   map[string]int
	keys    []string
	health  int
	respond func(w http.ResponseWriter, r *http.Request)
}

func newStub(respond func(w http.ResponseWriter, r *http.Request)) (*backendStub, *httptest.Server) {
	b := &backendStub{calls: make(map[string]int), health: http.StatusOK, respond: respond}
	srv := httptest.NewServer(b)
	return b, srv
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.Method+" "+r.URL.Path]++
	health := b.health
	b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet:
		w.WriteHeader(health)
	case r.URL.Path == EndpointAPIKey:
		var req apiKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" || req.ClientType != "browser_extension" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		key := fmt.Sprintf("key-%d", len(b.keys)+1)
		b.keys = append(b.keys, key)
		b.mu.Unlock()
		fmt.Fprintf(w, `{"success":true,"data":{"api_key":%q}}`, key)
	default:
		if r.Header.Get("X-API-Key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b.respond(w, r)
	}
}

func (b *backendStub) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

func (b *backendStub) setHealth(status int) {
	b.mu.Lock()
	b.health = status
	b.mu.Unlock()
}

func reply(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, body)
	}
}

func newTestClient(storage repository.LocalStorage, primary string, fallbacks ...string) *Client {
	return NewClient(Config{
		BaseURL:       primary,
		FallbackURLs:  fallbacks,
		Timeout:       2 * time.Second,
		HealthTimeout: time.Second,
	}, storage, zap.NewNop())
}

func emailRequest() *EmailRequest {
	return &EmailRequest{Subject: "Urgent", Content: "Verify your account now", FromEmail: "x@y.com", TargetLanguage: "en"}
}

func TestAnalyzeEmail(t *testing.T) {
	var got EmailRequest
	stub, srv := newStub(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, emailOK)
	})
	defer srv.Close()

	c := newTestClient(memory.NewLocalStorage(), srv.URL)
	res, err := c.AnalyzeEmail(context.Background(), emailRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.RiskLevel != "High" || res.Analysis != "Urgent tone and credential request" || res.TargetLanguage != "en" {
		t.Errorf("result = %+v", res)
	}
	if got.Subject != "Urgent" || got.FromEmail != "x@y.com" {
		t.Errorf("request body = %+v", got)
	}
	if n := stub.count(http.MethodGet, "/email/"); n != 1 {
		t.Errorf("health probes = %d, want 1", n)
	}
}

func TestAPIKeyReusedWithinTTL(t *testing.T) {
	stub, srv := newStub(reply(emailOK))
	defer srv.Close()

	c := newTestClient(memory.NewLocalStorage(), srv.URL)
	ctx := context.Background()

	first, err := c.GetOrCreateAPIKey(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.GetOrCreateAPIKey(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("keys differ: %q vs %q", first, second)
	}
	if _, err := c.AnalyzeEmail(ctx, emailRequest()); err != nil {
		t.Fatal(err)
	}
	if n := stub.count(http.MethodPost, EndpointAPIKey); n != 1 {
		t.Errorf("key issuance calls = %d, want 1", n)
	}
}

func TestAPIKeyExpiredAfterTTL(t *testing.T) {
	stub, srv := newStub(reply(emailOK))
	defer srv.Close()

	storage := memory.NewLocalStorage()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	old, _ := json.Marshal(entity.APIKey{Key: "stale", CreatedAt: now.Add(-31 * 24 * time.Hour).UnixMilli()})
	storage.Set(context.Background(), repository.KeyAPIKey, old)

	c := newTestClient(storage, srv.URL)
	c.now = func() time.Time { return now }

	key, err := c.GetOrCreateAPIKey(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if key == "stale" {
		t.Fatal("expired key was reused")
	}
	if n := stub.count(http.MethodPost, EndpointAPIKey); n != 1 {
		t.Errorf("key issuance calls = %d, want 1", n)
	}

	raw, err := storage.Get(context.Background(), repository.KeyAPIKey)
	if err != nil {
		t.Fatal(err)
	}
	var stored entity.APIKey
	json.Unmarshal(raw, &stored)
	if stored.Key != key || stored.CreatedAt != now.UnixMilli() {
		t.Errorf("stored key = %+v", stored)
	}
}

func TestAPIKeyFreshWithinTTL(t *testing.T) {
	stub, srv := newStub(reply(emailOK))
	defer srv.Close()

	storage := memory.NewLocalStorage()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fresh, _ := json.Marshal(entity.APIKey{Key: "cached", CreatedAt: now.Add(-29 * 24 * time.Hour).UnixMilli()})
	storage.Set(context.Background(), repository.KeyAPIKey, fresh)

	c := newTestClient(storage, srv.URL)
	c.now = func() time.Time { return now }

	key, err := c.GetOrCreateAPIKey(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if key != "cached" {
		t.Errorf("key = %q, want cached", key)
	}
	if n := stub.count(http.MethodPost, EndpointAPIKey); n != 0 {
		t.Errorf("key issuance calls = %d, want 0", n)
	}
}

func TestUnauthorizedDiscardsKeyWithoutRetry(t *testing.T) {
	stub, srv := newStub(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"API key expired"}`)
	})
	defer srv.Close()

	storage := memory.NewLocalStorage()
	c := newTestClient(storage, srv.URL)

	_, err := c.AnalyzeEmail(context.Background(), emailRequest())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if authErr.Message != "API key expired" {
		t.Errorf("message = %q", authErr.Message)
	}
	if n := stub.count(http.MethodPost, EndpointEmail); n != 1 {
		t.Errorf("analyze calls = %d, want exactly 1", n)
	}
	if _, err := storage.Get(context.Background(), repository.KeyAPIKey); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("rejected key still stored (err = %v)", err)
	}

	// The next call mints a fresh key.
	c.AnalyzeEmail(context.Background(), emailRequest())
	if n := stub.count(http.MethodPost, EndpointAPIKey); n != 2 {
		t.Errorf("key issuance calls = %d, want 2", n)
	}
}

func TestFailoverIsSticky(t *testing.T) {
	primaryStub, primary := newStub(reply(emailOK))
	defer primary.Close()
	fallbackStub, fallback := newStub(reply(emailOK))
	defer fallback.Close()

	primaryStub.setHealth(http.StatusServiceUnavailable)
	c := newTestClient(memory.NewLocalStorage(), primary.URL, fallback.URL)
	ctx := context.Background()

	if _, err := c.AnalyzeEmail(ctx, emailRequest()); err != nil {
		t.Fatal(err)
	}
	if c.ActiveBaseURL() != fallback.URL {
		t.Fatalf("active = %q, want fallback", c.ActiveBaseURL())
	}
	if n := fallbackStub.count(http.MethodPost, EndpointEmail); n != 1 {
		t.Errorf("fallback analyze calls = %d, want 1", n)
	}

	// Primary recovers, but the active fallback is probed first and kept.
	primaryStub.setHealth(http.StatusOK)
	if _, err := c.AnalyzeEmail(ctx, emailRequest()); err != nil {
		t.Fatal(err)
	}
	if c.ActiveBaseURL() != fallback.URL {
		t.Errorf("active = %q, want fallback to stay active", c.ActiveBaseURL())
	}
	if n := primaryStub.count(http.MethodGet, "/email/"); n != 1 {
		t.Errorf("primary probes = %d, want 1", n)
	}
}

func TestAllCandidatesDown(t *testing.T) {
	stub, srv := newStub(reply(emailOK))
	defer srv.Close()
	stub.setHealth(http.StatusBadGateway)

	c := newTestClient(memory.NewLocalStorage(), srv.URL, "http://127.0.0.1:1")
	_, err := c.AnalyzeEmail(context.Background(), emailRequest())
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %v, want ConnectionError", err)
	}
	if len(connErr.Tried) != 2 {
		t.Errorf("tried = %v, want both candidates", connErr.Tried)
	}
	if n := stub.count(http.MethodGet, "/email/"); n != 1 {
		t.Errorf("probes = %d, want a single pass", n)
	}
}

func TestResponseErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"success false", 200, `{"success":false,"message":"quota exceeded"}`, func(err error) bool {
			var e *APIError
			return errors.As(err, &e) && e.Message == "quota exceeded"
		}},
		{"missing data", 200, `{"success":true}`, func(err error) bool {
			var e *MalformedResponseError
			return errors.As(err, &e)
		}},
		{"missing risk level", 200, `{"success":true,"data":{"reasons":"x"}}`, func(err error) bool {
			var e *MalformedResponseError
			return errors.As(err, &e)
		}},
		{"not json", 200, `<html>oops</html>`, func(err error) bool {
			var e *MalformedResponseError
			return errors.As(err, &e)
		}},
		{"server error with message", 500, `{"error":"model offline"}`, func(err error) bool {
			var e *APIError
			return errors.As(err, &e) && e.Status == 500 && e.Message == "model offline"
		}},
		{"server error plain", 502, `bad gateway`, func(err error) bool {
			var e *APIError
			return errors.As(err, &e) && e.Message == "Bad Gateway"
		}},
		{"forbidden", 403, `{}`, func(err error) bool {
			var e *AuthError
			return errors.As(err, &e) && e.Status == 403
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newStub(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			defer srv.Close()

			c := newTestClient(memory.NewLocalStorage(), srv.URL)
			_, err := c.AnalyzeEmail(context.Background(), emailRequest())
			if !tt.check(err) {
				t.Errorf("unexpected error %T: %v", err, err)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	_, srv := newStub(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	defer srv.Close()

	c := newTestClient(memory.NewLocalStorage(), srv.URL)
	c.cfg.Timeout = 100 * time.Millisecond

	_, err := c.AnalyzeWebsite(context.Background(), &WebsiteRequest{URL: "https://example.com"})
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
}

func TestAnalyzeSocialMediaLanguagePick(t *testing.T) {
	body := `{"success":true,"data":{
		"fr":{"risk_level":"Élevé","analysis":"Arnaque","recommended_action":"Ignorer"},
		"en":{"risk_level":"High","reasons":["Giveaway bait","New account"],"recommended_action":"Ignore"}}}`
	_, srv := newStub(reply(body))
	defer srv.Close()
	c := newTestClient(memory.NewLocalStorage(), srv.URL)

	res, err := c.AnalyzeSocialMedia(context.Background(), &SocialMediaRequest{Platform: "facebook", Content: "free btc", AuthorUsername: "x", TargetLanguage: "EN"})
	if err != nil {
		t.Fatal(err)
	}
	if res.RiskLevel != "High" || res.Analysis != "Giveaway bait\nNew account" || res.TargetLanguage != "en" {
		t.Errorf("en result = %+v", res)
	}

	res, err = c.AnalyzeSocialMedia(context.Background(), &SocialMediaRequest{Platform: "facebook", Content: "free btc", AuthorUsername: "x", TargetLanguage: "de"})
	if err != nil {
		t.Fatal(err)
	}
	if res.RiskLevel != "Élevé" || res.TargetLanguage != "fr" {
		t.Errorf("fallback result = %+v, want the first entry", res)
	}
}

func TestSubmitScamReport(t *testing.T) {
	var got ReportRequest
	stub, srv := newStub(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"success":true,"data":{"report_id":"rep-42"}}`)
	})
	defer srv.Close()
	c := newTestClient(memory.NewLocalStorage(), srv.URL)

	content := entity.WebsiteContent(&entity.WebsiteData{URL: "https://shop.example", Title: "Sale"})
	req, err := NewReportRequest(content, &entity.AnalysisResult{RiskLevel: "High"}, "en")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.SubmitScamReport(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.ReportID != "rep-42" {
		t.Errorf("ReportID = %q", resp.ReportID)
	}
	if got.ScamType != entity.ScamWebsite || got.Website == nil || got.Website.URL != "https://shop.example" || got.Email != nil {
		t.Errorf("report body = %+v", got)
	}
	if n := stub.count(http.MethodGet, "/report/"); n != 1 {
		t.Errorf("report probes = %d, want 1", n)
	}

	bad := &ReportRequest{ScamType: entity.ScamEmail, Website: req.Website}
	if _, err := c.SubmitScamReport(context.Background(), bad); !errors.Is(err, entity.ErrInvalidContent) {
		t.Errorf("mismatched union err = %v", err)
	}
}

func TestConcurrentColdStartMintsOnce(t *testing.T) {
	release := make(chan struct{})
	stub := &backendStub{calls: make(map[string]int), health: http.StatusOK, respond: reply(emailOK)}
	// Hold the issuance request so every caller piles up behind it.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == EndpointAPIKey {
			<-release
		}
		stub.ServeHTTP(w, r)
	}))
	defer srv.Close()

	c := newTestClient(memory.NewLocalStorage(), srv.URL)
	var wg sync.WaitGroup
	keys := make([]string, 5)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i], _ = c.GetOrCreateAPIKey(context.Background())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, k := range keys {
		if k != "key-1" {
			t.Errorf("key = %q, want key-1", k)
		}
	}
	if n := stub.count(http.MethodPost, EndpointAPIKey); n != 1 {
		t.Errorf("key issuance calls = %d, want 1", n)
	}
}

func TestMintSurvivesCancelledLeader(t *testing.T) {
	release := make(chan struct{})
	stub := &backendStub{calls: make(map[string]int), health: http.StatusOK, respond: reply(emailOK)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == EndpointAPIKey {
			<-release
		}
		stub.ServeHTTP(w, r)
	}))
	defer srv.Close()

	c := newTestClient(memory.NewLocalStorage(), srv.URL)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrCreateAPIKey(leaderCtx)
		leaderErr <- err
	}()
	time.Sleep(30 * time.Millisecond)

	followerKey := make(chan string, 1)
	go func() {
		k, _ := c.GetOrCreateAPIKey(context.Background())
		followerKey <- k
	}()
	time.Sleep(30 * time.Millisecond)

	cancelLeader()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("leader err = %v, want context.Canceled", err)
	}
	close(release)

	if k := <-followerKey; k != "key-1" {
		t.Errorf("follower key = %q, want key-1", k)
	}
	if n := stub.count(http.MethodPost, EndpointAPIKey); n != 1 {
		t.Errorf("key issuance calls = %d, want 1", n)
	}
}

func TestMintCallerDeadlineIsTimeout(t *testing.T) {
	release := make(chan struct{})
	stub := &backendStub{calls: make(map[string]int), health: http.StatusOK, respond: reply(emailOK)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == EndpointAPIKey {
			<-release
		}
		stub.ServeHTTP(w, r)
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(memory.NewLocalStorage(), srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	_, err := c.GetOrCreateAPIKey(ctx)
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
}
