package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/adapter/kvstore"
	"github.com/user/scamshield-agent/internal/adapter/memory"
	"github.com/user/scamshield-agent/internal/backend"
	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/extractor"
	"github.com/user/scamshield-agent/internal/tabstate"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	result  *entity.AnalysisResult
	err     error
	email   []*backend.EmailRequest
	website []*backend.WebsiteRequest
	social  []*backend.SocialMediaRequest
	reports []*backend.ReportRequest
}

func (f *fakeAnalyzer) verdict(lang string) (*entity.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.TargetLanguage = lang
	return &r, nil
}

func (f *fakeAnalyzer) AnalyzeEmail(_ context.Context, req *backend.EmailRequest) (*entity.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = append(f.email, req)
	return f.verdict(req.TargetLanguage)
}

func (f *fakeAnalyzer) AnalyzeWebsite(_ context.Context, req *backend.WebsiteRequest) (*entity.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.website = append(f.website, req)
	return f.verdict(req.TargetLanguage)
}

func (f *fakeAnalyzer) AnalyzeSocialMedia(_ context.Context, req *backend.SocialMediaRequest) (*entity.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.social = append(f.social, req)
	return f.verdict(req.TargetLanguage)
}

func (f *fakeAnalyzer) SubmitScamReport(_ context.Context, req *backend.ReportRequest) (*backend.ReportResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, req)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.ReportResponse{ReportID: "rep-1"}, nil
}

type fakePages struct {
	snap *entity.PageSnapshot
	urls []string
}

func (f *fakePages) Render(_ context.Context, url string) (*entity.PageSnapshot, error) {
	f.urls = append(f.urls, url)
	s := *f.snap
	s.URL = url
	return &s, nil
}

// harness wires the use cases over in-memory collaborators.
type harness struct {
	store     *tabstate.Store
	analyzer  *fakeAnalyzer
	extractor *extractor.Service
	settings  Settings
	history   History
	modals    Modals
	navigator Navigator
	scanner   Scanner
	reporter  Reporter
}

func newHarness(t *testing.T, pages *fakePages) *harness {
	t.Helper()
	logger := zap.NewNop()
	storage := memory.NewLocalStorage()

	h := &harness{
		store:     tabstate.NewStore(),
		analyzer:  &fakeAnalyzer{result: &entity.AnalysisResult{RiskLevel: "High", Analysis: "Phishing", RecommendedAction: "Do not reply"}},
		extractor: extractor.NewService(logger, extractor.NewSelectionManager(time.Minute)),
		settings:  NewSettings(storage, "en"),
		history:   NewHistory(kvstore.NewHistoryRepo(storage), 100, 30*24*time.Hour),
	}
	t.Cleanup(h.store.Close)

	h.modals = NewModals(h.store)
	h.navigator = NewNavigator(h.store, h.settings, h.extractor, logger)
	cfg := ScannerConfig{PollInterval: 5 * time.Millisecond, SelectionTimeout: 2 * time.Second}
	if pages != nil {
		h.scanner = NewScanner(cfg, h.store, h.extractor, h.analyzer, pages, h.settings, h.history, h.modals, logger)
	} else {
		h.scanner = NewScanner(cfg, h.store, h.extractor, h.analyzer, nil, h.settings, h.history, h.modals, logger)
	}
	h.reporter = NewReporter(h.store, h.analyzer, h.settings, logger)
	return h
}

const gmailHTML = `<html><head><title>Urgent - me@gmail.com - Gmail</title></head><body>
  <h2 class="hP">Urgent</h2>
  <span class="gD" email="x@y.com">X</span>
  <div class="a3s aiL">Verify your account now</div>
</body></html>`

const facebookHTML = `<html><body>
  <div role="article" aria-posinset="1">
    <h2><strong><a href="/promo">Promo Page</a></strong></h2>
    <div data-ad-rendering-role="story_message">Claim your free phone today, limited stock!</div>
    <a href="/photo/?fbid=1"><img src="https://scontent.example/phone.jpg" width="600"></a>
  </div>
</body></html>`
