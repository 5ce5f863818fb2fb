package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/backend"
	"github.com/user/scamshield-agent/internal/classifier"
	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/extractor"
	"github.com/user/scamshield-agent/internal/repository"
	"github.com/user/scamshield-agent/internal/tabstate"
)

// Scanner drives extraction and analysis of a tab's content and keeps the
// tab's analysis state in step with the outcome.
type Scanner interface {
	ExtractEmail(ctx context.Context, tabID int, snap *entity.PageSnapshot) (*entity.GmailData, error)
	ExtractWebsite(ctx context.Context, tabID int, snap *entity.PageSnapshot) (*entity.WebsiteData, error)

	ScanEmail(ctx context.Context, tabID int, snap *entity.PageSnapshot, lang string) (*entity.TabAnalysisState, error)
	ScanWebsite(ctx context.Context, tabID int, snap *entity.PageSnapshot, lang string) (*entity.TabAnalysisState, error)

	StartPostSelection(ctx context.Context, tabID int, snap *entity.PageSnapshot) (int, error)
	SelectPost(ctx context.Context, tabID, index int) (*entity.SocialPostData, error)
	CancelPostSelection(ctx context.Context, tabID int) error
	ExtractionStatus(ctx context.Context, tabID int) extractor.SelectionStatus
	// ScanSocialPost waits for the tab's post selection to finish and
	// analyses the chosen post.
	ScanSocialPost(ctx context.Context, tabID int, lang string) (*entity.TabAnalysisState, error)

	AnalysisState(ctx context.Context, tabID int) (*entity.TabAnalysisState, error)
	SetAnalysisState(ctx context.Context, state entity.TabAnalysisState) error
	ClearAnalysisState(ctx context.Context, tabID int) error
}

// ScannerConfig bounds the social post wait.
type ScannerConfig struct {
	PollInterval     time.Duration
	SelectionTimeout time.Duration
}

type scannerUseCase struct {
	cfg       ScannerConfig
	store     *tabstate.Store
	extractor ContentExtractor
	analyzer  Analyzer
	pages     repository.PageSource
	settings  Settings
	history   History
	modals    Modals
	logger    *zap.Logger
	now       func() time.Time
}

// NewScanner creates the Scanner use case. pages may be nil, in which case
// every scan needs a pushed HTML snapshot.
func NewScanner(
	cfg ScannerConfig,
	store *tabstate.Store,
	extractor ContentExtractor,
	analyzer Analyzer,
	pages repository.PageSource,
	settings Settings,
	history History,
	modals Modals,
	logger *zap.Logger,
) Scanner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.SelectionTimeout <= 0 {
		cfg.SelectionTimeout = 60 * time.Second
	}
	return &scannerUseCase{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		analyzer:  analyzer,
		pages:     pages,
		settings:  settings,
		history:   history,
		modals:    modals,
		logger:    logger,
		now:       time.Now,
	}
}

// snapshot returns snap when it carries HTML and otherwise renders the
// page, using the stored detection URL if snap has none.
func (uc *scannerUseCase) snapshot(ctx context.Context, tabID int, snap *entity.PageSnapshot) (*entity.PageSnapshot, error) {
	if snap != nil && snap.HTML != "" {
		return snap, nil
	}
	url := ""
	if snap != nil {
		url = snap.URL
	}
	if url == "" {
		if d, ok, err := uc.store.Detection(ctx, tabID); err == nil && ok {
			url = d.URL
		}
	}
	if uc.pages == nil || url == "" {
		return nil, repository.ErrNoPageSource
	}
	return uc.pages.Render(ctx, url)
}

func (uc *scannerUseCase) language(ctx context.Context, lang string) string {
	if lang != "" {
		return lang
	}
	s, err := uc.settings.Get(ctx)
	if err != nil {
		uc.logger.Warn("reading settings", zap.Error(err))
		return ""
	}
	return s.TargetLanguage
}

func (uc *scannerUseCase) ExtractEmail(ctx context.Context, tabID int, snap *entity.PageSnapshot) (*entity.GmailData, error) {
	snap, err := uc.snapshot(ctx, tabID, snap)
	if err != nil {
		return nil, err
	}
	return uc.extractor.Gmail(snap)
}

func (uc *scannerUseCase) ExtractWebsite(ctx context.Context, tabID int, snap *entity.PageSnapshot) (*entity.WebsiteData, error) {
	snap, err := uc.snapshot(ctx, tabID, snap)
	if err != nil {
		return nil, err
	}
	return uc.extractor.Website(snap)
}

func (uc *scannerUseCase) ScanEmail(ctx context.Context, tabID int, snap *entity.PageSnapshot, lang string) (*entity.TabAnalysisState, error) {
	data, err := uc.ExtractEmail(ctx, tabID, snap)
	if err != nil {
		return nil, uc.fail(ctx, tabID, err)
	}
	lang = uc.language(ctx, lang)
	result, err := uc.analyzer.AnalyzeEmail(ctx, backend.NewEmailRequest(data, lang))
	return uc.complete(ctx, tabID, data.URL, entity.EmailContent(data), result, err)
}

func (uc *scannerUseCase) ScanWebsite(ctx context.Context, tabID int, snap *entity.PageSnapshot, lang string) (*entity.TabAnalysisState, error) {
	data, err := uc.ExtractWebsite(ctx, tabID, snap)
	if err != nil {
		return nil, uc.fail(ctx, tabID, err)
	}
	lang = uc.language(ctx, lang)
	result, err := uc.analyzer.AnalyzeWebsite(ctx, backend.NewWebsiteRequest(data, lang))
	return uc.complete(ctx, tabID, data.URL, entity.WebsiteContent(data), result, err)
}

// StartPostSelection opens a selection session on a social page. The
// platform comes from the stored detection, or from classifying the
// snapshot URL.
func (uc *scannerUseCase) StartPostSelection(ctx context.Context, tabID int, snap *entity.PageSnapshot) (int, error) {
	snap, err := uc.snapshot(ctx, tabID, snap)
	if err != nil {
		return 0, err
	}
	detection := classifier.Detect(snap.URL)
	if snap.URL == "" {
		if d, ok, err := uc.store.Detection(ctx, tabID); err == nil && ok {
			detection = d.Detection
		}
	}
	if detection.Type != entity.SiteSocial {
		return 0, ErrNotSocialPage
	}
	return uc.extractor.StartSelection(tabID, snap, detection.Platform)
}

func (uc *scannerUseCase) SelectPost(_ context.Context, tabID, index int) (*entity.SocialPostData, error) {
	return uc.extractor.SelectPost(tabID, index)
}

func (uc *scannerUseCase) CancelPostSelection(_ context.Context, tabID int) error {
	return uc.extractor.CancelSelection(tabID)
}

func (uc *scannerUseCase) ExtractionStatus(_ context.Context, tabID int) extractor.SelectionStatus {
	return uc.extractor.SelectionStatus(tabID)
}

func (uc *scannerUseCase) ScanSocialPost(ctx context.Context, tabID int, lang string) (*entity.TabAnalysisState, error) {
	post, err := uc.awaitSelection(ctx, tabID)
	if err != nil {
		return nil, uc.fail(ctx, tabID, err)
	}
	lang = uc.language(ctx, lang)
	result, err := uc.analyzer.AnalyzeSocialMedia(ctx, backend.NewSocialMediaRequest(post, lang))
	return uc.complete(ctx, tabID, post.PostURL, entity.SocialContent(post), result, err)
}

// awaitSelection polls the selection status until a post is chosen, the
// session ends another way, or the wait cap passes. A chosen post is
// consumed, so the next scan needs a new selection.
func (uc *scannerUseCase) awaitSelection(ctx context.Context, tabID int) (*entity.SocialPostData, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.SelectionTimeout)
	defer cancel()

	ticker := time.NewTicker(uc.cfg.PollInterval)
	defer ticker.Stop()

	for {
		st := uc.extractor.TakeSelection(tabID)
		switch st.State {
		case extractor.StateSelected:
			if st.Data == nil {
				return nil, ErrNoSelection
			}
			return st.Data, nil
		case extractor.StateCancelled:
			return nil, ErrSelectionCancelled
		case extractor.StateTimedOut:
			return nil, ErrSelectionTimedOut
		case extractor.StateIdle:
			return nil, ErrNoSelection
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrSelectionTimedOut
			}
			return nil, ctx.Err()
		}
	}
}

// complete records the outcome of an analysis call.
func (uc *scannerUseCase) complete(ctx context.Context, tabID int, url string, content *entity.ExtractedContent, result *entity.AnalysisResult, err error) (*entity.TabAnalysisState, error) {
	if err != nil {
		return nil, uc.fail(ctx, tabID, err)
	}

	state := entity.TabAnalysisState{
		TabID:     tabID,
		URL:       url,
		Result:    result,
		Content:   content,
		UpdatedAt: uc.now(),
	}
	key := tabstate.ReportKey(tabID, content.Type, content)
	if rs, ok, err := uc.store.Report(ctx, key); err == nil && ok {
		state.ReportStatus = &rs
	}
	if err := uc.store.SetAnalysis(ctx, state); err != nil {
		return nil, err
	}
	if _, err := uc.history.Record(ctx, tabID, url, content, result); err != nil {
		uc.logger.Warn("recording history", zap.Int("tab_id", tabID), zap.Error(err))
	}
	if _, err := uc.modals.ShowResult(ctx, tabID, result); err != nil {
		uc.logger.Warn("queueing result modal", zap.Int("tab_id", tabID), zap.Error(err))
	}
	uc.logger.Info("analysis complete",
		zap.Int("tab_id", tabID),
		zap.String("scam_type", string(content.Type)),
		zap.String("risk_level", result.RiskLevel),
	)
	return &state, nil
}

// fail clears whatever the tab showed before, queues an error modal and
// returns err unchanged.
func (uc *scannerUseCase) fail(ctx context.Context, tabID int, err error) error {
	if cerr := uc.store.ClearAnalysis(ctx, tabID); cerr != nil {
		uc.logger.Warn("clearing analysis state", zap.Int("tab_id", tabID), zap.Error(cerr))
	}
	if _, merr := uc.modals.ShowError(ctx, tabID, FailureMessage(err)); merr != nil {
		uc.logger.Warn("queueing error modal", zap.Int("tab_id", tabID), zap.Error(merr))
	}
	uc.logger.Warn("analysis failed", zap.Int("tab_id", tabID), zap.Error(err))
	return err
}

func (uc *scannerUseCase) AnalysisState(ctx context.Context, tabID int) (*entity.TabAnalysisState, error) {
	st, ok, err := uc.store.Analysis(ctx, tabID)
	if err != nil || !ok {
		return nil, err
	}
	return &st, nil
}

func (uc *scannerUseCase) SetAnalysisState(ctx context.Context, state entity.TabAnalysisState) error {
	if state.Content != nil {
		if err := state.Content.Validate(); err != nil {
			return err
		}
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = uc.now()
	}
	return uc.store.SetAnalysis(ctx, state)
}

func (uc *scannerUseCase) ClearAnalysisState(ctx context.Context, tabID int) error {
	return uc.store.ClearAnalysis(ctx, tabID)
}

// FailureMessage is the user-facing text for any scan or report failure.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrNoPageSource):
		return "Page content is not available. Reload the page and try again."
	case errors.Is(err, repository.ErrRenderTimeout), errors.Is(err, repository.ErrNavigationFailed):
		return "The page could not be loaded for analysis."
	case errors.Is(err, extractor.ErrExtractionFailed):
		return "Could not read the content of this page."
	case errors.Is(err, ErrSelectionCancelled):
		return "Post selection was cancelled."
	case errors.Is(err, ErrSelectionTimedOut):
		return "No post was selected in time. Please try again."
	case errors.Is(err, ErrNoSelection), errors.Is(err, extractor.ErrNotAwaiting):
		return "Select a post to analyse first."
	case errors.Is(err, extractor.ErrNoCandidates):
		return "No posts with images were found on this page."
	case errors.Is(err, ErrNotSocialPage), errors.Is(err, extractor.ErrUnsupportedPlatform):
		return "Post analysis is available on Facebook and X (Twitter)."
	case errors.Is(err, entity.ErrInvalidContent), errors.Is(err, entity.ErrUnknownScamType):
		return "The analysed content is incomplete. Please run the analysis again."
	}
	return backend.UserMessage(err)
}
