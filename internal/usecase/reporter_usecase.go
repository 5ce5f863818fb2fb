package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/backend"
	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/tabstate"
)

// Reporter files scam reports and remembers which content of a tab has
// already been reported.
type Reporter interface {
	// SubmitReport files a report unless the same content was already
	// reported from this tab, in which case the stored status is returned.
	SubmitReport(ctx context.Context, tabID int, content *entity.ExtractedContent, result *entity.AnalysisResult, lang string) (*entity.ReportStatus, error)
	// ReportStatus returns nil when content has not been reported.
	ReportStatus(ctx context.Context, tabID int, content *entity.ExtractedContent) (*entity.ReportStatus, error)
	SetReportStatus(ctx context.Context, tabID int, status entity.ReportStatus) error
	ClearReportStatus(ctx context.Context, tabID int, content *entity.ExtractedContent) error
}

type reporterUseCase struct {
	store    *tabstate.Store
	analyzer Analyzer
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewReporter creates the Reporter use case.
func NewReporter(store *tabstate.Store, analyzer Analyzer, settings Settings, logger *zap.Logger) Reporter {
	return &reporterUseCase{store: store, analyzer: analyzer, settings: settings, logger: logger, now: time.Now}
}

func (uc *reporterUseCase) SubmitReport(ctx context.Context, tabID int, content *entity.ExtractedContent, result *entity.AnalysisResult, lang string) (*entity.ReportStatus, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}
	key := tabstate.ReportKey(tabID, content.Type, content)
	if existing, ok, err := uc.store.Report(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return &existing, nil
	}

	if lang == "" {
		if s, err := uc.settings.Get(ctx); err == nil {
			lang = s.TargetLanguage
		}
	}
	req, err := backend.NewReportRequest(content, result, lang)
	if err != nil {
		return nil, err
	}
	resp, err := uc.analyzer.SubmitScamReport(ctx, req)
	if err != nil {
		uc.logger.Warn("report submission failed", zap.Int("tab_id", tabID), zap.Error(err))
		return nil, err
	}

	status := entity.ReportStatus{
		ReportID:     resp.ReportID,
		Timestamp:    uc.now(),
		ScamType:     content.Type,
		AnalysisData: content,
	}
	if err := uc.save(ctx, tabID, key, status); err != nil {
		return nil, err
	}
	uc.logger.Info("scam report submitted", zap.Int("tab_id", tabID), zap.String("report_id", resp.ReportID))
	return &status, nil
}

func (uc *reporterUseCase) ReportStatus(ctx context.Context, tabID int, content *entity.ExtractedContent) (*entity.ReportStatus, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}
	st, ok, err := uc.store.Report(ctx, tabstate.ReportKey(tabID, content.Type, content))
	if err != nil || !ok {
		return nil, err
	}
	return &st, nil
}

// SetReportStatus stores a status recorded by another surface. The key is
// derived from status.AnalysisData.
func (uc *reporterUseCase) SetReportStatus(ctx context.Context, tabID int, status entity.ReportStatus) error {
	if err := status.AnalysisData.Validate(); err != nil {
		return err
	}
	if status.ScamType == "" {
		status.ScamType = status.AnalysisData.Type
	} else if _, err := entity.ParseScamType(string(status.ScamType)); err != nil {
		return err
	}
	if status.Timestamp.IsZero() {
		status.Timestamp = uc.now()
	}
	return uc.save(ctx, tabID, tabstate.ReportKey(tabID, status.ScamType, status.AnalysisData), status)
}

func (uc *reporterUseCase) ClearReportStatus(ctx context.Context, tabID int, content *entity.ExtractedContent) error {
	if err := content.Validate(); err != nil {
		return err
	}
	key := tabstate.ReportKey(tabID, content.Type, content)
	if err := uc.store.ClearReport(ctx, key); err != nil {
		return err
	}
	return uc.attach(ctx, tabID, content, nil)
}

func (uc *reporterUseCase) save(ctx context.Context, tabID int, key string, status entity.ReportStatus) error {
	if err := uc.store.SetReport(ctx, key, status); err != nil {
		return err
	}
	return uc.attach(ctx, tabID, status.AnalysisData, &status)
}

// attach mirrors status into the tab's analysis state when that state is
// about the same content.
func (uc *reporterUseCase) attach(ctx context.Context, tabID int, content *entity.ExtractedContent, status *entity.ReportStatus) error {
	st, ok, err := uc.store.Analysis(ctx, tabID)
	if err != nil || !ok || st.Content == nil {
		return err
	}
	if tabstate.ReportKey(tabID, st.Content.Type, st.Content) != tabstate.ReportKey(tabID, content.Type, content) {
		return nil
	}
	st.ReportStatus = status
	return uc.store.SetAnalysis(ctx, st)
}
