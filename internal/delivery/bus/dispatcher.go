// Package bus dispatches decoded messages to the use cases.
package bus

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/messaging"
	"github.com/user/scamshield-agent/internal/usecase"
	"github.com/user/scamshield-agent/pkg/metrics"
)

var ErrUnhandled = errors.New("no handler for message")

// Dispatcher is the agent's message handler.
type Dispatcher struct {
	navigator usecase.Navigator
	scanner   usecase.Scanner
	reporter  usecase.Reporter
	settings  usecase.Settings
	history   usecase.History
	modals    usecase.Modals
	logger    *zap.Logger
}

func NewDispatcher(
	navigator usecase.Navigator,
	scanner usecase.Scanner,
	reporter usecase.Reporter,
	settings usecase.Settings,
	history usecase.History,
	modals usecase.Modals,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		navigator: navigator,
		scanner:   scanner,
		reporter:  reporter,
		settings:  settings,
		history:   history,
		modals:    modals,
		logger:    logger,
	}
}

// DispatchRaw decodes raw and dispatches it. Decoding failures are
// reported as unsuccessful responses.
func (d *Dispatcher) DispatchRaw(ctx context.Context, raw []byte) (messaging.Response, error) {
	msg, err := messaging.Decode(raw)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("invalid", "error").Inc()
		return messaging.Fail(err.Error()), err
	}
	return d.Dispatch(ctx, msg), nil
}

// Dispatch runs the handler for msg. It never panics: a panicking handler
// yields an unsuccessful response.
func (d *Dispatcher) Dispatch(ctx context.Context, msg messaging.Message) (resp messaging.Response) {
	typ := string(msg.MessageType())
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("message handler panicked", zap.String("type", typ), zap.Any("panic", r), zap.Stack("stack"))
			resp = messaging.Fail(fmt.Sprintf("internal error handling %s", typ))
		}
		result := "ok"
		if !resp.Success {
			result = "error"
		}
		metrics.MessagesTotal.WithLabelValues(typ, result).Inc()
	}()

	data, err := d.handle(ctx, msg)
	if err != nil {
		d.logger.Warn("message failed", zap.String("type", typ), zap.Error(err))
		return messaging.Fail(usecase.FailureMessage(err))
	}
	return messaging.OK(data)
}

func (d *Dispatcher) handle(ctx context.Context, msg messaging.Message) (any, error) {
	switch m := msg.(type) {
	case *messaging.TabUpdated:
		return d.navigator.TabUpdated(ctx, m.TabID, m.URL)
	case *messaging.TabActivated:
		return d.navigator.TabActivated(ctx, m.TabID, m.URL)
	case *messaging.TabRemoved:
		return nil, d.navigator.TabRemoved(ctx, m.TabID)
	case *messaging.GetSiteDetection:
		return d.navigator.Detection(ctx, m.TabID)
	case *messaging.UpdateSiteDetection:
		return d.navigator.UpdateDetection(ctx, m.TabID, m.URL, m.Detection)

	case *messaging.ExtractGmailData:
		return d.scanner.ExtractEmail(ctx, m.TabID, m.Snapshot)
	case *messaging.ExtractWebsiteData:
		return d.scanner.ExtractWebsite(ctx, m.TabID, m.Snapshot)
	case *messaging.StartPostSelection:
		n, err := d.scanner.StartPostSelection(ctx, m.TabID, m.Snapshot)
		if err != nil {
			return nil, err
		}
		return map[string]int{"candidates": n}, nil
	case *messaging.SelectPost:
		return d.scanner.SelectPost(ctx, m.TabID, m.Index)
	case *messaging.CancelPostSelection:
		return nil, d.scanner.CancelPostSelection(ctx, m.TabID)
	case *messaging.GetExtractionStatus:
		return d.scanner.ExtractionStatus(ctx, m.TabID), nil

	case *messaging.AnalyzeEmail:
		return d.scanner.ScanEmail(ctx, m.TabID, m.Snapshot, m.TargetLanguage)
	case *messaging.AnalyzeWebsite:
		return d.scanner.ScanWebsite(ctx, m.TabID, m.Snapshot, m.TargetLanguage)
	case *messaging.AnalyzeSocialPost:
		return d.scanner.ScanSocialPost(ctx, m.TabID, m.TargetLanguage)

	case *messaging.SubmitReport:
		return d.reporter.SubmitReport(ctx, m.TabID, m.Content, m.Result, m.TargetLanguage)
	case *messaging.GetReportStatus:
		return d.reporter.ReportStatus(ctx, m.TabID, m.Content)
	case *messaging.SetReportStatus:
		return nil, d.reporter.SetReportStatus(ctx, m.TabID, m.Status)
	case *messaging.ClearReportStatus:
		return nil, d.reporter.ClearReportStatus(ctx, m.TabID, m.Content)

	case *messaging.GetAnalysisState:
		return d.scanner.AnalysisState(ctx, m.TabID)
	case *messaging.SetAnalysisState:
		m.State.TabID = m.TabID
		return nil, d.scanner.SetAnalysisState(ctx, m.State)
	case *messaging.ClearAnalysisState:
		return nil, d.scanner.ClearAnalysisState(ctx, m.TabID)

	case *messaging.ShowModal:
		if m.Result == nil {
			return nil, fmt.Errorf("%s: missing result", m.MessageType())
		}
		return d.modals.ShowResult(ctx, m.TabID, m.Result)
	case *messaging.ShowError:
		return d.modals.ShowError(ctx, m.TabID, m.Message)
	case *messaging.GetModal:
		return d.modals.Get(ctx, m.TabID)
	case *messaging.DismissModal:
		return nil, d.modals.Dismiss(ctx, m.TabID)

	case *messaging.GetSettings:
		return d.settings.Get(ctx)
	case *messaging.SetSettings:
		return d.settings.Update(ctx, usecase.SettingsPatch{
			AutoDetectionEnabled: m.AutoDetectionEnabled,
			TargetLanguage:       m.TargetLanguage,
		})
	case *messaging.GetHistory:
		return d.history.List(ctx, m.Limit)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnhandled, msg)
}
