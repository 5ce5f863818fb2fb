package usecase

import (
	"context"
	"errors"

	"github.com/user/scamshield-agent/internal/backend"
	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/extractor"
)

var (
	ErrNotSocialPage      = errors.New("post selection is only available on a social media page")
	ErrSelectionCancelled = errors.New("post selection was cancelled")
	ErrSelectionTimedOut  = errors.New("post selection timed out")
	ErrNoSelection        = errors.New("no post has been selected")
)

// Analyzer is the analysis backend as the use cases see it.
type Analyzer interface {
	AnalyzeEmail(ctx context.Context, req *backend.EmailRequest) (*entity.AnalysisResult, error)
	AnalyzeWebsite(ctx context.Context, req *backend.WebsiteRequest) (*entity.AnalysisResult, error)
	AnalyzeSocialMedia(ctx context.Context, req *backend.SocialMediaRequest) (*entity.AnalysisResult, error)
	SubmitScamReport(ctx context.Context, req *backend.ReportRequest) (*backend.ReportResponse, error)
}

// ContentExtractor turns page snapshots into content records and runs the
// per-tab post selection sessions.
type ContentExtractor interface {
	Gmail(snap *entity.PageSnapshot) (*entity.GmailData, error)
	Website(snap *entity.PageSnapshot) (*entity.WebsiteData, error)
	StartSelection(tabID int, snap *entity.PageSnapshot, platform string) (int, error)
	SelectPost(tabID, index int) (*entity.SocialPostData, error)
	CancelSelection(tabID int) error
	SelectionStatus(tabID int) extractor.SelectionStatus
	TakeSelection(tabID int) extractor.SelectionStatus
	RemoveSelection(tabID int)
}
