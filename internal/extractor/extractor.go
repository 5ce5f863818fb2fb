// Package extractor scrapes structured records out of page DOM snapshots.
//
// Every field is driven by an ordered list of selector Rules; the first
// usable value wins and exhausted fields fall back to text heuristics or
// sentinel values. Social posts additionally go through a user-driven
// selection session (see SelectionManager).
package extractor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/pkg/metrics"
)

var ErrExtractionFailed = errors.New("extraction failed")

// Service wraps the extractors with parsing, logging, metrics and panic containment.
type Service struct {
	logger     *zap.Logger
	selections *SelectionManager
}

func NewService(logger *zap.Logger, selections *SelectionManager) *Service {
	return &Service{logger: logger, selections: selections}
}

// SelectPost completes tabID's selection with the candidate at index.
func (s *Service) SelectPost(tabID, index int) (*entity.SocialPostData, error) {
	data, err := s.selections.Select(tabID, index)
	if err != nil {
		return nil, err
	}
	metrics.ExtractionsTotal.WithLabelValues("social", "ok").Inc()
	return data, nil
}

func (s *Service) CancelSelection(tabID int) error {
	return s.selections.Cancel(tabID)
}

func (s *Service) SelectionStatus(tabID int) SelectionStatus {
	return s.selections.Status(tabID)
}

// TakeSelection returns the selection status and consumes a chosen post.
func (s *Service) TakeSelection(tabID int) SelectionStatus {
	return s.selections.Take(tabID)
}

func (s *Service) RemoveSelection(tabID int) {
	s.selections.Remove(tabID)
}

// Gmail extracts the open email thread of snap.
func (s *Service) Gmail(snap *entity.PageSnapshot) (data *entity.GmailData, err error) {
	defer s.contain("gmail", snap, &err)

	doc, err := s.parse(snap)
	if err != nil {
		return nil, err
	}
	data, complete := ExtractGmail(doc, snap.URL)
	s.observe("gmail", snap.URL, complete)
	return data, nil
}

// Website extracts generic page data from snap.
func (s *Service) Website(snap *entity.PageSnapshot) (data *entity.WebsiteData, err error) {
	defer s.contain("website", snap, &err)

	doc, err := s.parse(snap)
	if err != nil {
		return nil, err
	}
	data, complete := ExtractWebsite(doc, snap.URL)
	s.observe("website", snap.URL, complete)
	return data, nil
}

// StartSelection parses snap and opens a post-selection session for tabID.
func (s *Service) StartSelection(tabID int, snap *entity.PageSnapshot, platform string) (n int, err error) {
	defer s.contain("social", snap, &err)

	doc, err := s.parse(snap)
	if err != nil {
		return 0, err
	}
	n, err = s.selections.Start(tabID, doc, platform, snap.URL)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("social", "failed").Inc()
		s.logger.Info("post selection not started", zap.Int("tab_id", tabID), zap.String("platform", platform), zap.Error(err))
		return 0, err
	}
	s.logger.Debug("post selection started", zap.Int("tab_id", tabID), zap.Int("candidates", n))
	return n, nil
}

func (s *Service) parse(snap *entity.PageSnapshot) (Node, error) {
	if snap == nil || snap.HTML == "" {
		return nil, fmt.Errorf("%w: empty page snapshot", ErrExtractionFailed)
	}
	doc, err := ParseHTML(snap.HTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return doc, nil
}

func (s *Service) observe(surface, url string, complete bool) {
	outcome := "ok"
	if !complete {
		outcome = "partial"
		s.logger.Debug("extraction fell back to sentinel values", zap.String("surface", surface), zap.String("url", url))
	}
	metrics.ExtractionsTotal.WithLabelValues(surface, outcome).Inc()
}

// contain turns a panic inside a selector walk into ErrExtractionFailed.
func (s *Service) contain(surface string, snap *entity.PageSnapshot, errp *error) {
	r := recover()
	if r == nil {
		if *errp != nil && errors.Is(*errp, ErrExtractionFailed) {
			metrics.ExtractionsTotal.WithLabelValues(surface, "failed").Inc()
		}
		return
	}
	url := ""
	if snap != nil {
		url = snap.URL
	}
	s.logger.Error("extractor panicked", zap.String("surface", surface), zap.String("url", url), zap.Any("panic", r))
	metrics.ExtractionsTotal.WithLabelValues(surface, "failed").Inc()
	*errp = fmt.Errorf("%w: %v", ErrExtractionFailed, r)
}
