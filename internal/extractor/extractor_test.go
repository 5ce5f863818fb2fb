package extractor

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/entity"
)

func newTestService() *Service {
	return NewService(zap.NewNop(), NewSelectionManager(time.Minute))
}

func TestServiceEmptySnapshot(t *testing.T) {
	s := newTestService()
	if _, err := s.Gmail(nil); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("Gmail(nil) err = %v", err)
	}
	if _, err := s.Website(&entity.PageSnapshot{URL: "https://example.com"}); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("Website(empty) err = %v", err)
	}
}

func TestServiceWebsite(t *testing.T) {
	s := newTestService()
	data, err := s.Website(&entity.PageSnapshot{URL: "https://shop.example.com/sale", HTML: shopHTML})
	if err != nil {
		t.Fatal(err)
	}
	if data.URL != "https://shop.example.com/sale" || data.Title == "" {
		t.Errorf("got %+v", data)
	}
}

func TestServiceStartSelection(t *testing.T) {
	s := newTestService()
	snap := &entity.PageSnapshot{URL: "https://www.facebook.com/", HTML: facebookFeedHTML}
	n, err := s.StartSelection(8, snap, "facebook")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("candidates = %d, want 1", n)
	}
	if st := s.SelectionStatus(8); !st.InProgress {
		t.Errorf("status = %+v, want in progress", st)
	}
	s.RemoveSelection(8)

	if _, err := s.StartSelection(8, snap, "linkedin"); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("err = %v, want ErrUnsupportedPlatform", err)
	}
}

type panicNode struct{}

func (panicNode) Find(string) []Node         { panic("selector engine blew up") }
func (panicNode) Text() string               { return "" }
func (panicNode) Attr(string) (string, bool) { return "", false }

func TestContainRecoversPanic(t *testing.T) {
	s := newTestService()
	run := func() (err error) {
		defer s.contain("gmail", nil, &err)
		ExtractGmail(panicNode{}, "")
		return nil
	}
	if err := run(); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("err = %v, want ErrExtractionFailed", err)
	}
}
