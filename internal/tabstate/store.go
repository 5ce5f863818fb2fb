// Package tabstate holds the per-tab in-memory state of the agent.
//
// A single goroutine owns every map. Callers submit commands over a channel
// and block until the owner has run them, so reads and writes are applied
// one at a time in arrival order.
package tabstate

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/pkg/metrics"
)

var ErrClosed = errors.New("tab state store closed")

type state struct {
	detections map[int]entity.TabDetection
	analysis   map[int]entity.TabAnalysisState
	reports    map[string]entity.ReportStatus
	modals     map[int]entity.Modal
	// urls is the last URL each tab navigated to, tracked even while
	// auto detection is off.
	urls map[int]string
}

type command struct {
	apply func(*state)
	done  chan struct{}
}

// Store is the actor owning all tab state.
type Store struct {
	cmds      chan command
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewStore() *Store {
	s := &Store{
		cmds:    make(chan command),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop(&state{
		detections: make(map[int]entity.TabDetection),
		analysis:   make(map[int]entity.TabAnalysisState),
		reports:    make(map[string]entity.ReportStatus),
		modals:     make(map[int]entity.Modal),
		urls:       make(map[int]string),
	})
	return s
}

func (s *Store) loop(st *state) {
	defer close(s.stopped)
	for {
		select {
		case cmd := <-s.cmds:
			cmd.apply(st)
			metrics.LiveTabs.Set(float64(st.liveTabs()))
			close(cmd.done)
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the owner goroutine and waits for it.
func (s *Store) do(ctx context.Context, fn func(*state)) error {
	cmd := command{apply: fn, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-cmd.done
	return nil
}

// Close stops the owner goroutine. Later calls fail with ErrClosed.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.stopped
}

func (st *state) liveTabs() int {
	tabs := make(map[int]struct{}, len(st.detections))
	for id := range st.detections {
		tabs[id] = struct{}{}
	}
	for id := range st.analysis {
		tabs[id] = struct{}{}
	}
	return len(tabs)
}

// Visit records url as the tab's current location and returns the previous
// one, or "" for a tab never seen.
func (s *Store) Visit(ctx context.Context, tabID int, url string) (prev string, err error) {
	err = s.do(ctx, func(st *state) {
		prev = st.urls[tabID]
		st.urls[tabID] = url
	})
	return prev, err
}

func (s *Store) SetDetection(ctx context.Context, d entity.TabDetection) error {
	return s.do(ctx, func(st *state) { st.detections[d.TabID] = d })
}

// Detection returns the last classification stored for tabID.
func (s *Store) Detection(ctx context.Context, tabID int) (d entity.TabDetection, ok bool, err error) {
	err = s.do(ctx, func(st *state) { d, ok = st.detections[tabID] })
	return d, ok, err
}

func (s *Store) ClearDetection(ctx context.Context, tabID int) error {
	return s.do(ctx, func(st *state) { delete(st.detections, tabID) })
}

func (s *Store) SetAnalysis(ctx context.Context, a entity.TabAnalysisState) error {
	return s.do(ctx, func(st *state) { st.analysis[a.TabID] = a })
}

func (s *Store) Analysis(ctx context.Context, tabID int) (a entity.TabAnalysisState, ok bool, err error) {
	err = s.do(ctx, func(st *state) { a, ok = st.analysis[tabID] })
	return a, ok, err
}

func (s *Store) ClearAnalysis(ctx context.Context, tabID int) error {
	return s.do(ctx, func(st *state) { delete(st.analysis, tabID) })
}

func (s *Store) SetReport(ctx context.Context, key string, r entity.ReportStatus) error {
	return s.do(ctx, func(st *state) { st.reports[key] = r })
}

// Report looks up a report status by its dedup key (see ReportKey).
func (s *Store) Report(ctx context.Context, key string) (r entity.ReportStatus, ok bool, err error) {
	err = s.do(ctx, func(st *state) { r, ok = st.reports[key] })
	return r, ok, err
}

func (s *Store) ClearReport(ctx context.Context, key string) error {
	return s.do(ctx, func(st *state) { delete(st.reports, key) })
}

func (s *Store) SetModal(ctx context.Context, tabID int, m entity.Modal) error {
	return s.do(ctx, func(st *state) { st.modals[tabID] = m })
}

func (s *Store) Modal(ctx context.Context, tabID int) (m entity.Modal, ok bool, err error) {
	err = s.do(ctx, func(st *state) { m, ok = st.modals[tabID] })
	return m, ok, err
}

func (s *Store) DismissModal(ctx context.Context, tabID int) error {
	return s.do(ctx, func(st *state) { delete(st.modals, tabID) })
}

// RemoveTab forgets everything about a closed tab: detection, last URL,
// analysis state, modal and every report status keyed "<tabID>-...".
func (s *Store) RemoveTab(ctx context.Context, tabID int) error {
	prefix := strconv.Itoa(tabID) + "-"
	return s.do(ctx, func(st *state) {
		delete(st.detections, tabID)
		delete(st.urls, tabID)
		delete(st.analysis, tabID)
		delete(st.modals, tabID)
		for key := range st.reports {
			if strings.HasPrefix(key, prefix) {
				delete(st.reports, key)
			}
		}
	})
}
