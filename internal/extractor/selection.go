package extractor

import (
	"errors"
	"sync"
	"time"

	"github.com/user/scamshield-agent/internal/entity"
)

// SelectionState is the phase of a tab's post-selection session.
type SelectionState string

const (
	StateIdle      SelectionState = "idle"
	StateAwaiting  SelectionState = "awaiting_selection"
	StateSelected  SelectionState = "selected"
	StateCancelled SelectionState = "cancelled"
	StateTimedOut  SelectionState = "timed_out"
)

type selectionEvent int

const (
	evStart selectionEvent = iota
	evSelect
	evCancel
	evExpire
)

// next is the whole transition table. Start is allowed from every state;
// the other events only leave awaiting_selection.
func (s SelectionState) next(ev selectionEvent) (SelectionState, bool) {
	if ev == evStart {
		return StateAwaiting, true
	}
	if s != StateAwaiting {
		return s, false
	}
	switch ev {
	case evSelect:
		return StateSelected, true
	case evCancel:
		return StateCancelled, true
	case evExpire:
		return StateTimedOut, true
	}
	return s, false
}

var (
	ErrNoCandidates     = errors.New("no selectable posts with images found on this page")
	ErrNotAwaiting      = errors.New("no post selection in progress")
	ErrInvalidSelection = errors.New("selected post index out of range")
	ErrEmptyPost        = errors.New("could not extract data from the selected post")
)

// SelectionStatus is the poll-able view of a session.
type SelectionStatus struct {
	InProgress bool                   `json:"inProgress"`
	Data       *entity.SocialPostData `json:"data"`
	StartTime  time.Time              `json:"startTime"`
	State      SelectionState         `json:"state"`
	Platform   string                 `json:"platform,omitempty"`
	Candidates int                    `json:"candidates"`
}

// Timer is the part of *time.Timer the manager uses.
type Timer interface {
	Stop() bool
}

type session struct {
	state      SelectionState
	platform   string
	pageURL    string
	candidates []Node
	data       *entity.SocialPostData
	start      time.Time
	timer      Timer
	gen        uint64
}

// SelectionManager runs one post-selection session per tab. A session waits
// for the user to pick one highlighted post and gives up after the timeout.
type SelectionManager struct {
	mu       sync.Mutex
	sessions map[int]*session
	timeout  time.Duration
	gen      uint64

	afterFunc func(time.Duration, func()) Timer
	now       func() time.Time
}

func NewSelectionManager(timeout time.Duration) *SelectionManager {
	return &SelectionManager{
		sessions: make(map[int]*session),
		timeout:  timeout,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
}

// Start highlights the candidate posts of doc and arms the auto-cancel timer.
// Starting while a session is awaiting restarts it.
func (m *SelectionManager) Start(tabID int, doc Node, platform, pageURL string) (int, error) {
	candidates, err := FindPostCandidates(doc, platform)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, ErrNoCandidates
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[tabID]
	if s == nil {
		s = &session{state: StateIdle}
		m.sessions[tabID] = s
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.state, _ = s.state.next(evStart)
	s.platform = platform
	s.pageURL = pageURL
	s.candidates = candidates
	s.data = nil
	s.start = m.now()
	m.gen++
	s.gen = m.gen
	gen := s.gen
	s.timer = m.afterFunc(m.timeout, func() { m.expire(tabID, gen) })
	return len(candidates), nil
}

// Select completes the session with the post at index. A post that yields
// nothing leaves the session awaiting so another one can be picked.
func (m *SelectionManager) Select(tabID, index int) (*entity.SocialPostData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[tabID]
	if s == nil || s.state != StateAwaiting {
		return nil, ErrNotAwaiting
	}
	if index < 0 || index >= len(s.candidates) {
		return nil, ErrInvalidSelection
	}
	data, err := ExtractSocialPost(s.candidates[index], s.platform, s.pageURL)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrEmptyPost
	}
	s.state, _ = s.state.next(evSelect)
	s.data = data
	m.finish(s)
	return data, nil
}

// Cancel aborts an awaiting session, e.g. from the overlay's cancel button.
func (m *SelectionManager) Cancel(tabID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[tabID]
	if s == nil {
		return ErrNotAwaiting
	}
	next, ok := s.state.next(evCancel)
	if !ok {
		return ErrNotAwaiting
	}
	s.state = next
	m.finish(s)
	return nil
}

func (m *SelectionManager) expire(tabID int, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[tabID]
	if s == nil || s.gen != gen {
		return
	}
	if next, ok := s.state.next(evExpire); ok {
		s.state = next
		m.finish(s)
	}
}

func (m *SelectionManager) finish(s *session) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.candidates = nil
}

// Status reports the session of tabID; unknown tabs are idle.
func (m *SelectionManager) Status(tabID int) SelectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[tabID]
	if s == nil {
		return SelectionStatus{State: StateIdle}
	}
	return SelectionStatus{
		InProgress: s.state == StateAwaiting,
		Data:       s.data,
		StartTime:  s.start,
		State:      s.state,
		Platform:   s.platform,
		Candidates: len(s.candidates),
	}
}

// Take is Status, except that a selected session is consumed: the tab goes
// back to idle so the same post is not handed out twice.
func (m *SelectionManager) Take(tabID int) SelectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[tabID]
	if s == nil {
		return SelectionStatus{State: StateIdle}
	}
	st := SelectionStatus{
		InProgress: s.state == StateAwaiting,
		Data:       s.data,
		StartTime:  s.start,
		State:      s.state,
		Platform:   s.platform,
		Candidates: len(s.candidates),
	}
	if s.state == StateSelected {
		m.finish(s)
		delete(m.sessions, tabID)
	}
	return st
}

// Remove forgets the tab's session, stopping its timer.
func (m *SelectionManager) Remove(tabID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.sessions[tabID]; s != nil {
		m.finish(s)
		delete(m.sessions, tabID)
	}
}
