package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"wanderlist/models"
)

type State string

const (
	Idle       State = "idle"
	Debouncing State = "debouncing"
	Loading    State = "loading"
	Showing    State = "showing"
	Navigated  State = "navigated"
)

type Key string

const (
	KeyDown   Key = "ArrowDown"
	KeyUp     Key = "ArrowUp"
	KeyEnter  Key = "Enter"
	KeyEscape Key = "Escape"
)

const DefaultDebounce = 300 * time.Millisecond

type ActionKind string

const (
	ActionNone     ActionKind = ""
	ActionNavigate ActionKind = "navigate"
	ActionSubmit   ActionKind = "submit"
)

// Action tells the caller where to go after a key press or selection.
type Action struct {
	Kind     ActionKind       `json:"kind"`
	Activity *models.Activity `json:"activity,omitempty"`
	Term     string           `json:"term,omitempty"`
}

type Snapshot struct {
	State     State             `json:"state"`
	Term      string            `json:"term"`
	Results   []models.Activity `json:"results"`
	Highlight int               `json:"highlight"`
	Err       string            `json:"error,omitempty"`
}

type SuggestFunc func(ctx context.Context, term string) ([]models.Activity, error)

// Session debounces search input and shows only the results of the latest
// term. onChange is called with the lock held and must not call back into
// the session.
type Session struct {
	ctx      context.Context
	suggest  SuggestFunc
	delay    time.Duration
	onChange func(Snapshot)

	mu        sync.Mutex
	state     State
	term      string
	results   []models.Activity
	highlight int
	err       string
	token     uint64
	timer     *time.Timer
}

// NewSession binds suggestion lookups to ctx; cancelling ctx abandons
// pending lookups.
func NewSession(ctx context.Context, suggest SuggestFunc, delay time.Duration, onChange func(Snapshot)) *Session {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if onChange == nil {
		onChange = func(Snapshot) {}
	}
	return &Session{ctx: ctx, suggest: suggest, delay: delay, onChange: onChange, state: Idle, highlight: -1}
}

// SetTerm records new input. Any pending or in-flight lookup for an
// earlier term is discarded.
func (s *Session) SetTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.term = term
	s.invalidate()
	s.results = nil
	s.highlight = -1
	s.err = ""

	if strings.TrimSpace(term) == "" {
		s.state = Idle
		s.emit()
		return
	}

	s.state = Debouncing
	tok := s.token
	s.timer = time.AfterFunc(s.delay, func() { s.fire(tok) })
	s.emit()
}

func (s *Session) fire(tok uint64) {
	s.mu.Lock()
	if tok != s.token || s.state != Debouncing {
		s.mu.Unlock()
		return
	}
	s.state = Loading
	term := strings.TrimSpace(s.term)
	s.emit()
	s.mu.Unlock()

	results, err := s.suggest(s.ctx, term)

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.token || s.state != Loading {
		return
	}
	s.state = Showing
	s.highlight = -1
	if err != nil {
		s.results = nil
		s.err = "Search is unavailable right now."
	} else {
		s.results = results
	}
	s.emit()
}

// Key applies a navigation key and returns the resulting action, if any.
func (s *Session) Key(k Key) Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.results)
	switch k {
	case KeyDown:
		if s.state != Showing || n == 0 {
			return Action{}
		}
		s.highlight = (s.highlight + 1) % n
		s.emit()
	case KeyUp:
		if s.state != Showing || n == 0 {
			return Action{}
		}
		if s.highlight <= 0 {
			s.highlight = n - 1
		} else {
			s.highlight--
		}
		s.emit()
	case KeyEnter:
		if s.state == Showing && s.highlight >= 0 && s.highlight < n {
			return s.navigate(s.highlight)
		}
		term := strings.TrimSpace(s.term)
		if term == "" {
			return Action{}
		}
		s.invalidate()
		s.state = Navigated
		s.emit()
		return Action{Kind: ActionSubmit, Term: term}
	case KeyEscape:
		s.invalidate()
		s.state = Idle
		s.results = nil
		s.highlight = -1
		s.emit()
	}
	return Action{}
}

// Select navigates to the i-th shown result.
func (s *Session) Select(i int) Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Showing || i < 0 || i >= len(s.results) {
		return Action{}
	}
	return s.navigate(i)
}

// Clear empties the term and closes the panel.
func (s *Session) Clear() {
	s.SetTerm("")
}

// Close stops any pending lookup.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) navigate(i int) Action {
	a := s.results[i]
	s.invalidate()
	s.state = Navigated
	s.emit()
	return Action{Kind: ActionNavigate, Activity: &a}
}

// invalidate must be called with mu held.
func (s *Session) invalidate() {
	s.token++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		State:     s.state,
		Term:      s.term,
		Results:   append([]models.Activity(nil), s.results...),
		Highlight: s.highlight,
		Err:       s.err,
	}
}

func (s *Session) emit() {
	s.onChange(s.snapshot())
}
