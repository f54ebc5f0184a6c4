//go:build linux

package session

import (
	"sync"
	"time"

	"github.com/termstack/termstack/internal/id"
	"github.com/termstack/termstack/internal/pty"
)

// Session is an active (or recently exited) terminal session.
type Session struct {
	ID         id.SessionID
	Shell      string
	WorkingDir string
	StartedAt  time.Time

	handle   *pty.Handle
	output   *Buffer
	readDone chan struct{}

	mu       sync.RWMutex
	geometry pty.Geometry
	closed   bool
	outcome  *pty.ExitOutcome

	subMu    sync.Mutex
	subs     map[int]chan []byte
	nextSub  int
	subsDone bool
}

// Info is the public representation of a session.
type Info struct {
	ID         string      `json:"id"`
	Shell      string      `json:"shell"`
	WorkingDir string      `json:"working_dir"`
	Pid        int         `json:"pid"`
	Rows       uint16      `json:"rows"`
	Cols       uint16      `json:"cols"`
	StartedAt  time.Time   `json:"started_at"`
	Active     bool        `json:"active"`
	Exit       *ExitStatus `json:"exit,omitempty"`
}

// ExitStatus is the surfaced form of a reaped child's outcome.
type ExitStatus struct {
	Code     int    `json:"code"`
	Signal   string `json:"signal,omitempty"`
	Signaled bool   `json:"signaled"`
}

func (s *Session) info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		ID:         string(s.ID),
		Shell:      s.Shell,
		WorkingDir: s.WorkingDir,
		Pid:        s.handle.Pid,
		Rows:       s.geometry.Rows,
		Cols:       s.geometry.Cols,
		StartedAt:  s.StartedAt,
		Active:     !s.closed,
	}
	if s.outcome != nil {
		info.Exit = &ExitStatus{
			Code:     s.outcome.Code,
			Signaled: s.outcome.Signaled,
		}
		if s.outcome.Signaled {
			info.Exit.Signal = s.outcome.Signal.String()
		}
	}
	return info
}

// subscribe registers a live output channel. The returned channel is
// closed when the session's output stream ends; it arrives closed when
// the stream already ended.
func (s *Session) subscribe() (ch chan []byte, cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch = make(chan []byte, 64)
	if s.subsDone {
		close(ch)
		return ch, func() {}
	}

	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[key]; ok {
			delete(s.subs, key)
			close(ch)
		}
	}
}

// broadcast fans a chunk out to live subscribers. Slow subscribers drop
// chunks rather than stall the PTY reader; the ring buffer remains the
// lossless record.
func (s *Session) broadcast(data []byte) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- data:
		default:
		}
	}
}

// closeSubs ends the output stream for all subscribers.
func (s *Session) closeSubs() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subsDone = true
	for key, ch := range s.subs {
		delete(s.subs, key)
		close(ch)
	}
}
