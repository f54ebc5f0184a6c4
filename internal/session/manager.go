//go:build linux

package session

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/termstack/termstack/internal/id"
	"github.com/termstack/termstack/internal/logging"
	"github.com/termstack/termstack/internal/monitoring"
	"github.com/termstack/termstack/internal/pty"
)

var (
	// ErrNotFound is returned for unknown session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrClosed is returned for operations on an exited session.
	ErrClosed = errors.New("session is closed")
)

// Config holds session defaults applied when a create request leaves
// fields unset.
type Config struct {
	Shell      string
	Rows       uint16
	Cols       uint16
	CellWidth  uint16
	CellHeight uint16
	BufferSize int
}

// CreateRequest describes a new session. Zero values fall back to the
// manager's configured defaults.
type CreateRequest struct {
	Shell      string
	WorkingDir string
	Rows       uint16
	Cols       uint16
	Env        map[string]string
}

// Manager owns all terminal sessions.
type Manager struct {
	cfg      Config
	log      *logging.Logger
	metrics  *monitoring.Metrics
	sessions sync.Map // map[id.SessionID]*Session
}

// NewManager creates a session manager. metrics may be nil (tests).
func NewManager(cfg Config, log *logging.Logger, metrics *monitoring.Metrics) *Manager {
	if cfg.Rows == 0 {
		cfg.Rows = 24
	}
	if cfg.Cols == 0 {
		cfg.Cols = 80
	}
	if cfg.CellWidth == 0 {
		cfg.CellWidth = 8
	}
	if cfg.CellHeight == 0 {
		cfg.CellHeight = 16
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 1 << 20
	}
	return &Manager{cfg: cfg, log: log, metrics: metrics}
}

// Create spawns a new terminal session.
func (m *Manager) Create(req CreateRequest) (Info, error) {
	shell := req.Shell
	if shell == "" {
		shell = m.cfg.Shell
	}
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/bash"
	}

	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir = os.Getenv("HOME")
	}
	if workingDir == "" {
		workingDir = "/tmp"
	}

	geom := pty.Geometry{
		Rows:       req.Rows,
		Cols:       req.Cols,
		CellWidth:  m.cfg.CellWidth,
		CellHeight: m.cfg.CellHeight,
	}
	if geom.Rows == 0 {
		geom.Rows = m.cfg.Rows
	}
	if geom.Cols == 0 {
		geom.Cols = m.cfg.Cols
	}

	handle, err := pty.Start(pty.Spec{
		Command: shell,
		Dir:     workingDir,
		Args:    []string{shell},
		Env:     buildEnv(shell, workingDir, req.Env),
	}, geom)
	if err != nil {
		if m.metrics != nil {
			m.metrics.SpawnErrors.Inc()
		}
		return Info{}, fmt.Errorf("create session: %w", err)
	}

	s := &Session{
		ID:         id.NewSessionID(),
		Shell:      shell,
		WorkingDir: workingDir,
		StartedAt:  time.Now(),
		handle:     handle,
		geometry:   geom,
		output:     NewBuffer(m.cfg.BufferSize),
		readDone:   make(chan struct{}),
		subs:       make(map[int]chan []byte),
	}
	m.sessions.Store(s.ID, s)

	go m.readOutput(s)
	go m.reap(s)

	if m.metrics != nil {
		m.metrics.RecordSessionStart()
	}
	m.log.Info("session started",
		zap.String("session_id", string(s.ID)),
		zap.String("shell", shell),
		zap.Int("pid", handle.Pid),
	)

	return s.info(), nil
}

// buildEnv constructs the child's entire environment. The spawn layer
// replaces the inherited environment wholesale, so everything a shell
// expects has to be listed here.
func buildEnv(shell, home string, extra map[string]string) []string {
	path := os.Getenv("PATH")
	if path == "" {
		path = "/usr/local/bin:/usr/bin:/bin"
	}
	env := []string{
		"TERM=xterm-256color",
		"SHELL=" + shell,
		"HOME=" + home,
		"PATH=" + path,
		"LANG=en_US.UTF-8",
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// readOutput drains the PTY master into the session's ring buffer and
// fans chunks out to live attachments. Once the last slave descriptor
// closes, the master read returns the remaining buffered output and
// then fails with EIO, which ends the stream for all subscribers.
func (m *Manager) readOutput(s *Session) {
	defer close(s.readDone)
	defer s.closeSubs()

	buf := make([]byte, 4096)
	for {
		n, err := s.handle.Master.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.output.Write(chunk)
			s.broadcast(chunk)
			if m.metrics != nil {
				m.metrics.OutputBytes.Add(float64(n))
			}
		}
		if err != nil {
			return
		}
	}
}

// reap blocks until the child terminates, records the outcome, and
// closes the master. The close waits for the reader to hit end of
// stream so no goroutine is reading the descriptor when it goes away.
// This is the sole closer of the master and the sole waiter on the pid,
// so both happen exactly once.
func (m *Manager) reap(s *Session) {
	outcome := s.handle.Wait()

	s.mu.Lock()
	s.closed = true
	s.outcome = &outcome
	s.mu.Unlock()

	<-s.readDone
	s.handle.Close()

	if m.metrics != nil {
		m.metrics.RecordSessionEnd()
	}
	m.log.Info("session ended",
		zap.String("session_id", string(s.ID)),
		zap.String("outcome", outcome.String()),
	)
}

func (m *Manager) load(sid id.SessionID) (*Session, error) {
	v, ok := m.sessions.Load(sid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sid)
	}
	return v.(*Session), nil
}

// Write sends input bytes to a session's terminal.
func (m *Manager) Write(sid id.SessionID, data []byte) error {
	s, err := m.load(sid)
	if err != nil {
		return err
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("%w: %s", ErrClosed, sid)
	}

	n, err := s.handle.Master.Write(data)
	if m.metrics != nil {
		m.metrics.InputBytes.Add(float64(n))
	}
	return err
}

// Read drains a session's buffered output.
func (m *Manager) Read(sid id.SessionID) ([]byte, error) {
	s, err := m.load(sid)
	if err != nil {
		return nil, err
	}
	return s.output.Drain(), nil
}

// Attach subscribes to a session's live output. The channel closes when
// the session's output stream ends; call cancel to detach early.
func (m *Manager) Attach(sid id.SessionID) (<-chan []byte, func(), error) {
	s, err := m.load(sid)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.subscribe()
	return ch, cancel, nil
}

// Resize applies new character-cell dimensions to a session.
func (m *Manager) Resize(sid id.SessionID, rows, cols uint16) error {
	s, err := m.load(sid)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", ErrClosed, sid)
	}

	s.geometry.Rows = rows
	s.geometry.Cols = cols
	if err := pty.Resize(s.handle.Master, s.geometry); err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.Resizes.Inc()
	}
	return nil
}

// Kill signals a session's child: SIGHUP by default (what a closing
// terminal delivers), SIGKILL when force is set. Reaping stays with the
// session's own reaper goroutine.
func (m *Manager) Kill(sid id.SessionID, force bool) error {
	s, err := m.load(sid)
	if err != nil {
		return err
	}

	s.mu.RLock()
	closed := s.closed
	pid := s.handle.Pid
	s.mu.RUnlock()
	if closed {
		return nil
	}

	sig := unix.SIGHUP
	if force {
		sig = unix.SIGKILL
	}
	return unix.Kill(pid, sig)
}

// Remove force-kills a still-active session and drops it from the
// inventory.
func (m *Manager) Remove(sid id.SessionID) error {
	s, err := m.load(sid)
	if err != nil {
		return err
	}

	s.mu.RLock()
	closed := s.closed
	pid := s.handle.Pid
	s.mu.RUnlock()
	if !closed {
		unix.Kill(pid, unix.SIGKILL)
	}

	m.sessions.Delete(sid)
	return nil
}

// Get returns a session's current state.
func (m *Manager) Get(sid id.SessionID) (Info, error) {
	s, err := m.load(sid)
	if err != nil {
		return Info{}, err
	}
	return s.info(), nil
}

// List returns all known sessions, including recently exited ones that
// have not been removed.
func (m *Manager) List() []Info {
	var infos []Info
	m.sessions.Range(func(_, v any) bool {
		infos = append(infos, v.(*Session).info())
		return true
	})
	return infos
}

// Shutdown force-kills every active session. Used on server exit.
func (m *Manager) Shutdown() {
	m.sessions.Range(func(_, v any) bool {
		s := v.(*Session)
		s.mu.RLock()
		closed := s.closed
		pid := s.handle.Pid
		s.mu.RUnlock()
		if !closed {
			unix.Kill(pid, unix.SIGKILL)
		}
		return true
	})
}
