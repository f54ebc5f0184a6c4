// Package session manages the lifecycle of PTY-backed terminal
// sessions.
//
// Each session spawns one child process on its own pseudo-terminal via
// the pty package. The manager owns the two per-session goroutines: a
// reader that drains the PTY master into a ring buffer (and fans out to
// live attachments), and a reaper that blocks in Wait, records the exit
// outcome, and closes the master exactly once.
//
// Because the child environment is a wholesale replacement, the manager
// builds it from scratch for every session: TERM, SHELL, HOME, PATH and
// locale, plus caller-provided extras.
//
// Operations:
//   - Create: spawn a new shell session
//   - Write/Read: send input, drain buffered output
//   - Attach: subscribe to live output for streaming
//   - Resize: apply new terminal geometry
//   - Kill: hang up (or force-kill) the child
//   - List/Get/Remove: inventory management
package session
