// Package pty implements pseudo-terminal backed subprocess management.
//
// It allocates a PTY master/slave pair, spawns a child process attached
// to the slave side as its controlling terminal, and relays terminal
// geometry and UTF-8 mode changes to the kernel PTY driver.
//
// Lifecycle:
//   - Start opens the pair, configures the line discipline (UTF-8 on,
//     software flow control off so a stray ^S cannot freeze output),
//     applies the initial window size, and launches the command in a
//     fresh session with the slave on fds 0/1/2.
//   - The returned Handle owns the master descriptor and the child pid.
//     The master must be closed exactly once, and the pid reaped exactly
//     once via Wait — otherwise the child lingers as a zombie.
//   - Resize and SetUTF8Mode operate on any open master, independent of
//     how it was created.
//
// Wait is the only blocking operation; call it from a dedicated
// goroutine per child. It cannot be cancelled: a caller that needs a
// bounded wait must signal the child out-of-band and let Wait complete.
//
// The child's environment is exactly Spec.Env — there is no merge with
// the parent's environment. A failure to enter Spec.Dir is deliberately
// soft: the error is written to the session's terminal and the command
// runs from the inherited working directory, matching shell-like
// best-effort semantics.
//
// An exec-level failure (command missing, not executable) surfaces as a
// SpawnError from Start. Setup errors inside an already-started child
// are not representable here; an unexpected early nonzero exit observed
// through Wait may therefore be a setup failure rather than the
// command's own result.
//
// Linux only: slave resolution relies on the /dev/ptmx + TIOCGPTN
// interface of devpts.
package pty
