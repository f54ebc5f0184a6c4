//go:build linux

package pty

import (
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExitOutcome describes how a reaped child terminated. Exactly one of
// the two cases holds: the process exited with Code, or it was killed
// by Signal. There is no "still running" state — Wait does not return
// until one of the two is known.
type ExitOutcome struct {
	Code     int
	Signal   syscall.Signal
	Signaled bool
}

func (o ExitOutcome) String() string {
	if o.Signaled {
		return "signal: " + o.Signal.String()
	}
	return "exit status " + strconv.Itoa(o.Code)
}

// Wait blocks until the identified child changes state to terminated
// and reaps it, preventing a zombie. The pid is unreapable afterwards.
//
// Stop/continue transitions are never reported because Wait4 is not
// asked for them; if some other status surfaces anyway (or the pid was
// already reaped), the defensive fallback is a clean exit.
func Wait(pid int) ExitOutcome {
	var status unix.WaitStatus
	for {
		if _, err := unix.Wait4(pid, &status, 0, nil); err != unix.EINTR {
			break
		}
	}
	switch {
	case status.Exited():
		return ExitOutcome{Code: status.ExitStatus()}
	case status.Signaled():
		return ExitOutcome{Signal: status.Signal(), Signaled: true}
	}
	return ExitOutcome{}
}
