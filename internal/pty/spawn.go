//go:build linux

package pty

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Spec describes the program to run in a session. It is consumed
// synchronously by Start and never mutated.
type Spec struct {
	// Command is the program to run, resolved against PATH when it does
	// not contain a path separator.
	Command string

	// Dir is the child's working directory. A directory that cannot be
	// entered is reported on the session's terminal and the command runs
	// from the inherited working directory instead.
	Dir string

	// Args is the full argument vector; Args[0] is conventionally the
	// program name. When empty, [Command] is used alone.
	Args []string

	// Env is the child's entire environment as KEY=VALUE entries, in
	// order. It replaces the inherited environment wholesale; nil means
	// the child starts with an empty environment, not the parent's.
	Env []string
}

func (s Spec) validate() error {
	if s.Command == "" {
		return &SpecError{Field: "command", Reason: "empty"}
	}
	if strings.ContainsRune(s.Command, 0) {
		return &SpecError{Field: "command", Reason: "contains NUL byte"}
	}
	for _, a := range s.Args {
		if strings.ContainsRune(a, 0) {
			return &SpecError{Field: "args", Reason: "contains NUL byte"}
		}
	}
	for _, e := range s.Env {
		if strings.ContainsRune(e, 0) {
			return &SpecError{Field: "env", Reason: "contains NUL byte"}
		}
	}
	return nil
}

// Handle is the caller-owned result of a successful Start: the master
// side of the session's PTY and the child's pid. Close the master
// exactly once and reap the pid exactly once via Wait.
type Handle struct {
	Master *os.File
	Pid    int
}

// Close releases the master descriptor. The handle must not be reused
// afterwards; closing twice is an error at the descriptor level, so
// ownership tracking is the caller's job.
func (h *Handle) Close() error {
	return h.Master.Close()
}

// Wait blocks until the child terminates and reaps it.
func (h *Handle) Wait() ExitOutcome {
	return Wait(h.Pid)
}

// Start allocates a PTY pair, configures it, and launches the command
// attached to the slave as the controlling terminal of a new session.
//
// The child starts as a session leader with the slave duplicated onto
// stdin, stdout and stderr. Every other descriptor of this process is
// close-on-exec (the Go runtime opens nothing inheritable), so no
// parent resources leak into the child. Errors detected before the
// process exists come back as SpecError or DeviceError; PATH resolution
// and fork/exec failures come back as SpawnError.
func Start(spec Spec, geom Geometry) (*Handle, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	master, slave, err := OpenPair()
	if err != nil {
		return nil, err
	}
	// The parent keeps only the master; the child receives its own dup
	// of the slave through ProcAttr.Files.
	defer slave.Close()

	// Line discipline and initial size are applied before the child can
	// observe the terminal. Failures here are of the ignorable resize
	// kind and must not abort the spawn.
	applyLineDiscipline(master)
	Resize(master, geom)

	path, err := exec.LookPath(spec.Command)
	if err != nil {
		master.Close()
		return nil, &SpawnError{Command: spec.Command, Err: err}
	}

	dir := spec.Dir
	if dir != "" {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			// Best effort: complain on the session's terminal and run
			// from the inherited working directory.
			fmt.Fprintf(slave, "chdir %q: no such directory\r\n", dir)
			dir = ""
		}
	}

	args := spec.Args
	if len(args) == 0 {
		args = []string{spec.Command}
	}
	env := spec.Env
	if env == nil {
		env = []string{}
	}

	proc, err := os.StartProcess(path, args, &os.ProcAttr{
		Dir: dir,
		Env: env,
		// The slave becomes fds 0/1/2 of the child.
		Files: []*os.File{slave, slave, slave},
		Sys: &syscall.SysProcAttr{
			// Fresh session, detached from any previous controlling
			// terminal; the slave (child fd 0) becomes the controlling
			// terminal of the new session.
			Setsid:  true,
			Setctty: true,
			Ctty:    0,
		},
	})
	if err != nil {
		master.Close()
		return nil, &SpawnError{Command: spec.Command, Err: err}
	}

	pid := proc.Pid
	proc.Release()

	return &Handle{Master: master, Pid: pid}, nil
}
