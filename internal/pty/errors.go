package pty

import "fmt"

// DeviceError reports a failure opening or preparing the PTY device
// pair. Fatal to session creation; never retried.
type DeviceError struct {
	Op  string // "open", "unlock", "ptsname", "open slave"
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("pty device %s: %v", e.Op, e.Err) }
func (e *DeviceError) Unwrap() error { return e.Err }

// SpawnError reports a failure creating the child process, covering
// both PATH resolution and the fork/exec itself.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn %q: %v", e.Command, e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// SpecError reports an invalid Spec, detected before any process or
// device state is created.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string { return fmt.Sprintf("invalid spec: %s: %s", e.Field, e.Reason) }

// IoctlError reports a failed terminal ioctl. Resize and mode changes
// race with session teardown, so callers typically treat these as
// non-fatal.
type IoctlError struct {
	Name string
	Err  error
}

func (e *IoctlError) Error() string { return fmt.Sprintf("ioctl %s: %v", e.Name, e.Err) }
func (e *IoctlError) Unwrap() error { return e.Err }
