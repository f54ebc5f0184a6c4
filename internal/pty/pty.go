//go:build linux

package pty

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// OpenPair allocates a fresh pseudo-terminal and returns both ends.
// The master is opened close-on-exec so it cannot leak into spawned
// children; the slave is handed to the child explicitly at spawn time.
func OpenPair() (master, slave *os.File, err error) {
	mfd, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, nil, &DeviceError{Op: "open", Err: err}
	}

	// Unlock the slave end. grantpt is a no-op on devpts, so the
	// TIOCSPTLCK unlock is the only gate.
	if err := unix.IoctlSetPointerInt(mfd, unix.TIOCSPTLCK, 0); err != nil {
		unix.Close(mfd)
		return nil, nil, &DeviceError{Op: "unlock", Err: err}
	}

	// ptsname: the slave index comes back through TIOCGPTN.
	n, err := unix.IoctlGetUint32(mfd, unix.TIOCGPTN)
	if err != nil {
		unix.Close(mfd)
		return nil, nil, &DeviceError{Op: "ptsname", Err: err}
	}
	name := "/dev/pts/" + strconv.FormatUint(uint64(n), 10)

	sfd, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		unix.Close(mfd)
		return nil, nil, &DeviceError{Op: "open slave", Err: err}
	}

	return os.NewFile(uintptr(mfd), "/dev/ptmx"), os.NewFile(uintptr(sfd), name), nil
}

// applyLineDiscipline forces UTF-8 input handling on and software flow
// control off, so a control character typed at the wrong moment cannot
// freeze session output.
func applyLineDiscipline(f *os.File) error {
	tios, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	if err != nil {
		return &IoctlError{Name: "TCGETS", Err: err}
	}
	tios.Iflag |= unix.IUTF8
	tios.Iflag &^= unix.IXON | unix.IXOFF
	if err := unix.IoctlSetTermios(int(f.Fd()), unix.TCSETS, tios); err != nil {
		return &IoctlError{Name: "TCSETS", Err: err}
	}
	return nil
}

// SetUTF8Mode turns on UTF-8 input handling for an open master.
// Idempotent in effect: when the flag is already set, no termios write
// is issued.
func SetUTF8Mode(f *os.File) error {
	tios, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	if err != nil {
		return &IoctlError{Name: "TCGETS", Err: err}
	}
	if tios.Iflag&unix.IUTF8 != 0 {
		return nil
	}
	tios.Iflag |= unix.IUTF8
	if err := unix.IoctlSetTermios(int(f.Fd()), unix.TCSETS, tios); err != nil {
		return &IoctlError{Name: "TCSETS", Err: err}
	}
	return nil
}
