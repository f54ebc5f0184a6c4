//go:build linux

package pty

import (
	"os"

	"golang.org/x/sys/unix"
)

// Geometry describes a terminal size in character cells plus the pixel
// size of a single cell. The kernel winsize record additionally carries
// pixel dimensions for display layers that size by pixels; those are
// derived as Cols*CellWidth and Rows*CellHeight.
type Geometry struct {
	Rows       uint16
	Cols       uint16
	CellWidth  uint16
	CellHeight uint16
}

func (g Geometry) winsize() *unix.Winsize {
	return &unix.Winsize{
		Row:    g.Rows,
		Col:    g.Cols,
		Xpixel: uint16(uint32(g.Cols) * uint32(g.CellWidth)),
		Ypixel: uint16(uint32(g.Rows) * uint32(g.CellHeight)),
	}
}

// Resize applies the geometry to an open master. Resizes race with
// session teardown, so callers commonly ignore the error.
func Resize(f *os.File, g Geometry) error {
	if err := unix.IoctlSetWinsize(int(f.Fd()), unix.TIOCSWINSZ, g.winsize()); err != nil {
		return &IoctlError{Name: "TIOCSWINSZ", Err: err}
	}
	return nil
}

// Getsize reads the current kernel winsize record for an open master.
func Getsize(f *os.File) (*unix.Winsize, error) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return nil, &IoctlError{Name: "TIOCGWINSZ", Err: err}
	}
	return ws, nil
}
