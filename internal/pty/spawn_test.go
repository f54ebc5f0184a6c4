//go:build linux

package pty

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var testGeometry = Geometry{Rows: 24, Cols: 80, CellWidth: 8, CellHeight: 16}

// drain reads the master until the child side hangs up. A master read
// fails with EIO once the last slave descriptor closes, so the error is
// expected rather than checked.
func drain(h *Handle) string {
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := h.Master.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			return string(out)
		}
	}
}

func TestStartExitCode(t *testing.T) {
	for _, code := range []int{0, 1, 127} {
		t.Run(fmt.Sprintf("code_%d", code), func(t *testing.T) {
			h, err := Start(Spec{
				Command: "/bin/sh",
				Args:    []string{"sh", "-c", fmt.Sprintf("exit %d", code)},
			}, testGeometry)
			require.NoError(t, err)
			defer h.Close()

			outcome := h.Wait()
			assert.False(t, outcome.Signaled)
			assert.Equal(t, code, outcome.Code)
		})
	}
}

func TestStartSignaled(t *testing.T) {
	h, err := Start(Spec{
		Command: "sleep",
		Args:    []string{"sleep", "30"},
	}, testGeometry)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, unix.Kill(h.Pid, unix.SIGKILL))

	outcome := h.Wait()
	assert.True(t, outcome.Signaled)
	assert.Equal(t, unix.SIGKILL, outcome.Signal)
}

func TestStartEnvIsolation(t *testing.T) {
	// A parent-only variable must not reach the child: Spec.Env
	// replaces the environment wholesale, with no merge.
	t.Setenv("PTY_TEST_PARENT_MARKER", "leaked")

	h, err := Start(Spec{
		Command: "env",
		Args:    []string{"env"},
		Env:     []string{"FOO=bar"},
	}, testGeometry)
	require.NoError(t, err)
	defer h.Close()

	out := drain(h)
	h.Wait()

	assert.Contains(t, out, "FOO=bar")
	assert.NotContains(t, out, "PTY_TEST_PARENT_MARKER")
}

func TestStartWorkingDirSoftFailure(t *testing.T) {
	// A missing working directory is reported on the terminal but does
	// not stop the command from running; the exit status is still the
	// command's own.
	h, err := Start(Spec{
		Command: "/bin/sh",
		Args:    []string{"sh", "-c", "exit 5"},
		Dir:     "/definitely/not/a/directory",
	}, testGeometry)
	require.NoError(t, err)
	defer h.Close()

	out := drain(h)
	outcome := h.Wait()

	assert.Contains(t, out, "chdir")
	assert.False(t, outcome.Signaled)
	assert.Equal(t, 5, outcome.Code)
}

func TestStartWorkingDirApplied(t *testing.T) {
	h, err := Start(Spec{
		Command: "/bin/sh",
		Args:    []string{"sh", "-c", "pwd"},
		Dir:     "/tmp",
	}, testGeometry)
	require.NoError(t, err)
	defer h.Close()

	out := drain(h)
	outcome := h.Wait()

	assert.Contains(t, out, "/tmp")
	assert.Equal(t, 0, outcome.Code)
}

func TestStartCommandNotFound(t *testing.T) {
	before := openFDCount(t)

	_, err := Start(Spec{Command: "definitely-not-a-command-b1c2"}, testGeometry)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, "definitely-not-a-command-b1c2", spawnErr.Command)

	// The error path must not leave the pair open.
	assert.Equal(t, before, openFDCount(t))
}

func TestStartInvalidSpec(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"empty command", Spec{}},
		{"nul in command", Spec{Command: "sh\x00"}},
		{"nul in args", Spec{Command: "sh", Args: []string{"sh", "a\x00b"}}},
		{"nul in env", Spec{Command: "sh", Env: []string{"A=b\x00c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Start(tt.spec, testGeometry)
			var specErr *SpecError
			assert.ErrorAs(t, err, &specErr)
		})
	}
}

func TestStartControllingTerminal(t *testing.T) {
	// The child runs in a fresh session with the slave as controlling
	// terminal, so `tty` resolves to a pts device.
	h, err := Start(Spec{
		Command: "/bin/sh",
		Args:    []string{"sh", "-c", "tty"},
		Env:     []string{"PATH=/usr/bin:/bin"},
	}, testGeometry)
	require.NoError(t, err)
	defer h.Close()

	out := drain(h)
	outcome := h.Wait()

	assert.Equal(t, 0, outcome.Code)
	assert.Contains(t, out, "/dev/pts/")
}

func TestStartAppliesLineDiscipline(t *testing.T) {
	h, err := Start(Spec{
		Command: "sleep",
		Args:    []string{"sleep", "30"},
	}, testGeometry)
	require.NoError(t, err)
	defer h.Close()
	defer func() {
		unix.Kill(h.Pid, unix.SIGKILL)
		h.Wait()
	}()

	tios, err := unix.IoctlGetTermios(int(h.Master.Fd()), unix.TCGETS)
	require.NoError(t, err)
	assert.NotZero(t, tios.Iflag&unix.IUTF8)
	assert.Zero(t, tios.Iflag&(unix.IXON|unix.IXOFF))
}

func TestStartAppliesInitialGeometry(t *testing.T) {
	g := Geometry{Rows: 31, Cols: 113, CellWidth: 7, CellHeight: 14}
	h, err := Start(Spec{
		Command: "sleep",
		Args:    []string{"sleep", "30"},
	}, g)
	require.NoError(t, err)
	defer h.Close()
	defer func() {
		unix.Kill(h.Pid, unix.SIGKILL)
		h.Wait()
	}()

	ws, err := Getsize(h.Master)
	require.NoError(t, err)
	assert.Equal(t, g.Rows, ws.Row)
	assert.Equal(t, g.Cols, ws.Col)
}

func TestExitOutcomeString(t *testing.T) {
	assert.Equal(t, "exit status 0", ExitOutcome{}.String())
	assert.Equal(t, "exit status 127", ExitOutcome{Code: 127}.String())
	assert.Equal(t, "signal: killed", ExitOutcome{Signal: unix.SIGKILL, Signaled: true}.String())
}

func TestSpawnFDLeak(t *testing.T) {
	// Repeated full spawn/reap/close cycles must not grow the
	// descriptor table.
	h, err := Start(Spec{Command: "true", Args: []string{"true"}}, testGeometry)
	require.NoError(t, err)
	h.Wait()
	h.Close()

	before := openFDCount(t)
	for i := 0; i < 20; i++ {
		h, err := Start(Spec{Command: "true", Args: []string{"true"}}, testGeometry)
		require.NoError(t, err)
		h.Wait()
		require.NoError(t, h.Close())
	}
	assert.Equal(t, before, openFDCount(t))
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("boom")

	assert.ErrorIs(t, &DeviceError{Op: "open", Err: base}, base)
	assert.ErrorIs(t, &SpawnError{Command: "x", Err: base}, base)
	assert.ErrorIs(t, &IoctlError{Name: "TCGETS", Err: base}, base)
}
