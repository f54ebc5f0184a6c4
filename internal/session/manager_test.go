//go:build linux

package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termstack/termstack/internal/id"
	"github.com/termstack/termstack/internal/logging"
)

func newTestManager() *Manager {
	return NewManager(Config{Shell: "/bin/sh", BufferSize: 4096}, logging.NewNop(), nil)
}

// waitInactive polls until the session's reaper has recorded an exit.
func waitInactive(t *testing.T, m *Manager, sid id.SessionID) Info {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		info, err := m.Get(sid)
		require.NoError(t, err)
		if !info.Active {
			return info
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session did not become inactive in time")
	return Info{}
}

func TestCreateAndExit(t *testing.T) {
	m := newTestManager()

	info, err := m.Create(CreateRequest{WorkingDir: "/tmp"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.ID, id.SessionPrefix+"_"))
	assert.Equal(t, "/bin/sh", info.Shell)
	assert.Equal(t, uint16(24), info.Rows)
	assert.Equal(t, uint16(80), info.Cols)
	assert.True(t, info.Active)
	assert.Positive(t, info.Pid)

	sid := id.SessionID(info.ID)
	require.NoError(t, m.Write(sid, []byte("exit 3\n")))

	ended := waitInactive(t, m, sid)
	require.NotNil(t, ended.Exit)
	assert.False(t, ended.Exit.Signaled)
	assert.Equal(t, 3, ended.Exit.Code)
}

func TestSessionOutput(t *testing.T) {
	m := newTestManager()

	info, err := m.Create(CreateRequest{WorkingDir: "/tmp"})
	require.NoError(t, err)
	sid := id.SessionID(info.ID)

	require.NoError(t, m.Write(sid, []byte("echo term-output-marker\n")))
	require.NoError(t, m.Write(sid, []byte("exit\n")))
	waitInactive(t, m, sid)

	out, err := m.Read(sid)
	require.NoError(t, err)
	assert.Contains(t, string(out), "term-output-marker")
}

func TestAttachStreamsOutput(t *testing.T) {
	m := newTestManager()

	info, err := m.Create(CreateRequest{WorkingDir: "/tmp"})
	require.NoError(t, err)
	sid := id.SessionID(info.ID)

	ch, cancel, err := m.Attach(sid)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, m.Write(sid, []byte("echo attach-marker\n")))
	require.NoError(t, m.Write(sid, []byte("exit\n")))

	var streamed []byte
	deadline := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				assert.Contains(t, string(streamed), "attach-marker")
				return
			}
			streamed = append(streamed, chunk...)
		case <-deadline:
			t.Fatal("attach channel did not close after session exit")
		}
	}
}

func TestResize(t *testing.T) {
	m := newTestManager()

	info, err := m.Create(CreateRequest{WorkingDir: "/tmp"})
	require.NoError(t, err)
	sid := id.SessionID(info.ID)

	require.NoError(t, m.Resize(sid, 50, 132))

	got, err := m.Get(sid)
	require.NoError(t, err)
	assert.Equal(t, uint16(50), got.Rows)
	assert.Equal(t, uint16(132), got.Cols)

	require.NoError(t, m.Kill(sid, true))
	waitInactive(t, m, sid)

	// Resizing a closed session is rejected.
	assert.ErrorIs(t, m.Resize(sid, 24, 80), ErrClosed)
}

func TestKillForce(t *testing.T) {
	m := newTestManager()

	info, err := m.Create(CreateRequest{WorkingDir: "/tmp"})
	require.NoError(t, err)
	sid := id.SessionID(info.ID)

	require.NoError(t, m.Kill(sid, true))

	ended := waitInactive(t, m, sid)
	require.NotNil(t, ended.Exit)
	assert.True(t, ended.Exit.Signaled)
	assert.Equal(t, "killed", ended.Exit.Signal)

	// Killing an already-exited session is a no-op, not an error.
	assert.NoError(t, m.Kill(sid, true))
}

func TestListAndRemove(t *testing.T) {
	m := newTestManager()

	a, err := m.Create(CreateRequest{WorkingDir: "/tmp"})
	require.NoError(t, err)
	b, err := m.Create(CreateRequest{WorkingDir: "/tmp"})
	require.NoError(t, err)

	assert.Len(t, m.List(), 2)

	require.NoError(t, m.Remove(id.SessionID(a.ID)))
	assert.Len(t, m.List(), 1)

	_, err = m.Get(id.SessionID(a.ID))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Remove(id.SessionID(b.ID)))
	assert.Empty(t, m.List())
}

func TestWriteUnknownSession(t *testing.T) {
	m := newTestManager()
	assert.ErrorIs(t, m.Write("term_nope", []byte("x")), ErrNotFound)
}

func TestCreateRejectsBadShell(t *testing.T) {
	m := newTestManager()

	_, err := m.Create(CreateRequest{Shell: "/does/not/exist-shell", WorkingDir: "/tmp"})
	assert.Error(t, err)
	assert.Empty(t, m.List())
}

func TestEnvExtrasReachChild(t *testing.T) {
	m := newTestManager()

	info, err := m.Create(CreateRequest{
		WorkingDir: "/tmp",
		Env:        map[string]string{"SESSION_TEST_VAR": "present"},
	})
	require.NoError(t, err)
	sid := id.SessionID(info.ID)

	require.NoError(t, m.Write(sid, []byte("echo var=$SESSION_TEST_VAR\n")))
	require.NoError(t, m.Write(sid, []byte("exit\n")))
	waitInactive(t, m, sid)

	out, err := m.Read(sid)
	require.NoError(t, err)
	assert.Contains(t, string(out), "var=present")
}
