package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatch(t *testing.T, path string, debounce time.Duration) (chan struct{}, context.CancelFunc, chan error) {
	t.Helper()
	calls := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, path, debounce, zap.NewNop(), func() { calls <- struct{}{} })
	}()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	return calls, cancel, done
}

func stop(t *testing.T, cancel context.CancelFunc, done chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_CallsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.aec")
	require.NoError(t, os.WriteFile(path, []byte("RUN THINK(x)"), 0600))

	calls, cancel, done := startWatch(t, path, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("RUN REPORT(x)"), 0600))

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a callback after write")
	}

	stop(t, cancel, done)
}

func TestWatch_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.aec")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0600))

	calls, cancel, done := startWatch(t, path, 300*time.Millisecond)

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0600))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a callback after the burst")
	}
	select {
	case <-calls:
		t.Fatal("burst should collapse into one callback")
	case <-time.After(500 * time.Millisecond):
	}

	stop(t, cancel, done)
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.aec")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0600))

	calls, cancel, done := startWatch(t, path, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.aec"), []byte("b"), 0600))

	select {
	case <-calls:
		t.Fatal("unexpected callback for a sibling file")
	case <-time.After(400 * time.Millisecond):
	}

	stop(t, cancel, done)
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "main.aec"), 0, nil, func() {})
	require.Error(t, err)
}
