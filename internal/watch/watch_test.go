package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func startWatcher(t *testing.T, w *Watcher, onChange func()) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, onChange) }()
	return cancel, done
}

func TestWatcherCoalescesBurstOfWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := filepath.Join(t.TempDir(), "grading.json")
	writeFile(t, p, "[]")

	w, err := New([]string{p}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	var calls atomic.Int32
	cancel, done := startWatcher(t, w, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		writeFile(t, p, "[{}]")
		time.Sleep(5 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	p := filepath.Join(dir, "students.json")
	writeFile(t, p, "[]")

	w, err := New([]string{p}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	var calls atomic.Int32
	cancel, done := startWatcher(t, w, func() { calls.Add(1) })

	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherReportsRemoval(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := filepath.Join(t.TempDir(), "paper.json")
	writeFile(t, p, "{}")

	removed := make(chan error, 1)
	w, err := New([]string{p}, WithOnError(func(err error) {
		select {
		case removed <- err:
		default:
		}
	}))
	require.NoError(t, err)
	cancel, done := startWatcher(t, w, func() {})

	require.NoError(t, os.Remove(p))
	select {
	case err := <-removed:
		assert.True(t, errors.Is(err, ErrRemoved), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("removal not reported")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestNewRequiresPaths(t *testing.T) {
	_, err := New([]string{"", ""})
	assert.ErrorIs(t, err, ErrNoPaths)
}

func TestWatcherPathsAndClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	a := filepath.Join(dir, "b.json")
	b := filepath.Join(dir, "a.json")
	w, err := New([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, w.Paths())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
