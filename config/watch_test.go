package config

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWatcherLoadsInitialConfig(t *testing.T) {
	path := writeFile(t, "user=root\npassword=p\nhost=h\ndb=d\n")
	w, err := NewWatcher(path, discardLogger())
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, "root", w.Current().User)
}

func TestNewWatcherMissingFileFails(t *testing.T) {
	_, err := NewWatcher("/nonexistent/db.conf", discardLogger())
	assert.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "user=root\npassword=p\nhost=h\ndb=d\n")
	w, err := NewWatcher(path, discardLogger())
	require.NoError(t, err)
	defer w.Close()

	reloaded := make(chan *DBConfig, 1)
	go w.Watch(func(cfg *DBConfig) {
		reloaded <- cfg
	})

	require.NoError(t, os.WriteFile(path, []byte("user=other\npassword=p\nhost=h\ndb=d\n"), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "other", cfg.User)
		assert.Equal(t, "other", w.Current().User)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}

func TestWatcherKeepsLastGoodConfigOnReloadFailure(t *testing.T) {
	path := writeFile(t, "user=root\npassword=p\nhost=h\ndb=d\n")
	w, err := NewWatcher(path, discardLogger())
	require.NoError(t, err)
	defer w.Close()

	done := make(chan struct{})
	go func() {
		w.Watch(nil)
		close(done)
	}()

	require.NoError(t, os.WriteFile(path, []byte("not a valid config line"), 0o600))
	// Give the watcher goroutine a chance to observe and reject the bad
	// write; there is no success callback to block on for a failed
	// reload, so a short sleep is the simplest deterministic-enough
	// signal available without adding a failure-notification channel.
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, "root", w.Current().User)
	w.Close()
	<-done
}
