package skills

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type staticFeed struct {
	mu   sync.Mutex
	data string
	err  error
}

func (f *staticFeed) ReadFeed() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []byte(f.data), f.err
}

func (f *staticFeed) set(data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = data
}

func TestNewStore_MergesFeed(t *testing.T) {
	feed := &staticFeed{data: `[{"ref": "weekly-retro", "name": "Weekly Retro", "description": "Close the week"}]`}

	store := NewStore(feed, zaptest.NewLogger(t))

	assert.Equal(t, len(builtinSkills)+1, store.Catalog().Len())
	_, ok := store.Catalog().Get("weekly-retro")
	assert.True(t, ok)
}

func TestNewStore_MalformedFeedUsesBuiltins(t *testing.T) {
	var reloads []bool
	feed := &staticFeed{data: `{"not": "an array"}`}

	store := NewStore(feed, zaptest.NewLogger(t), WithReloadHook(func(ok bool) { reloads = append(reloads, ok) }))

	assert.Equal(t, BuiltinSkills(), store.Catalog().All())
	assert.Equal(t, []bool{false}, reloads)
}

func TestNewStore_NilSource(t *testing.T) {
	store := NewStore(nil, nil)
	assert.Equal(t, len(builtinSkills), store.Catalog().Len())
}

func TestStore_ReloadSwapsCatalog(t *testing.T) {
	feed := &staticFeed{}
	store := NewStore(feed, zaptest.NewLogger(t))
	before := store.Catalog()

	feed.set(`[{"ref": "calendar-defrag", "name": "Calendar Defrag v2", "description": "Updated"}]`)
	require.NoError(t, store.Reload())

	after := store.Catalog()
	assert.NotSame(t, before, after)

	old, _ := before.Get("calendar-defrag")
	updated, _ := after.Get("calendar-defrag")
	assert.Equal(t, "Calendar Defrag", old.Name)
	assert.Equal(t, "Calendar Defrag v2", updated.Name)
}

func TestStore_FailedReloadKeepsPrevious(t *testing.T) {
	feed := &staticFeed{data: `[{"ref": "weekly-retro", "name": "Weekly Retro", "description": "Close the week"}]`}
	store := NewStore(feed, zaptest.NewLogger(t))
	before := store.Catalog()

	feed.err = errors.New("disk on fire")
	assert.Error(t, store.Reload())
	assert.Same(t, before, store.Catalog())
}

func TestFileFeed_MissingFile(t *testing.T) {
	data, err := FileFeed(filepath.Join(t.TempDir(), "nope.json")).ReadFeed()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestEnvFeed(t *testing.T) {
	t.Setenv(FeedEnvVar, `[{"ref": "env-skill", "name": "Env", "description": "From env"}]`)

	store := NewStore(EnvFeed(FeedEnvVar), zaptest.NewLogger(t))

	_, ok := store.Catalog().Get("env-skill")
	assert.True(t, ok)
}

func TestStore_Watch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "skills.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	store := NewStore(FileFeed(path), zaptest.NewLogger(t))
	require.Equal(t, len(builtinSkills), store.Catalog().Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx, path) }()

	feed := []byte(`[{"ref": "watched", "name": "Watched", "description": "Arrived via watcher"}]`)
	require.Eventually(t, func() bool {
		// Rewrite until the watcher is registered and picks it up.
		_ = os.WriteFile(path, feed, 0o644)
		_, ok := store.Catalog().Get("watched")
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestURLFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"ref": "remote-skill", "name": "Remote", "description": "Served over HTTP"}]`))
	}))
	defer srv.Close()

	store := NewStore(URLFeed{URL: srv.URL}, zaptest.NewLogger(t))

	_, ok := store.Catalog().Get("remote-skill")
	assert.True(t, ok)
}

func TestURLFeed_NotFoundMeansNoFeed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	data, err := URLFeed{URL: srv.URL}.ReadFeed()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestURLFeed_ServerErrorKeepsBuiltins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := URLFeed{URL: srv.URL}.ReadFeed()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch skill feed")

	store := NewStore(URLFeed{URL: srv.URL}, zaptest.NewLogger(t))
	assert.Equal(t, len(builtinSkills), store.Catalog().Len())
}

func TestStore_Poll(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	feed := &staticFeed{data: `[]`}
	store := NewStore(feed, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Poll(ctx, 10*time.Millisecond)
		close(done)
	}()

	feed.set(`[{"ref": "polled", "name": "Polled", "description": "Arrived via polling"}]`)
	require.Eventually(t, func() bool {
		_, ok := store.Catalog().Get("polled")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}
}
