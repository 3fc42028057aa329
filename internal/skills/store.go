package skills

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/insight-engine/internal/fetch"
)

// FeedEnvVar holds an inline distilled skill feed.
const FeedEnvVar = "INSIGHT_DISTILLED_SKILLS_JSON"

// FeedSource supplies the raw distilled skill feed. A nil slice with a nil
// error means there is no feed.
type FeedSource interface {
	ReadFeed() ([]byte, error)
}

// FileFeed reads the feed from a file. A missing file means no feed.
type FileFeed string

// ReadFeed implements FeedSource.
func (f FileFeed) ReadFeed() ([]byte, error) {
	data, err := os.ReadFile(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read skill feed %s: %w", string(f), err)
	}
	return data, nil
}

// EnvFeed reads the feed from an environment variable.
type EnvFeed string

// ReadFeed implements FeedSource.
func (e EnvFeed) ReadFeed() ([]byte, error) {
	return []byte(os.Getenv(string(e))), nil
}

// URLFeed reads the feed from an HTTP endpoint. A 404 means no feed.
type URLFeed struct {
	URL     string
	Options *fetch.Options
}

// ReadFeed implements FeedSource.
func (u URLFeed) ReadFeed() ([]byte, error) {
	opts := u.Options
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout+time.Second)
	defer cancel()

	res, err := fetch.URL(ctx, u.URL, opts)
	if res != nil && res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch skill feed: %w", err)
	}
	return res.Body, nil
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithReloadHook registers a callback invoked after every load attempt.
func WithReloadHook(hook func(ok bool)) StoreOption {
	return func(s *Store) { s.onReload = hook }
}

// Store holds the current Catalog. Readers always see a complete catalog;
// Reload builds a new one and swaps it in.
type Store struct {
	current  atomic.Pointer[Catalog]
	source   FeedSource
	logger   *zap.Logger
	onReload func(ok bool)
}

// NewStore builds a store and performs the initial load. A bad feed never
// fails construction: the store starts with the built-in catalog instead.
func NewStore(source FeedSource, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{source: source, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	s.current.Store(DefaultCatalog())
	if err := s.Reload(); err != nil {
		s.logger.Warn("distilled skill feed ignored, using built-in catalog", zap.Error(err))
	}
	return s
}

// Catalog returns the catalog currently in effect.
func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

// Reload re-reads the feed and swaps in a freshly merged catalog. On error
// the previously installed catalog stays in effect.
func (s *Store) Reload() error {
	catalog, err := s.build()
	if s.onReload != nil {
		s.onReload(err == nil)
	}
	if err != nil {
		return err
	}

	s.current.Store(catalog)
	s.logger.Info("skill catalog loaded", zap.Int("skills", catalog.Len()))
	return nil
}

func (s *Store) build() (*Catalog, error) {
	if s.source == nil {
		return DefaultCatalog(), nil
	}

	data, err := s.source.ReadFeed()
	if err != nil {
		return nil, err
	}

	result, err := ParseDistilledFeed(data)
	if err != nil {
		return nil, err
	}
	for _, r := range result.Rejected {
		s.logger.Warn("skipping distilled skill entry",
			zap.Int("index", r.Index),
			zap.String("reason", r.Reason),
		)
	}

	return NewCatalog(builtinSkills, result.Skills), nil
}

// Poll reloads the store every interval until ctx is done. Failed reloads
// keep the current catalog.
func (s *Store) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(); err != nil {
				s.logger.Warn("skill feed reload failed, keeping current catalog", zap.Error(err))
			}
		}
	}
}
