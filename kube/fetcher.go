package kube

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/kubeping/errors"
	"github.com/kbukum/kubeping/logger"
	"github.com/kbukum/kubeping/resilience"
	"github.com/kbukum/kubeping/security"
)

// FetcherConfig is the fetch policy: timeouts, bounded attempts with a fixed
// sleep between them, and optional diagnostics.
type FetcherConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// MaxAttempts counts the first try. Values below 1 mean 1.
	MaxAttempts int
	Sleep       time.Duration
	Dump        bool
	// DumpOut receives dumps; nil means stdout.
	DumpOut io.Writer
}

// Fetcher retrieves a document from the API with bounded retries.
type Fetcher struct {
	cfg     FetcherConfig
	streams StreamProvider
	log     *logger.Logger
	dump    *dumper
	sleep   func(ctx context.Context, d time.Duration) error
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithSleepFunc replaces the wait between attempts.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) FetcherOption {
	return func(f *Fetcher) { f.sleep = fn }
}

// NewFetcher creates a Fetcher that opens streams through streams.
func NewFetcher(cfg FetcherConfig, streams StreamProvider, log *logger.Logger, opts ...FetcherOption) *Fetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	f := &Fetcher{
		cfg:     cfg,
		streams: streams,
		log:     log.WithComponent("fetcher"),
		dump:    newDumper(cfg.Dump, cfg.DumpOut),
		sleep:   resilience.SleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url and returns the body. Every failure, including a
// non-success status, is retried until MaxAttempts is reached, sleeping
// cfg.Sleep in between. The final failure is a fetch error wrapping the last
// cause. An empty body is a success.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	retry := resilience.FixedRetryConfig(f.cfg.MaxAttempts, f.cfg.Sleep)
	retry.Sleep = f.sleep
	retry.RetryIf = resilience.WhileActive(ctx)
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		f.log.Warn("fetch attempt failed, retrying", logger.Fields(
			logger.FieldURL, url,
			logger.FieldAttempt, attempt,
			"max_attempts", f.cfg.MaxAttempts,
			"sleep_ms", backoff.Milliseconds(),
			logger.FieldHeaders, security.MaskHeaders(headers),
			logger.FieldError, err.Error(),
		))
	}

	attempts := 0
	body, err := resilience.Retry(ctx, retry, func(attempt int) ([]byte, error) {
		attempts = attempt
		return f.attempt(ctx, url, headers)
	})
	if err != nil {
		return nil, errors.Fetch(url, attempts, err)
	}
	return body, nil
}

func (f *Fetcher) attempt(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	f.dump.request(url, headers)

	stream, err := f.streams.Open(ctx, StreamRequest{
		URL:            url,
		Headers:        headers,
		ConnectTimeout: f.cfg.ConnectTimeout,
		ReadTimeout:    f.cfg.ReadTimeout,
	})
	if err != nil {
		f.dump.failure(url, err)
		return nil, err
	}
	defer func() { _ = stream.Close() }()

	body, err := io.ReadAll(stream)
	if err != nil {
		f.dump.failure(url, err)
		return nil, err
	}
	f.dump.response(url, body)
	return body, nil
}
