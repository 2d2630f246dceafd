package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordingSleep counts sleeps and their durations without blocking.
type recordingSleep struct {
	durations []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.durations = append(r.durations, d)
	return ctx.Err()
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	rec := &recordingSleep{}
	cfg := FixedRetryConfig(3, time.Second)
	cfg.Sleep = rec.sleep
	callCount := 0

	result, err := Retry(context.Background(), cfg, func(int) (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 || len(rec.durations) != 0 {
		t.Errorf("expected 1 call and no sleeps, got %d calls %d sleeps", callCount, len(rec.durations))
	}
}

func TestRetry_FixedSleepBetweenAttempts(t *testing.T) {
	rec := &recordingSleep{}
	cfg := FixedRetryConfig(3, time.Second)
	cfg.Sleep = rec.sleep
	var attempts []int

	result, err := Retry(context.Background(), cfg, func(attempt int) (string, error) {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	})

	if err != nil || result != "success" {
		t.Fatalf("expected success, got %q %v", result, err)
	}
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("expected attempts [1 2 3], got %v", attempts)
	}
	if len(rec.durations) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(rec.durations))
	}
	for _, d := range rec.durations {
		if d != time.Second {
			t.Errorf("expected fixed 1s sleep, got %v", d)
		}
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	rec := &recordingSleep{}
	cfg := FixedRetryConfig(3, time.Millisecond)
	cfg.Sleep = rec.sleep
	callCount := 0
	testErr := errors.New("persistent error")

	_, err := Retry(context.Background(), cfg, func(int) (string, error) {
		callCount++
		return "", testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("expected testErr, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
	if len(rec.durations) != 2 {
		t.Errorf("expected no sleep after the last attempt, got %d sleeps", len(rec.durations))
	}
}

func TestRetry_SingleAttemptNeverSleeps(t *testing.T) {
	rec := &recordingSleep{}
	cfg := FixedRetryConfig(1, time.Hour)
	cfg.Sleep = rec.sleep

	_, err := Retry(context.Background(), cfg, func(int) (int, error) {
		return 0, errors.New("down")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(rec.durations) != 0 {
		t.Errorf("expected 0 sleeps, got %d", len(rec.durations))
	}
}

func TestRetry_CancelStopsFurtherAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	testErr := errors.New("error")
	cfg := FixedRetryConfig(10, time.Hour)
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return SleepContext(ctx, d)
	}

	callCount := 0
	_, err := Retry(ctx, cfg, func(int) (string, error) {
		callCount++
		return "", testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("expected last attempt error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call after cancellation, got %d", callCount)
	}
}

func TestRetry_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Retry(ctx, FixedRetryConfig(3, 0), func(int) (int, error) {
		called = true
		return 1, nil
	})
	if called {
		t.Error("fn must not run on a cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetry_RealTimerRespectsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	callCount := 0
	_, _ = Retry(ctx, FixedRetryConfig(5, time.Minute), func(int) (int, error) {
		callCount++
		return 0, errors.New("down")
	})
	if time.Since(start) > 5*time.Second {
		t.Error("retry did not honour the deadline")
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_RetryIfFilter(t *testing.T) {
	retryableErr := errors.New("retryable")
	nonRetryableErr := errors.New("non-retryable")

	cfg := FixedRetryConfig(3, 0)
	cfg.RetryIf = func(err error) bool {
		return errors.Is(err, retryableErr)
	}

	callCount := 0
	_, _ = Retry(context.Background(), cfg, func(int) (string, error) {
		callCount++
		return "", retryableErr
	})
	if callCount != 3 {
		t.Errorf("expected 3 calls for retryable error, got %d", callCount)
	}

	callCount = 0
	_, err := Retry(context.Background(), cfg, func(int) (string, error) {
		callCount++
		return "", nonRetryableErr
	})
	if callCount != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", callCount)
	}
	if !errors.Is(err, nonRetryableErr) {
		t.Errorf("expected nonRetryableErr, got %v", err)
	}
}

func TestWhileActive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retryIf := WhileActive(ctx)

	if !retryIf(context.DeadlineExceeded) {
		t.Error("attempt deadline should be retried while the caller is live")
	}
	cancel()
	if retryIf(errors.New("boom")) {
		t.Error("no retry once the caller's context is done")
	}
}

func TestRetry_WhileActiveRetriesAttemptDeadlines(t *testing.T) {
	rec := &recordingSleep{}
	cfg := FixedRetryConfig(3, time.Second)
	cfg.Sleep = rec.sleep
	ctx := context.Background()
	cfg.RetryIf = WhileActive(ctx)

	calls := 0
	got, err := Retry(ctx, cfg, func(int) (string, error) {
		calls++
		if calls < 3 {
			return "", context.DeadlineExceeded
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q, %v", got, err)
	}
	if len(rec.durations) != 2 {
		t.Errorf("expected 2 sleeps, got %d", len(rec.durations))
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var retries []int
	cfg := FixedRetryConfig(3, 0)
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		retries = append(retries, attempt)
	}

	_ = RetryFunc(context.Background(), cfg, func(int) error {
		return errors.New("error")
	})

	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("expected attempts [1, 2], got %v", retries)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		BackoffFactor:  2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		got := calculateBackoff(tt.attempt, cfg)
		if got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}

	fixed := FixedRetryConfig(3, 250*time.Millisecond).withDefaults()
	for attempt := 1; attempt <= 3; attempt++ {
		if got := calculateBackoff(attempt, fixed); got != 250*time.Millisecond {
			t.Errorf("fixed attempt %d: expected 250ms, got %v", attempt, got)
		}
	}
}
