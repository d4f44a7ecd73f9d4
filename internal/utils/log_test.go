package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3, "..."); got != "abc..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("привет", 10, "..."); got != "привет" {
		t.Fatalf("expected untouched string, got %q", got)
	}
	if got := Truncate("привет", 2, ""); got != "пр" {
		t.Fatalf("expected rune aware truncation, got %q", got)
	}
}

func TestWaitFor(t *testing.T) {
	var waited time.Duration
	fired := make(chan time.Time, 1)
	fired <- time.Time{}
	after := func(d time.Duration) <-chan time.Time {
		waited = d
		return fired
	}
	if err := WaitFor(context.Background(), time.Minute, after); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited != time.Minute {
		t.Fatalf("expected a wait of a minute, got %s", waited)
	}
}

func TestWaitForReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	never := func(time.Duration) <-chan time.Time { return nil }
	if err := WaitFor(ctx, time.Minute, never); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestWaitForRealTimerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := WaitFor(ctx, time.Hour, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected to return on cancel, waited %s", elapsed)
	}
}

func TestWaitForNonPositive(t *testing.T) {
	if err := WaitFor(context.Background(), 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
