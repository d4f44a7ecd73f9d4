package utils

import (
	"context"
	"strings"
	"time"
)

// WaitFor blocks for d or until ctx is done. after replaces the timer in
// tests; nil uses a real timer that is stopped when ctx ends first.
func WaitFor(ctx context.Context, d time.Duration, after func(time.Duration) <-chan time.Time) error {
	if d <= 0 {
		return ctx.Err()
	}

	var fired <-chan time.Time
	if after != nil {
		fired = after(d)
	} else {
		timer := time.NewTimer(d)
		defer timer.Stop()
		fired = timer.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-fired:
		return nil
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Truncate cuts s to limit runes and appends suffix when anything was cut.
// Surrounding whitespace is kept.
func Truncate(s string, limit int, suffix string) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + suffix
}
