package port

import (
	"context"
	"time"
)

// RateLimitStore is the pluggable throttling hook at the credential
// verification boundary. The engine itself imposes no lockout policy; a nil
// store disables throttling entirely.
type RateLimitStore interface {
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
}
