package port

import "context"

// Notifier delivers rendered messages out-of-band. Delivery is best-effort and
// never runs inside the atomic unit that committed the state change it
// announces; a failure surfaces to the caller without undoing that change.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
