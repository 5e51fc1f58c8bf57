package notification

import "context"

// Notifier delivers one formatted message to an external channel.
// Delivery failure is reported, never propagated: transport errors
// become a false return and a log line at the implementation.
type Notifier interface {
	Send(ctx context.Context, text string) bool
}
