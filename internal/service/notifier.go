// Package service holds the engagement and social-graph business logic. Services
// validate input, drive the repositories' atomic primitives and hand engagement
// events to the notification dispatcher.
package service

import "context"

// Notifier receives engagement events. Implementations must never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, in NotifyInput)
}
