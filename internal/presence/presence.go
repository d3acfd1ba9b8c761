// Package presence tracks which user identities currently hold a live
// connection. The store is shared mutable state read from every
// connection's goroutine; implementations must be safe for concurrent use.
package presence

import "context"

// Store is the presence contract. A user is online iff the connection
// registry holds a live session for them; the registry updates both
// structures together on connect and disconnect.
//
// When the backing store is unreachable, operations return an error
// wrapping domain.ErrPresenceUnavailable. Callers treat presence as
// degraded (assume offline) rather than failing delivery.
type Store interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
	ListOnline(ctx context.Context) ([]string, error)
}
