package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"voxchat/internal/presence"
)

// Pusher is one live outbound channel to a connected client. Push never
// blocks; it fails when the session is closed or its queue is full.
type Pusher interface {
	Push(payload any) error
	Close()
}

// Hub is the registry of live connections, one slot per user identity.
// A new connection for an already-connected user replaces the prior one
// (last-connect-wins) and the replaced session is closed explicitly so it
// cannot linger as a dead send target.
//
// The presence store is updated inside every Register and Unregister, but
// the write happens after the map mutation with the lock released, so a
// connect/disconnect race has a brief window where the presence set lags
// the registry. Routing reads only the registry, so delivery is never
// affected; presence answers may be momentarily stale.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]Pusher

	presence presence.Store
	metrics  *Metrics
	log      *zap.Logger
}

func NewHub(store presence.Store, metrics *Metrics, log *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]Pusher),
		presence: store,
		metrics:  metrics,
		log:      log,
	}
}

// Register installs p as the live session for userID and marks the user
// online. Any prior session for the same user is closed.
func (h *Hub) Register(ctx context.Context, userID string, p Pusher) {
	h.mu.Lock()
	prev := h.sessions[userID]
	h.sessions[userID] = p
	h.mu.Unlock()

	if prev != nil {
		prev.Close()
	} else {
		h.metrics.incConnection()
	}

	// Presence is written outside the map lock; a store call must never
	// stall other connects.
	if err := h.presence.MarkOnline(ctx, userID); err != nil {
		h.log.Warn("mark online failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Unregister removes p if it is still the current session for userID and
// marks the user offline only when removal actually occurred. A stale
// disconnect racing a newer connect is a no-op.
func (h *Hub) Unregister(ctx context.Context, userID string, p Pusher) {
	h.mu.Lock()
	current, ok := h.sessions[userID]
	removed := ok && current == p
	if removed {
		delete(h.sessions, userID)
	}
	h.mu.Unlock()

	if !removed {
		return
	}
	h.metrics.decConnection()
	if err := h.presence.MarkOffline(ctx, userID); err != nil {
		h.log.Warn("mark offline failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Send pushes payload to the user's live session if one exists. A missing
// session is a normal outcome, not an error. A failed push (closed session
// or sustained backpressure) drops the connection and reports undelivered.
func (h *Hub) Send(userID string, payload any) bool {
	h.mu.RLock()
	p, ok := h.sessions[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if err := p.Push(payload); err != nil {
		h.log.Warn("push failed, dropping session", zap.String("user_id", userID), zap.Error(err))
		h.metrics.incPushFailure()
		p.Close()
		return false
	}
	h.metrics.incDelivered()
	return true
}

// Broadcast pushes payload to every registered session. Used for
// operational signals only, never for user-routed delivery.
func (h *Hub) Broadcast(payload any) {
	h.mu.RLock()
	snapshot := make([]Pusher, 0, len(h.sessions))
	for _, p := range h.sessions {
		snapshot = append(snapshot, p)
	}
	h.mu.RUnlock()

	for _, p := range snapshot {
		_ = p.Push(payload)
	}
}

// Connected reports whether the registry currently holds a session for
// userID.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[userID]
	return ok
}
