// Package delivery routes decoded inbound events to their destinations
// and reflects delivery outcomes into persisted message state.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voxchat/internal/domain"
	"voxchat/internal/wire"
)

// Sender pushes an event to a user's live connection, reporting whether
// it was accepted. False means the user has no usable connection; that is
// a normal outcome, not an error.
type Sender interface {
	Send(userID string, payload any) bool
}

// Router resolves recipients for one inbound event at a time and pushes
// to live connections. Each connection's session loop calls it
// synchronously, so frames from a single connection are processed
// strictly in arrival order; no ordering holds across connections.
type Router struct {
	messages domain.MessageRepository
	groups   domain.GroupRepository
	conns    Sender
	log      *zap.Logger
}

func NewRouter(messages domain.MessageRepository, groups domain.GroupRepository, conns Sender, log *zap.Logger) *Router {
	return &Router{
		messages: messages,
		groups:   groups,
		conns:    conns,
		log:      log,
	}
}

// HandleMessage persists an inbound message and routes it. Direct
// messages advance to "delivered" when the receiver's connection accepts
// the push; group messages fan out to the roster (minus the sender) and
// stay at "sent". The sender always gets an echo carrying the
// server-assigned id and timestamp.
//
// A persistence failure fails the whole frame: nothing is pushed and no
// delivery is claimed.
func (r *Router) HandleMessage(ctx context.Context, senderID string, p *wire.MessagePayload) error {
	msg := &domain.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		ReceiverID:  p.ReceiverID,
		GroupID:     p.GroupID,
		Content:     p.Content,
		MessageType: p.MessageType,
		FileURL:     p.FileURL,
		Status:      domain.StatusSent,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.messages.Insert(ctx, msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	// The echo and all recipient pushes carry the status at persistence
	// time; the delivered transition is a store-side update.
	event := wire.MessageEvent(msg)

	switch {
	case msg.IsDirect():
		if delivered := r.conns.Send(*msg.ReceiverID, event); delivered {
			if _, err := r.messages.AdvanceStatus(ctx, msg.ID, domain.StatusDelivered); err != nil {
				// The receiver already has the frame; surfacing this to the
				// sender would claim a failure that did not happen.
				r.log.Error("advance to delivered failed",
					zap.String("message_id", msg.ID), zap.Error(err))
			}
		}

	case msg.IsGroup():
		members, err := r.groups.ListMembers(ctx, *msg.GroupID)
		if err != nil {
			r.log.Error("resolve group roster failed",
				zap.String("group_id", *msg.GroupID), zap.Error(err))
		}
		for _, m := range members {
			if m.UserID == senderID {
				continue
			}
			r.conns.Send(m.UserID, event)
		}
	}

	r.conns.Send(senderID, event)
	return nil
}

// HandleTyping forwards a typing indicator to the named receiver if they
// are connected. Typing signals are never persisted; an offline receiver
// means the signal is silently dropped.
func (r *Router) HandleTyping(ctx context.Context, senderID string, p *wire.TypingPayload) {
	r.conns.Send(p.ReceiverID, wire.TypingEvent(senderID, p.ReceiverID, p.IsTyping))
}

// HandleReadReceipt advances the referenced message to "read" when the
// acknowledging user is its receiver, and notifies the original sender.
// The notification is emitted only when the status row actually
// transitioned, so a duplicate receipt never produces a duplicate frame.
func (r *Router) HandleReadReceipt(ctx context.Context, readerID string, p *wire.ReadReceiptPayload) error {
	msg, err := r.messages.GetByID(ctx, p.MessageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil || !msg.IsDirect() || *msg.ReceiverID != readerID {
		// Only the message's receiver may acknowledge it.
		return nil
	}

	applied, err := r.messages.AdvanceStatus(ctx, msg.ID, domain.StatusRead)
	if err != nil {
		return fmt.Errorf("advance to read: %w", err)
	}
	if applied {
		r.conns.Send(msg.SenderID, wire.ReadReceiptEvent(msg.ID, readerID))
	}
	return nil
}
