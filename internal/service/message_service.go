package service

import (
	"context"
	"fmt"

	"voxchat/internal/domain"
)

// MessageService serves conversation history. Fetching a direct
// conversation also marks the peer's unread messages as read, matching
// what a client opening the conversation sees.
type MessageService struct {
	messages domain.MessageRepository
	groups   domain.GroupRepository
	pageSize int
}

func NewMessageService(messages domain.MessageRepository, groups domain.GroupRepository, pageSize int) *MessageService {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &MessageService{messages: messages, groups: groups, pageSize: pageSize}
}

// HistoryPage is one page of a conversation, newest first.
type HistoryPage struct {
	Messages []*domain.Message `json:"messages"`
	Total    int               `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

func (s *MessageService) clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	return offset, limit
}

func (s *MessageService) DirectHistory(ctx context.Context, callerID, peerID string, offset, limit int) (*HistoryPage, error) {
	offset, limit = s.clampPage(offset, limit)

	// Opening the conversation implies reading it.
	if err := s.messages.MarkDirectRead(ctx, callerID, peerID); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}

	msgs, err := s.messages.ListDirect(ctx, callerID, peerID, offset, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.messages.CountDirect(ctx, callerID, peerID)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Messages: msgs, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *MessageService) GroupHistory(ctx context.Context, callerID, groupID string, offset, limit int) (*HistoryPage, error) {
	offset, limit = s.clampPage(offset, limit)

	ok, err := s.groups.IsMember(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a group member", domain.ErrForbidden)
	}

	msgs, err := s.messages.ListGroup(ctx, groupID, offset, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.messages.CountGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Messages: msgs, Total: total, Offset: offset, Limit: limit}, nil
}

// Get returns a single message if the caller participates in it.
func (s *MessageService) Get(ctx context.Context, callerID, messageID string) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message", domain.ErrNotFound)
	}

	switch {
	case msg.SenderID == callerID:
	case msg.IsDirect() && *msg.ReceiverID == callerID:
	case msg.IsGroup():
		ok, err := s.groups.IsMember(ctx, *msg.GroupID, callerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: not a participant", domain.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("%w: not a participant", domain.ErrForbidden)
	}
	return msg, nil
}
