package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	ListActive(ctx context.Context, offset, limit int) ([]*User, error)
	Update(ctx context.Context, u *User) error
	SetVerified(ctx context.Context, id string, verified bool) error
	UpdatePassword(ctx context.Context, id, hashed string) error
	SoftDelete(ctx context.Context, id string) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Insert(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	// AdvanceStatus applies a forward-only status transition and reports
	// whether a row actually changed. A transition at or below the current
	// status changes nothing and returns false with a nil error.
	AdvanceStatus(ctx context.Context, id string, status MessageStatus) (bool, error)
	ListDirect(ctx context.Context, userA, userB string, offset, limit int) ([]*Message, error)
	CountDirect(ctx context.Context, userA, userB string) (int, error)
	ListGroup(ctx context.Context, groupID string, offset, limit int) ([]*Message, error)
	CountGroup(ctx context.Context, groupID string) (int, error)
	// MarkDirectRead marks every non-read message sent by peerID to
	// readerID as read.
	MarkDirectRead(ctx context.Context, readerID, peerID string) error
}

// GroupRepository defines persistence operations for groups and their
// membership roster.
type GroupRepository interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	Update(ctx context.Context, g *Group) error
	ListForUser(ctx context.Context, userID string, offset, limit int) ([]*Group, int, error)
	AddMember(ctx context.Context, m *GroupMember) error
	GetMember(ctx context.Context, groupID, memberID string) (*GroupMember, error)
	RemoveMember(ctx context.Context, groupID, memberID string) error
	ListMembers(ctx context.Context, groupID string) ([]*GroupMember, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	CountAdmins(ctx context.Context, groupID string) (int, error)
}
