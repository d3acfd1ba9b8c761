package domain

import "time"

// MessageStatus is the delivery state of a persisted message. Transitions
// only ever move forward: sent -> delivered -> read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Rank orders statuses along the delivery lattice. Unknown values rank
// below "sent" so they can never overwrite a real status.
func (s MessageStatus) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

// CanAdvance reports whether a transition from s to next moves strictly
// forward. A transition at or below the current rank is a no-op for
// callers, never an error.
func (s MessageStatus) CanAdvance(next MessageStatus) bool {
	return next.Rank() > s.Rank()
}

// StatusesBelow returns every valid status with a rank strictly lower than
// s. Repositories use this to build guarded status updates.
func StatusesBelow(s MessageStatus) []MessageStatus {
	var res []MessageStatus
	for _, candidate := range []MessageStatus{StatusSent, StatusDelivered, StatusRead} {
		if candidate.Rank() < s.Rank() {
			res = append(res, candidate)
		}
	}
	return res
}

// MessageType describes the payload kind of a message.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeAudio MessageType = "audio"
	TypeVideo MessageType = "video"
	TypeFile  MessageType = "file"
)

// ValidMessageType reports whether t is one of the known payload kinds.
func ValidMessageType(t MessageType) bool {
	switch t {
	case TypeText, TypeImage, TypeAudio, TypeVideo, TypeFile:
		return true
	}
	return false
}

// User represents an application user. Users register with an email
// address or a phone number (at least one is set).
type User struct {
	ID             string    `db:"id" json:"id"`
	Email          *string   `db:"email" json:"email,omitempty"`
	PhoneNumber    *string   `db:"phone_number" json:"phone_number,omitempty"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	FullName       *string   `db:"full_name" json:"full_name,omitempty"`
	ProfilePicture *string   `db:"profile_picture" json:"profile_picture,omitempty"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	IsVerified     bool      `db:"is_verified" json:"is_verified"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Message represents a single chat message. Exactly one of ReceiverID
// (direct message) or GroupID (group message) is set. Messages are never
// physically deleted, only flagged.
type Message struct {
	ID          string        `db:"id" json:"id"`
	SenderID    string        `db:"sender_id" json:"sender_id"`
	ReceiverID  *string       `db:"receiver_id" json:"receiver_id,omitempty"`
	GroupID     *string       `db:"group_id" json:"group_id,omitempty"`
	Content     string        `db:"content" json:"content"`
	MessageType MessageType   `db:"message_type" json:"message_type"`
	FileURL     *string       `db:"file_url" json:"file_url,omitempty"`
	Status      MessageStatus `db:"status" json:"status"`
	IsDeleted   bool          `db:"is_deleted" json:"is_deleted"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time    `db:"updated_at" json:"updated_at,omitempty"`
}

// IsDirect reports whether the message is addressed to a single user.
func (m *Message) IsDirect() bool {
	return m.ReceiverID != nil && *m.ReceiverID != ""
}

// IsGroup reports whether the message is addressed to a group.
func (m *Message) IsGroup() bool {
	return m.GroupID != nil && *m.GroupID != ""
}

// Group represents a chat group.
type Group struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Description  *string    `db:"description" json:"description,omitempty"`
	GroupPicture *string    `db:"group_picture" json:"group_picture,omitempty"`
	CreatedBy    string     `db:"created_by" json:"created_by"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// GroupMember represents the membership of a user in a group.
// A group must keep at least one admin member at all times.
type GroupMember struct {
	ID       string    `db:"id" json:"id"`
	GroupID  string    `db:"group_id" json:"group_id"`
	UserID   string    `db:"user_id" json:"user_id"`
	IsAdmin  bool      `db:"is_admin" json:"is_admin"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}
