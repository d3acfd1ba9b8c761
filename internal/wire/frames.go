// Package wire defines the frame shapes exchanged over the chat
// connection. Inbound frames are decoded once at the boundary into a
// closed variant set; unknown frame types map to an explicit Unknown
// variant that the dispatcher ignores.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"voxchat/internal/domain"
)

// FrameKind discriminates the inbound frame variants.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameMessage
	FrameTyping
	FrameReadReceipt
)

const (
	typeMessage     = "message"
	typeTyping      = "typing"
	typeReadReceipt = "read_receipt"
)

// MessagePayload is the data of an inbound "message" frame.
type MessagePayload struct {
	Content     string             `json:"content"`
	MessageType domain.MessageType `json:"message_type"`
	FileURL     *string            `json:"file_url,omitempty"`
	ReceiverID  *string            `json:"receiver_id,omitempty"`
	GroupID     *string            `json:"group_id,omitempty"`
}

// TypingPayload is the data of an inbound "typing" frame.
type TypingPayload struct {
	ReceiverID string `json:"receiver_id"`
	IsTyping   bool   `json:"is_typing"`
}

// ReadReceiptPayload is the data of an inbound "read_receipt" frame.
type ReadReceiptPayload struct {
	MessageID string `json:"message_id"`
}

// Frame is the decoded form of one inbound envelope. Exactly the field
// matching Kind is non-nil; an Unknown frame carries only the raw type tag.
type Frame struct {
	Kind        FrameKind
	Type        string
	Message     *MessagePayload
	Typing      *TypingPayload
	ReadReceipt *ReadReceiptPayload
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode parses one raw inbound frame. Structurally undecodable input and
// payloads missing required fields return an error wrapping
// domain.ErrMalformedFrame; the caller drops the frame and keeps the
// connection open. Unrecognized type tags are not an error.
func Decode(raw []byte) (*Frame, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", domain.ErrMalformedFrame)
	}

	switch env.Type {
	case typeMessage:
		var p MessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: message data: %v", domain.ErrMalformedFrame, err)
		}
		if p.Content == "" {
			return nil, fmt.Errorf("%w: message requires content", domain.ErrMalformedFrame)
		}
		hasReceiver := p.ReceiverID != nil && *p.ReceiverID != ""
		hasGroup := p.GroupID != nil && *p.GroupID != ""
		if hasReceiver == hasGroup {
			return nil, fmt.Errorf("%w: message requires exactly one of receiver_id or group_id", domain.ErrMalformedFrame)
		}
		if p.MessageType == "" {
			p.MessageType = domain.TypeText
		}
		if !domain.ValidMessageType(p.MessageType) {
			return nil, fmt.Errorf("%w: unknown message_type %q", domain.ErrMalformedFrame, p.MessageType)
		}
		return &Frame{Kind: FrameMessage, Type: env.Type, Message: &p}, nil

	case typeTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: typing data: %v", domain.ErrMalformedFrame, err)
		}
		if p.ReceiverID == "" {
			return nil, fmt.Errorf("%w: typing requires receiver_id", domain.ErrMalformedFrame)
		}
		return &Frame{Kind: FrameTyping, Type: env.Type, Typing: &p}, nil

	case typeReadReceipt:
		var p ReadReceiptPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: read_receipt data: %v", domain.ErrMalformedFrame, err)
		}
		if p.MessageID == "" {
			return nil, fmt.Errorf("%w: read_receipt requires message_id", domain.ErrMalformedFrame)
		}
		return &Frame{Kind: FrameReadReceipt, Type: env.Type, ReadReceipt: &p}, nil

	default:
		// Forward-compatible: unknown tags are ignored by the dispatcher.
		return &Frame{Kind: FrameUnknown, Type: env.Type}, nil
	}
}

// Envelope is the outbound frame wrapper.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// MessageData is the outbound shape of a delivered or echoed message.
type MessageData struct {
	ID          string               `json:"id"`
	SenderID    string               `json:"sender_id"`
	ReceiverID  *string              `json:"receiver_id,omitempty"`
	GroupID     *string              `json:"group_id,omitempty"`
	Content     string               `json:"content"`
	MessageType domain.MessageType   `json:"message_type"`
	FileURL     *string              `json:"file_url,omitempty"`
	Status      domain.MessageStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
}

// MessageEvent builds the outbound frame for a persisted message.
func MessageEvent(m *domain.Message) Envelope {
	return Envelope{
		Type: typeMessage,
		Data: MessageData{
			ID:          m.ID,
			SenderID:    m.SenderID,
			ReceiverID:  m.ReceiverID,
			GroupID:     m.GroupID,
			Content:     m.Content,
			MessageType: m.MessageType,
			FileURL:     m.FileURL,
			Status:      m.Status,
			CreatedAt:   m.CreatedAt,
		},
	}
}

// TypingData is the outbound shape of a typing indicator.
type TypingData struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	IsTyping   bool   `json:"is_typing"`
}

// TypingEvent builds the outbound frame for a typing indicator.
func TypingEvent(senderID, receiverID string, isTyping bool) Envelope {
	return Envelope{
		Type: typeTyping,
		Data: TypingData{SenderID: senderID, ReceiverID: receiverID, IsTyping: isTyping},
	}
}

// ReadReceiptData is the outbound shape of a read receipt.
type ReadReceiptData struct {
	MessageID string `json:"message_id"`
	ReaderID  string `json:"reader_id"`
}

// ReadReceiptEvent builds the outbound frame notifying a sender that
// their message was read.
func ReadReceiptEvent(messageID, readerID string) Envelope {
	return Envelope{
		Type: typeReadReceipt,
		Data: ReadReceiptData{MessageID: messageID, ReaderID: readerID},
	}
}
