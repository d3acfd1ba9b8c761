package wire_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxchat/internal/domain"
	"voxchat/internal/wire"
)

func TestDecodeDirectMessage(t *testing.T) {
	raw := []byte(`{"type":"message","data":{"content":"hi","receiver_id":"u2"}}`)
	f, err := wire.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, wire.FrameMessage, f.Kind)
	require.NotNil(t, f.Message)
	assert.Equal(t, "hi", f.Message.Content)
	require.NotNil(t, f.Message.ReceiverID)
	assert.Equal(t, "u2", *f.Message.ReceiverID)
	assert.Equal(t, domain.TypeText, f.Message.MessageType, "message_type defaults to text")
}

func TestDecodeGroupMessage(t *testing.T) {
	raw := []byte(`{"type":"message","data":{"content":"yo","group_id":"g1","message_type":"image","file_url":"https://cdn/x.png"}}`)
	f, err := wire.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, wire.FrameMessage, f.Kind)
	require.NotNil(t, f.Message.GroupID)
	assert.Equal(t, "g1", *f.Message.GroupID)
	assert.Equal(t, domain.TypeImage, f.Message.MessageType)
}

func TestDecodeTypingAndReadReceipt(t *testing.T) {
	f, err := wire.Decode([]byte(`{"type":"typing","data":{"receiver_id":"u2","is_typing":true}}`))
	require.NoError(t, err)
	require.Equal(t, wire.FrameTyping, f.Kind)
	assert.True(t, f.Typing.IsTyping)

	f, err = wire.Decode([]byte(`{"type":"read_receipt","data":{"message_id":"m1"}}`))
	require.NoError(t, err)
	require.Equal(t, wire.FrameReadReceipt, f.Kind)
	assert.Equal(t, "m1", f.ReadReceipt.MessageID)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"missing type", `{"data":{}}`},
		{"message without content", `{"type":"message","data":{"receiver_id":"u2"}}`},
		{"message without target", `{"type":"message","data":{"content":"hi"}}`},
		{"message with both targets", `{"type":"message","data":{"content":"hi","receiver_id":"u2","group_id":"g1"}}`},
		{"bad message_type", `{"type":"message","data":{"content":"hi","receiver_id":"u2","message_type":"hologram"}}`},
		{"typing without receiver", `{"type":"typing","data":{"is_typing":true}}`},
		{"read_receipt without id", `{"type":"read_receipt","data":{}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := wire.Decode([]byte(c.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedFrame))
		})
	}
}

func TestDecodeUnknownTypeIgnored(t *testing.T) {
	f, err := wire.Decode([]byte(`{"type":"reaction","data":{"emoji":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, wire.FrameUnknown, f.Kind)
	assert.Equal(t, "reaction", f.Type)
}

func TestMessageEventShape(t *testing.T) {
	receiver := "u2"
	m := &domain.Message{
		ID:          "m1",
		SenderID:    "u1",
		ReceiverID:  &receiver,
		Content:     "hi",
		MessageType: domain.TypeText,
		Status:      domain.StatusSent,
	}
	b, err := json.Marshal(wire.MessageEvent(m))
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(b, &env))
	assert.Equal(t, "message", env["type"])
	data := env["data"].(map[string]any)
	assert.Equal(t, "m1", data["id"])
	assert.Equal(t, "u1", data["sender_id"])
	assert.Equal(t, "u2", data["receiver_id"])
	assert.Equal(t, "sent", data["status"])
	_, hasGroup := data["group_id"]
	assert.False(t, hasGroup, "unset group_id is omitted")
}
