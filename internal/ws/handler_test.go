package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voxchat/internal/delivery"
	"voxchat/internal/domain"
	"voxchat/internal/presence"
	"voxchat/internal/security"
)

const testOrigin = "http://localhost:3000"

type stubUserRepo struct {
	user *domain.User
}

func (r *stubUserRepo) Create(ctx context.Context, u *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, nil
}

func (r *stubUserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return nil, nil
}

func (r *stubUserRepo) ListActive(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	return nil, nil
}

func (r *stubUserRepo) Update(ctx context.Context, u *domain.User) error { return nil }

func (r *stubUserRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	return nil
}

func (r *stubUserRepo) UpdatePassword(ctx context.Context, id, hashed string) error { return nil }

func (r *stubUserRepo) SoftDelete(ctx context.Context, id string) error { return nil }

// memMessageRepo records inserts; enough store behavior for the handler
// loop.
type memMessageRepo struct {
	mu       sync.Mutex
	inserted []*domain.Message
}

func (r *memMessageRepo) Insert(ctx context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, m)
	return nil
}

func (r *memMessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.inserted {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMessageRepo) AdvanceStatus(ctx context.Context, id string, status domain.MessageStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.inserted {
		if m.ID == id && m.Status.CanAdvance(status) {
			m.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (r *memMessageRepo) ListDirect(ctx context.Context, userA, userB string, offset, limit int) ([]*domain.Message, error) {
	return nil, nil
}

func (r *memMessageRepo) CountDirect(ctx context.Context, userA, userB string) (int, error) {
	return 0, nil
}

func (r *memMessageRepo) ListGroup(ctx context.Context, groupID string, offset, limit int) ([]*domain.Message, error) {
	return nil, nil
}

func (r *memMessageRepo) CountGroup(ctx context.Context, groupID string) (int, error) {
	return 0, nil
}

func (r *memMessageRepo) MarkDirectRead(ctx context.Context, readerID, peerID string) error {
	return nil
}

func (r *memMessageRepo) insertedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inserted)
}

type stubGroupRepo struct{}

func (stubGroupRepo) Create(ctx context.Context, g *domain.Group) error          { return nil }
func (stubGroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) { return nil, nil }
func (stubGroupRepo) Update(ctx context.Context, g *domain.Group) error          { return nil }
func (stubGroupRepo) ListForUser(ctx context.Context, userID string, offset, limit int) ([]*domain.Group, int, error) {
	return nil, 0, nil
}
func (stubGroupRepo) AddMember(ctx context.Context, m *domain.GroupMember) error { return nil }
func (stubGroupRepo) GetMember(ctx context.Context, groupID, memberID string) (*domain.GroupMember, error) {
	return nil, nil
}
func (stubGroupRepo) RemoveMember(ctx context.Context, groupID, memberID string) error { return nil }
func (stubGroupRepo) ListMembers(ctx context.Context, groupID string) ([]*domain.GroupMember, error) {
	return nil, nil
}
func (stubGroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return false, nil
}
func (stubGroupRepo) CountAdmins(ctx context.Context, groupID string) (int, error) { return 0, nil }

type handlerFixture struct {
	hub      *Hub
	store    presence.Store
	messages *memMessageRepo
	server   *httptest.Server
	token    string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	store := presence.NewMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	log := zap.NewNop()
	hub := NewHub(store, metrics, log)

	messages := &memMessageRepo{}
	router := delivery.NewRouter(messages, stubGroupRepo{}, hub, log)

	tokens := security.NewTokenService("test-secret", time.Hour)
	users := &stubUserRepo{user: &domain.User{ID: "alice", IsActive: true}}

	handler := MakeHandler(hub, metrics, tokens, users, router, []string{testOrigin}, log)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	token, err := tokens.CreateForUser("alice")
	require.NoError(t, err)

	return &handlerFixture{
		hub:      hub,
		store:    store,
		messages: messages,
		server:   server,
		token:    token,
	}
}

func (f *handlerFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=" + f.token
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{testOrigin}})
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&env))
	return env.Type, env.Data
}

func TestHandlerSurvivesMalformedFrame(t *testing.T) {
	f := newHandlerFixture(t)
	conn := f.dial(t)

	// Malformed: a message frame with no content.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"message","data":{"receiver_id":"bob"}}`)))
	// Not JSON at all.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	// Unknown type tag: ignored, not an error.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"presence_ping","data":{}}`)))

	// The connection must still process a valid frame.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"message","data":{"content":"still here","receiver_id":"bob"}}`)))

	frameType, data := readEnvelope(t, conn)
	assert.Equal(t, "message", frameType)
	assert.Equal(t, "still here", data["content"])
	assert.Equal(t, "alice", data["sender_id"])

	// Only the valid frame was persisted, and the session kept its slot.
	assert.Equal(t, 1, f.messages.insertedCount())
	assert.True(t, f.hub.Connected("alice"))

	online, err := f.store.IsOnline(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, online)
}

func TestHandlerUnregistersOnDisconnect(t *testing.T) {
	f := newHandlerFixture(t)
	conn := f.dial(t)

	require.Eventually(t, func() bool {
		return f.hub.Connected("alice")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		if f.hub.Connected("alice") {
			return false
		}
		online, err := f.store.IsOnline(context.Background(), "alice")
		return err == nil && !online
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandlerRejectsBadToken(t *testing.T) {
	f := newHandlerFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=not-a-token"
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{testOrigin}})
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, f.hub.Connected("alice"))
}

func TestHandlerRejectsDisallowedOrigin(t *testing.T) {
	f := newHandlerFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=" + f.token
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
