package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"voxchat/internal/delivery"
	"voxchat/internal/domain"
	"voxchat/internal/security"
	"voxchat/internal/wire"
)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractToken pulls the bearer credential from the token query parameter,
// the Authorization header, or the websocket subprotocol list.
func extractToken(r *http.Request) (string, error) {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token, nil
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
// The connection is authenticated before any frame is accepted, then runs
// a receive-decode-dispatch loop:
//   - message      -> persist & route (direct or group fan-out)
//   - typing       -> forward to receiver if live
//   - read_receipt -> advance status & notify original sender
//
// Malformed frames are dropped without closing the connection; unknown
// frame types are ignored. Credential and origin failures are rejected
// before the upgrade with a plain HTTP status, so an unauthenticated
// client never holds a websocket at all.
func MakeHandler(
	hub *Hub,
	metrics *Metrics,
	tokens *security.TokenService,
	users domain.UserRepository,
	router *delivery.Router,
	allowedOrigins []string,
	log *zap.Logger,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractToken(r)
		if err != nil {
			if authErr, ok := err.(wsAuthError); ok {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		userID, err := tokens.Subject(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByID(ctx, userID)
		if err != nil || user == nil || !user.IsActive {
			http.Error(w, "user not found or inactive", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		sess := newSession(conn, log)
		go sess.writePump()

		hub.Register(ctx, user.ID, sess)
		defer func() {
			// Unregister is idempotent for this session; a newer connection
			// for the same user keeps its slot.
			hub.Unregister(context.Background(), user.ID, sess)
			sess.Close()
		}()

		log.Info("connection open", zap.String("user_id", user.ID))

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}

			frame, err := wire.Decode(raw)
			if err != nil {
				// One bad frame does not close the connection.
				metrics.incDroppedFrame()
				log.Debug("dropping malformed frame", zap.String("user_id", user.ID), zap.Error(err))
				continue
			}
			metrics.incFrame(frame.Type)

			switch frame.Kind {
			case wire.FrameMessage:
				if err := router.HandleMessage(ctx, user.ID, frame.Message); err != nil {
					log.Warn("message frame failed", zap.String("user_id", user.ID), zap.Error(err))
					sendError(sess, "failed to send message")
				}

			case wire.FrameTyping:
				router.HandleTyping(ctx, user.ID, frame.Typing)

			case wire.FrameReadReceipt:
				if err := router.HandleReadReceipt(ctx, user.ID, frame.ReadReceipt); err != nil {
					log.Warn("read receipt failed", zap.String("user_id", user.ID), zap.Error(err))
				}

			default:
				log.Debug("ignoring unknown frame type",
					zap.String("user_id", user.ID), zap.String("frame_type", frame.Type))
			}
		}

		log.Info("connection closed", zap.String("user_id", user.ID))
	}
}

func sendError(p Pusher, msg string) {
	_ = p.Push(map[string]any{
		"type":    "error",
		"message": msg,
	})
}
