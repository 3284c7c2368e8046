package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/SAP-F-2025/tutor-service/internal/session"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 4096
)

// clientMessage is what a client may send over the socket
type clientMessage struct {
	Type   string `json:"type"`
	Signal string `json:"signal,omitempty"`
}

// WSHandler streams session frames to a connected client and accepts activity
// signals in the other direction
type WSHandler struct {
	BaseHandler
	manager  *session.Manager
	upgrader websocket.Upgrader
}

func NewWSHandler(manager *session.Manager, allowedOrigins []string, logger utils.Logger) *WSHandler {
	return &WSHandler{
		BaseHandler: NewBaseHandler(logger, nil),
		manager:     manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// Connect upgrades the request and attaches it to the caller's session
// @Summary Session push channel
// @Description Pushes profile, notifications, avatars, view and forced_logout frames
// @Tags realtime
// @Param token query string true "Session token"
// @Router /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		utils.GetLogger(c, h.logger).Warn("Websocket upgrade failed", "error", err)
		return
	}

	logger := h.logger.With("role", sess.Role(), "subject_id", sess.SubjectID())
	logger.Info("Websocket connected")

	frames, detach := sess.Attach()
	done := make(chan struct{})

	go h.writeLoop(conn, sess, frames, done)
	h.readLoop(conn, sess, logger)

	close(done)
	detach()
	logger.Info("Websocket disconnected")
}

func (h *WSHandler) writeLoop(conn *websocket.Conn, sess *session.Session, frames <-chan session.Frame, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for _, frame := range initialFrames(sess) {
		if err := writeFrame(conn, frame); err != nil {
			return
		}
	}

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				// session ended
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := writeFrame(conn, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) readLoop(conn *websocket.Conn, sess *session.Session, logger utils.Logger) {
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Websocket read failed", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debug("Ignoring malformed websocket message", "error", err)
			continue
		}

		switch msg.Type {
		case "activity":
			ctx, cancel := context.WithTimeout(context.Background(), wsWriteWait)
			if err := h.manager.Activity(ctx, sess, msg.Signal); err != nil {
				logger.Debug("Activity signal rejected", "signal", msg.Signal, "error", err)
			}
			cancel()
		default:
			logger.Debug("Ignoring websocket message", "type", msg.Type)
		}
	}
}

// initialFrames replays the current state so a fresh connection does not wait for
// the next change
func initialFrames(sess *session.Session) []session.Frame {
	st := sess.Snapshot()
	frames := []session.Frame{{Type: session.FrameView, Data: st.View}}
	if sess.IsStudent() && st.Profile != nil {
		frames = append(frames,
			session.Frame{Type: session.FrameProfile, Data: st.Profile},
			session.Frame{Type: session.FrameNotifications, Data: session.NotificationsFrame{
				Items:       st.Notifications,
				UnreadCount: st.UnreadCount,
			}},
			session.Frame{Type: session.FrameAvatars, Data: st.Avatars},
		)
	}
	return frames
}

func writeFrame(conn *websocket.Conn, frame session.Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(frame)
}
