package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/prepwise/prepwise/internal/live"
	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/utils"
)

type WSHandler struct {
	manager  *live.Manager
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(manager *live.Manager, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type       string                  `json:"type"`
	Config     *models.InterviewConfig `json:"config,omitempty"`     // start-interview
	Transcript string                  `json:"transcript,omitempty"` // stop-speaking

	// pause-interview/resume-interview/end-interview -> no fields
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

// wsEmitter adapts the mutex-guarded connection to the session's Emitter.
type wsEmitter struct {
	conn *wsConn
	log  *logrus.Logger
}

func (e *wsEmitter) Emit(event string, data any) {
	env := map[string]any{"type": event}
	if data != nil {
		env["data"] = data
	}
	b, err := json.Marshal(env)
	if err != nil {
		e.log.WithError(err).WithField("event", event).Error("marshal ws event")
		return
	}
	if err := e.conn.writeText(b); err != nil {
		e.log.WithError(err).WithField("event", event).Debug("ws write failed")
	}
}

// InterviewWS is the duplex channel hosting one live interview per
// connection. Inbound events mutate the session; the session pushes
// outbound events through the emitter.
func (h *WSHandler) InterviewWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	emit := &wsEmitter{conn: wc, log: h.log}
	connID := uuid.NewString()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// abnormal close: abandon whatever session is still live. The request
	// context is gone by then, so give the final write its own deadline.
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dcancel()
		h.manager.Disconnect(dctx, connID)
		h.log.WithField("conn_id", connID).Info("client disconnected")
	}()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// keepalive: interviews run for many minutes without inbound traffic
	go func() {
		t := time.NewTicker(20 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := wc.ping(); err != nil {
					return
				}
			}
		}
	}()

	h.log.WithFields(logrus.Fields{"conn_id": connID, "user_id": userID}).Info("client connected")

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			emit.Emit(live.EventInterviewError, live.ErrorPayload{Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case "start-interview":
			if msg.Config == nil {
				emit.Emit(live.EventInterviewError, live.ErrorPayload{Message: "interview config is required"})
				continue
			}
			if _, err := h.manager.Start(ctx, connID, userID, *msg.Config, emit); err != nil {
				h.log.WithError(err).WithField("user_id", userID).Warn("start interview rejected")
				emit.Emit(live.EventInterviewError, live.ErrorPayload{Message: errMessage(err)})
			}

		case "stop-speaking":
			sess := h.manager.Get(connID)
			if sess == nil {
				continue
			}
			// generation suspends; keep the read loop responsive
			go sess.FinishUserTurn(ctx, msg.Transcript)

		case "pause-interview":
			if sess := h.manager.Get(connID); sess != nil {
				sess.Pause()
			}

		case "resume-interview":
			if sess := h.manager.Get(connID); sess != nil {
				sess.Resume()
			}

		case "end-interview":
			sess := h.manager.Get(connID)
			if sess == nil {
				continue
			}
			go sess.End(ctx)

		default:
			emit.Emit(live.EventInterviewError, live.ErrorPayload{Message: "unknown message type"})
		}
	}
}

func errMessage(err error) string {
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "Failed to start interview"
}
