package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-pulse/internal/infrastructure/realtime"
	"go-pulse/internal/pkg/pulse/application/usecase"
)

// PulseSocketController handles the websocket endpoint for realtime pulse events.
// Clients are auto-subscribed to the public pulse channel and may subscribe
// to additional topics by frame.
type PulseSocketController struct {
	router *realtime.Router
}

func NewPulseSocketController(router *realtime.Router) *PulseSocketController {
	return &PulseSocketController{router: router}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

type inboundFrame struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
}

type ackFrame struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until the client disconnects.
func (ctl *PulseSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := requesterID(c)
		if userID == "" {
			userID = c.Query("user_id")
		}
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.router.Attach(conn)
		defer func() {
			ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		// every session hears the public artifact lifecycle events
		ctl.router.Subscribe(usecase.PublicPulseTopic, conn)

		ws.SetReadLimit(1 << 16)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		if payload, err := json.Marshal(ackFrame{Type: "connected"}); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "subscribe":
				ctl.handleSubscribe(conn, frame)
			case "unsubscribe":
				ctl.handleUnsubscribe(conn, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *PulseSocketController) handleSubscribe(conn *realtime.Connection, frame inboundFrame) {
	if frame.Topic == "" {
		ctl.replyError(conn, "bad_request", "topic is required")
		return
	}
	ctl.router.Subscribe(frame.Topic, conn)
	if payload, err := json.Marshal(ackFrame{Type: "subscribed", Topic: frame.Topic}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *PulseSocketController) handleUnsubscribe(conn *realtime.Connection, frame inboundFrame) {
	if frame.Topic == "" {
		ctl.replyError(conn, "bad_request", "topic is required")
		return
	}
	ctl.router.Unsubscribe(frame.Topic, conn)
	if payload, err := json.Marshal(ackFrame{Type: "unsubscribed", Topic: frame.Topic}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *PulseSocketController) replyError(conn *realtime.Connection, code string, message string) {
	frame := errorFrame{Type: "error", Code: code, Error: message}
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}
