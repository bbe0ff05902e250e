package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const (
	actionConnect     = "connect"
	actionGameNew     = "game:new"
	actionGameState   = "game:state"
	actionGameTurn    = "game:turn"
	actionGameUndo    = "game:undo"
	actionGameRedo    = "game:redo"
	actionGameReset   = "game:reset"
	actionGameResize  = "game:resize"
	actionGameDismiss = "game:dismiss"
	actionGameLeave   = "game:leave"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is the payload sent by the client.
type Request struct {
	Player *entity.Player `json:"player,omitempty"`
	Size   int            `json:"size,omitempty"`
	Row    *int           `json:"row,omitempty"`
	Col    *int           `json:"col,omitempty"`
}

// Payload is the payload sent back to the client.
type Payload struct {
	Player *entity.Player   `json:"player,omitempty"`
	Game   *entity.GameView `json:"game,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// connection is one client socket. Reads happen on the handler loop only,
// writes are serialized with the keep-alive pings.
type connection struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	sessionID string
	playerID  string
}

func newConnection(ws *websocket.Conn, sessionID string) *connection {
	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &connection{
		ws:        ws,
		sessionID: sessionID,
	}
}

func (that *connection) sendMessage(action string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err = that.ws.WriteJSON(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) sendError(action, message string) error {
	return that.sendMessage(action, Payload{Error: message})
}

// keepAlive pings the client until ctx is done.
func (that *connection) keepAlive(ctx context.Context, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.writeMu.Lock()
			err := that.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			that.writeMu.Unlock()

			if err != nil {
				log.Debug("failed to ping client", "error", err)
				return
			}
		}
	}
}

func (that *connection) close() {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	_ = that.ws.Close()
}

func decodeRequest(msg *Message) (Request, error) {
	var req Request
	if len(msg.Payload) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return req, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return req, nil
}
