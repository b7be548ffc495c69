package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"diabetesrisk/risk"
)

const (
	liveWriteWait    = 10 * time.Second
	livePongWait     = 60 * time.Second
	livePingInterval = 30 * time.Second
	liveMaxMessage   = 4096
)

// LiveMessage is one server-to-client websocket frame.
type LiveMessage struct {
	Type  string           `json:"type"`
	Data  *risk.Assessment `json:"data,omitempty"`
	Error string           `json:"error,omitempty"`
}

// RegisterLiveHandlers registers the websocket endpoint used for live re-scoring.
func (a *App) RegisterLiveHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/assess", a.handleLive)
}

// handleLive scores every measurement record the client sends and replies
// with the assessment. Connections carry no state between messages.
func (a *App) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	requestID := GetRequestID(r.Context())
	a.logger.Debug("live client connected", zap.String("request_id", requestID))

	ctx, cancel := context.WithCancel(context.Background())
	send := make(chan LiveMessage, 16)
	go a.writePump(ctx, conn, send)

	defer func() {
		cancel()
		conn.Close()
		a.logger.Debug("live client disconnected", zap.String("request_id", requestID))
	}()

	conn.SetReadLimit(liveMaxMessage)
	conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(livePongWait))

		reply := a.assessFrame(ctx, payload)
		select {
		case send <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) assessFrame(ctx context.Context, payload []byte) LiveMessage {
	inputs, err := decodeMeasurements(json.NewDecoder(bytes.NewReader(payload)))
	if err != nil {
		return LiveMessage{Type: "error", Error: "invalid measurements: " + err.Error()}
	}
	assessment, err := a.assessor.Assess(ctx, inputs)
	if err != nil {
		a.logger.Error("live assessment failed", zap.Error(err))
		return LiveMessage{Type: "error", Error: "prediction failed"}
	}
	return LiveMessage{Type: "assessment", Data: assessment}
}

func (a *App) writePump(ctx context.Context, conn *websocket.Conn, send <-chan LiveMessage) {
	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				a.logger.Warn("websocket write error", zap.Error(err))
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(liveWriteWait))
			return
		}
	}
}
