package server

import (
	"context"
	"ctchen222/tictactoe-timetravel/internal/api/middleware"
	"ctchen222/tictactoe-timetravel/internal/api/response"
	"ctchen222/tictactoe-timetravel/internal/events"
	"ctchen222/tictactoe-timetravel/internal/game"
	"ctchen222/tictactoe-timetravel/internal/repository"
	"ctchen222/tictactoe-timetravel/internal/session"
	"ctchen222/tictactoe-timetravel/internal/validator"
	"ctchen222/tictactoe-timetravel/pkg/proto"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	heartbeatInterval = 10 * time.Second
	pongWait          = 3 * heartbeatInterval
	writeWait         = 5 * time.Second
)

// wsConn serialises writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(msg *proto.ServerToClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, data)
}

func (w *wsConn) write(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(messageType, data)
}

// handleWebSocket streams a session to the client and applies the moves and jumps it sends.
// Updates reach the socket through the event bus, so every connection watching the
// session sees them, including the one that caused them.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("session.id", c.Param("id")),
	))
	defer span.End()

	playerID := middleware.PlayerID(c)
	sessionID := c.Param("id")
	span.SetAttributes(attribute.String("player.id", playerID))

	// Detach from the request: the handshake request context ends with this handler.
	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	// Subscribe before reading the session so no update lands between the read and the subscription.
	updates, unsubscribe := s.subscriber.Subscribe(connCtx, sessionID)
	defer unsubscribe()

	view, err := s.sessions.Get(ctx, playerID, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session not available")
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			response.ErrorResponse(c, http.StatusNotFound, err.Error())
		case errors.Is(err, session.ErrForbidden):
			response.ErrorResponse(c, http.StatusForbidden, err.Error())
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, "internal error")
		}
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}
	ws := &wsConn{conn: conn}
	defer conn.Close()

	if err := ws.send(&proto.ServerToClientMessage{Type: proto.TypeState, Session: view}); err != nil {
		slog.WarnContext(ctx, "error writing initial state", "session.id", sessionID, "error", err)
		return
	}
	slog.InfoContext(ctx, "Player connected to session", "player.id", playerID, "session.id", sessionID)

	go s.writePump(connCtx, cancel, ws, sessionID, updates)
	s.readPump(connCtx, ws, playerID, sessionID)
	slog.InfoContext(ctx, "Player disconnected from session", "player.id", playerID, "session.id", sessionID)
}

// writePump forwards bus events and heartbeats to the socket until ctx ends.
// Closing the connection on exit unblocks readPump.
func (s *Server) writePump(ctx context.Context, cancel context.CancelFunc, ws *wsConn, sessionID string, updates <-chan events.Event) {
	defer func() {
		cancel()
		ws.conn.Close()
	}()
	ping := time.NewTicker(heartbeatInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-updates:
			if !ok {
				return
			}
			msg, closing := toServerMessage(ctx, sessionID, event)
			if msg == nil {
				continue
			}
			if err := ws.send(msg); err != nil {
				slog.WarnContext(ctx, "error writing update", "session.id", sessionID, "error", err)
				return
			}
			if closing {
				ws.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session deleted"))
				return
			}

		case <-ping.C:
			if err := ws.write(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "Failed to send ping, assuming disconnect", "session.id", sessionID, "error", err)
				return
			}
		}
	}
}

// readPump applies client messages until the connection fails or closes.
func (s *Server) readPump(ctx context.Context, ws *wsConn, playerID, sessionID string) {
	ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	ws.conn.SetPongHandler(func(string) error {
		return ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "Player connection error", "player.id", playerID, "session.id", sessionID, "error", err)
			}
			return
		}
		if reply := s.handleMessage(ctx, playerID, sessionID, raw); reply != nil {
			if err := ws.send(reply); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches one client message. It returns a reply meant for the
// sender only, or nil when the outcome is delivered through the bus.
func (s *Server) handleMessage(ctx context.Context, playerID, sessionID string, raw []byte) *proto.ServerToClientMessage {
	ctx, span := tracer.Start(ctx, "server.handleMessage", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(raw, &message); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		return &proto.ServerToClientMessage{Type: proto.TypeError, Reason: "malformed message"}
	}
	if err := validator.GetValidator().Struct(message); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		return &proto.ServerToClientMessage{Type: proto.TypeError, Reason: validator.Describe(err)}
	}
	span.SetAttributes(attribute.String("message.type", message.Type))

	var err error
	switch message.Type {
	case proto.TypeMove:
		_, err = s.sessions.Move(ctx, playerID, sessionID, *message.Cell)
	case proto.TypeJump:
		_, err = s.sessions.Jump(ctx, playerID, sessionID, *message.Step)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrRejected):
		return &proto.ServerToClientMessage{Type: proto.TypeRejected, Reason: err.Error()}
	default:
		slog.ErrorContext(ctx, "failed to apply message", "session.id", sessionID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to apply message")
		return &proto.ServerToClientMessage{Type: proto.TypeError, Reason: err.Error()}
	}
}

// toServerMessage converts a bus event. closing is true when the socket should close after sending.
func toServerMessage(ctx context.Context, sessionID string, event events.Event) (msg *proto.ServerToClientMessage, closing bool) {
	switch event.Type {
	case events.SessionUpdated:
		var view session.View
		if err := json.Unmarshal(event.Payload, &view); err != nil {
			slog.WarnContext(ctx, "discarding malformed session update", "session.id", sessionID, "error", err)
			return nil, false
		}
		return &proto.ServerToClientMessage{Type: proto.TypeState, Session: &view}, false
	case events.SessionDeleted:
		return &proto.ServerToClientMessage{Type: proto.TypeDeleted}, true
	default:
		return nil, false
	}
}
