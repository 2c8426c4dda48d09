package socket

import (
	"context"
	"errors"
	"strings"

	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"

	"touchline_server/models"
	"touchline_server/services"
)

// MatchUpdatedEvent is the socket.io event clients receive after a match
// changed.
const MatchUpdatedEvent = "matchUpdated"

// Authenticator resolves a bearer token to the acting party.
type Authenticator func(token string) (models.ActingParty, error)

// RefreshServer pushes match changes to the clients watching the bound
// conversation. Each conversation is a socket.io room.
type RefreshServer struct {
	server        *socketio.Server
	conversations services.ConversationStore
	authenticate  Authenticator
	logger        *zap.Logger
}

// NewRefreshServer initializes the socket.io server and its handlers.
func NewRefreshServer(conversations services.ConversationStore, authenticate Authenticator, logger *zap.Logger) *RefreshServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs := &RefreshServer{
		server:        socketio.NewServer(nil),
		conversations: conversations,
		authenticate:  authenticate,
		logger:        logger,
	}

	rs.server.OnConnect("/", func(c socketio.Conn) error {
		party, err := rs.authenticate(connToken(c))
		if err != nil {
			rs.logger.Debug("socket rejected", zap.String("socketId", c.ID()), zap.Error(err))
			return err
		}
		c.SetContext(party)
		rs.logger.Debug("socket connected", zap.String("socketId", c.ID()), zap.String("userId", party.UserID))
		return nil
	})

	// join subscribes the socket to a conversation it takes part in.
	rs.server.OnEvent("/", "join", func(c socketio.Conn, conversationID string) string {
		party, ok := c.Context().(models.ActingParty)
		if !ok || conversationID == "" {
			return "error: invalid join request"
		}
		conv, err := rs.conversations.GetConversation(context.Background(), conversationID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return "error: conversation not found"
			}
			return "error: conversation unavailable"
		}
		if !conv.HasParticipant(party.UserID) {
			return "error: not a participant"
		}
		c.Join(conversationID)
		rs.logger.Debug("socket joined conversation", zap.String("socketId", c.ID()), zap.String("conversationId", conversationID))
		return "ok"
	})

	rs.server.OnError("/", func(c socketio.Conn, err error) {
		rs.logger.Debug("socket error", zap.Error(err))
	})

	rs.server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		rs.logger.Debug("socket disconnected", zap.String("socketId", c.ID()), zap.String("reason", reason))
	})

	return rs
}

func connToken(c socketio.Conn) string {
	u := c.URL()
	if token := u.Query().Get("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(c.RemoteHeader().Get("Authorization"), "Bearer ")
}

// Server exposes the underlying socket.io server for HTTP mounting.
func (rs *RefreshServer) Server() *socketio.Server {
	return rs.server
}

// Serve runs the socket.io event loop until Close.
func (rs *RefreshServer) Serve() error {
	return rs.server.Serve()
}

func (rs *RefreshServer) Close() error {
	return rs.server.Close()
}

func (*RefreshServer) Name() string { return "socket" }

// Notify broadcasts the event to the conversation's room.
func (rs *RefreshServer) Notify(_ context.Context, event models.MatchEvent) error {
	if event.ConversationID == "" {
		return nil
	}
	rs.server.BroadcastToRoom("/", event.ConversationID, MatchUpdatedEvent, event)
	return nil
}
