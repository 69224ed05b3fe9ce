package socketio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	socket "github.com/zishang520/socket.io/socket"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/features/messaging"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	jwtutil "github.com/eduverse/tutorhub-server-go/internal/utils/jwt"
)

// Server wraps the Socket.IO server for realtime chat delivery. Message
// persistence lives in the messaging feature; this layer only pushes
// already-persisted messages to connected receivers.
type Server struct {
	io        *socket.Server
	store     *store.Store
	logger    *slog.Logger
	jwtSecret string

	connMutex   sync.RWMutex
	connections map[string]*socket.Socket
}

// NewServer creates a new Socket.IO server with chat support.
func NewServer(st *store.Store, logger *slog.Logger, jwtSecret string) (*Server, error) {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(60 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetServeClient(false)
	opts.SetPath("/socket.io")

	server := socket.NewServer(nil, opts)

	s := &Server{
		io:          server,
		store:       st,
		logger:      logger,
		jwtSecret:   jwtSecret,
		connections: make(map[string]*socket.Socket),
	}

	s.setupEventHandlers()

	return s, nil
}

// GetHandler returns the HTTP handler for Socket.IO.
func (s *Server) GetHandler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close shuts down the Socket.IO server.
func (s *Server) Close() error {
	done := make(chan struct{})
	s.io.Close(func() {
		close(done)
	})

	<-done
	return nil
}

// NotifyMessage pushes a delivered message to the receiver's room. Offline
// receivers simply miss the push and catch up over HTTP.
func (s *Server) NotifyMessage(receiverID string, msg messaging.PrivateMessage) {
	if err := s.io.To(userRoom(receiverID)).Emit("private-message", map[string]any{
		"id":         msg.ID,
		"senderId":   msg.SenderID,
		"receiverId": msg.ReceiverID,
		"text":       msg.Text,
		"timestamp":  msg.Timestamp.UTC().Format(time.RFC3339),
		"isRead":     msg.IsRead,
	}); err != nil {
		s.logger.Warn("failed to push message", slog.String("receiverId", receiverID), slog.String("error", err.Error()))
	}
}

func (s *Server) setupEventHandlers() {
	s.io.Use(s.connectionMiddleware)
	s.io.On("connection", func(args ...any) {
		sock, ok := args[0].(*socket.Socket)
		if !ok {
			s.logger.Error("unexpected connection payload", slog.Any("payload", args))
			return
		}
		s.handleConnection(sock)
	})
}

func (s *Server) connectionMiddleware(sock *socket.Socket, next func(*socket.ExtendedError)) {
	token := s.extractToken(sock)
	if token == "" {
		s.logger.Warn("socket connection rejected: missing token")
		next(socket.NewExtendedError("missing authentication token", map[string]any{"code": "MISSING_TOKEN"}))
		return
	}

	claims, err := jwtutil.VerifyToken(token, s.jwtSecret)
	if err != nil {
		s.logger.Warn("socket connection rejected: invalid token", slog.String("error", err.Error()))
		next(socket.NewExtendedError("invalid token", map[string]any{"code": "INVALID_TOKEN"}))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	account, err := identity.ValidateSession(ctx, s.store, claims.Email, claims.DeviceToken)
	if err != nil {
		s.logger.Warn("socket connection rejected: stale session", slog.String("email", claims.Email))
		next(socket.NewExtendedError("session no longer valid", map[string]any{"code": "SESSION_INVALID"}))
		return
	}

	sock.SetData(account)
	next(nil)
}

func (s *Server) handleConnection(sock *socket.Socket) {
	account, ok := sock.Data().(identity.Account)
	if !ok {
		s.logger.Error("connection established without account context")
		sock.Disconnect(true)
		return
	}

	s.connMutex.Lock()
	s.connections[string(sock.Id())] = sock
	s.connMutex.Unlock()

	s.logger.Info("WebSocket connected",
		slog.String("userId", account.ID),
		slog.String("connId", string(sock.Id())),
	)

	if err := sock.Emit("connectionConfirmed", map[string]any{
		"userId":    account.ID,
		"userName":  account.Name,
		"userEmail": account.Email,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.logger.Warn("failed to emit connection confirmation", slog.String("error", err.Error()))
	}

	sock.Join(userRoom(account.ID))

	sock.On("typing", func(args ...any) {
		friendID := stringArg(args)
		if friendID == "" {
			return
		}
		if err := sock.To(userRoom(friendID)).Emit("friend-typing", map[string]any{
			"userId": account.ID,
		}); err != nil {
			s.logger.Warn("failed to relay typing event", slog.String("error", err.Error()))
		}
	})

	sock.On("disconnect", func(args ...any) {
		s.connMutex.Lock()
		delete(s.connections, string(sock.Id()))
		s.connMutex.Unlock()
	})
}

func (s *Server) extractToken(sock *socket.Socket) string {
	if sock == nil {
		return ""
	}

	if conn := sock.Conn(); conn != nil {
		if ctx := conn.Request(); ctx != nil {
			if req := ctx.Request(); req != nil {
				if token := req.URL.Query().Get("token"); token != "" {
					return token
				}
			}
			if query := ctx.Query(); query != nil {
				if token, ok := query.Get("token"); ok && token != "" {
					return token
				}
			}
		}
	}

	if hs := sock.Handshake(); hs != nil {
		if hs.Query != nil {
			if token, ok := hs.Query.Get("token"); ok && token != "" {
				return token
			}
		}
		if authMap, ok := hs.Auth.(map[string]any); ok {
			if token, ok := authMap["token"].(string); ok {
				return token
			}
		}
	}

	return ""
}

func stringArg(args []any) string {
	if len(args) == 0 {
		return ""
	}
	switch v := args[0].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	}
	return ""
}

func userRoom(userID string) socket.Room {
	return socket.Room("user_" + userID)
}
