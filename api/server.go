// Package api exposes the request/response surface: account creation,
// token issuance, user listing, conversation history, and the synchronous
// send path. The send path shares its persist-then-publish sequence with
// the live connections, so a message posted here reaches every open
// socket in its room.
package api

import (
	"log/slog"
	"net/http"

	"pairchat/auth"
	"pairchat/services"
)

type Server struct {
	log         *slog.Logger
	gate        *auth.Gate
	authService services.IAuthService
	chatService services.IChatService
	liveHandler http.Handler
}

func NewServer(log *slog.Logger, gate *auth.Gate, authService services.IAuthService,
	chatService services.IChatService, liveHandler http.Handler) *Server {
	return &Server{
		log:         log,
		gate:        gate,
		authService: authService,
		chatService: chatService,
		liveHandler: liveHandler,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/signup", s.handleSignup)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.Handle("GET /api/users", s.authenticated(s.handleUsers))
	mux.Handle("GET /api/messages/{peer_id}", s.authenticated(s.handleHistory))
	mux.Handle("POST /api/messages", s.authenticated(s.handleSend))
	mux.Handle("GET /ws/chat/{peer_id}", s.liveHandler)
	return mux
}
