package api

import (
	"net/http"
	"strings"

	"pairchat/domain/chat"
)

// authenticatedHandler receives the identity resolved from the bearer
// token, so protected handlers never touch raw credentials.
type authenticatedHandler func(w http.ResponseWriter, r *http.Request, user chat.Identity)

// authenticated requires a valid "Authorization: Bearer <token>" header.
func (s *Server) authenticated(next authenticatedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "authorization token is missing", http.StatusUnauthorized)
			return
		}

		user, ok := s.gate.Resolve(strings.TrimPrefix(header, "Bearer "))
		if !ok {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		next(w, r, user)
	})
}
