package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"pairchat/domain/chat"
	"pairchat/errors"
	"pairchat/repositories"
	"pairchat/ws"
)

var validate = validator.New()

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type authResponse struct {
	User   userJSON `json:"user"`
	Access string   `json:"access"`
}

type sendRequest struct {
	RecipientID int64  `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteJSON(w, fmt.Errorf("%w: invalid body", errors.ErrValidation))
		return
	}

	user, token, err := s.authService.Register(req.Username, req.Password)
	if err != nil {
		errors.WriteJSON(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{User: toUserJSON(user), Access: string(token)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteJSON(w, fmt.Errorf("%w: invalid body", errors.ErrValidation))
		return
	}

	user, token, err := s.authService.Login(req.Username, req.Password)
	if err != nil {
		errors.WriteJSON(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: toUserJSON(user), Access: string(token)})
}

// handleUsers lists every account except the caller's own.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, user chat.Identity) {
	users, err := s.authService.Users(user.ID)
	if err != nil {
		errors.WriteJSON(w, err)
		return
	}

	payload := lo.Map(users, func(item repositories.User, _ int) userJSON {
		return toUserJSON(item)
	})
	writeJSON(w, http.StatusOK, payload)
}

// handleHistory returns the caller's conversation with one peer, ordered
// by timestamp ascending.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, user chat.Identity) {
	peerID, err := strconv.ParseInt(r.PathValue("peer_id"), 10, 64)
	if err != nil {
		errors.WriteJSON(w, fmt.Errorf("%w: invalid peer id", errors.ErrValidation))
		return
	}

	messages, err := s.chatService.History(user.ID, chat.UserID(peerID))
	if err != nil {
		errors.WriteJSON(w, err)
		return
	}

	payload := lo.Map(messages, func(item chat.Message, _ int) ws.MessageJSON {
		return ws.NewMessageJSON(item)
	})
	writeJSON(w, http.StatusOK, payload)
}

// handleSend is the synchronous ingress path. It performs the exact same
// persist-then-publish sequence as a live session's receive loop, so a
// sender with no open socket still reaches every connected recipient.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, user chat.Identity) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteJSON(w, fmt.Errorf("%w: invalid body", errors.ErrValidation))
		return
	}
	if err := validate.Struct(req); err != nil {
		errors.WriteJSON(w, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	message, err := s.chatService.Send(r.Context(), user, chat.UserID(req.RecipientID), req.Content)
	if err != nil {
		errors.WriteJSON(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ws.NewMessageJSON(message))
}

func toUserJSON(user repositories.User) userJSON {
	return userJSON{ID: int64(user.ID), Username: user.Username}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
