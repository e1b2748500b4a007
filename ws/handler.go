package ws

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"pairchat/auth"
	"pairchat/domain/chat"
	"pairchat/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, restrict to configured origins.
		return true
	},
}

// Handler upgrades live chat connections.
// Route: GET /ws/chat/{peer_id}?token=<bearer credential>.
type Handler struct {
	log        *slog.Logger
	gate       *auth.Gate
	chat       services.IChatService
	bufferSize int
}

func NewHandler(log *slog.Logger, gate *auth.Gate, chatService services.IChatService, bufferSize int) *Handler {
	return &Handler{log: log, gate: gate, chat: chatService, bufferSize: bufferSize}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	peerID, err := strconv.ParseInt(r.PathValue("peer_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid peer id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// The gate runs before any chat state exists. An unauthenticated
	// caller is cut off without a frame; nothing is joined, persisted,
	// or published on its behalf.
	user, ok := h.gate.Resolve(r.URL.Query().Get("token"))
	if !ok {
		_ = conn.Close()
		return
	}

	// The peer is not resolved here: a room keyed on a nonexistent peer
	// simply never gains a second member. The request/response send path
	// is the one that rejects unknown recipients.
	session := newSession(h.log, conn, h.chat, user, chat.UserID(peerID), h.bufferSize)
	session.run(r.Context())
}
