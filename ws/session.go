package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"pairchat/domain/chat"
	"pairchat/domain/event"
	"pairchat/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameBytes = 8 * 1024
)

// Session drives one live connection from a successful handshake until
// close. It joins exactly one room for its whole lifetime; a reconnect is
// a brand-new Session.
type Session struct {
	log  *slog.Logger
	conn *websocket.Conn
	chat services.IChatService
	user chat.Identity
	peer chat.UserID
	room chat.RoomID
	sink *Sink
}

func newSession(log *slog.Logger, conn *websocket.Conn, chatService services.IChatService,
	user chat.Identity, peer chat.UserID, bufferSize int) *Session {
	return &Session{
		log:  log,
		conn: conn,
		chat: chatService,
		user: user,
		peer: peer,
		room: chat.RoomFor(user.ID, peer),
		sink: NewSink(bufferSize),
	}
}

// run blocks until the connection is gone. The read loop owns the
// session: inbound frames are handled strictly one at a time in arrival
// order. Outbound deliveries go through the write pump so reads and
// writes never share the connection concurrently.
func (s *Session) run(ctx context.Context) {
	s.chat.Join(s.room, s.sink)
	defer s.chat.Leave(s.room, s.sink)

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump(pumpCtx)
	}()

	s.readLoop(ctx)

	cancel()
	_ = s.conn.Close()
	<-done
}

// readLoop consumes inbound frames until the remote end goes away.
// Frames with empty or absent text are discarded silently; they are
// heartbeats, not errors. Any text goes through the same Send call as the
// request/response path.
func (s *Session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		if frame.Message == "" {
			continue
		}

		if _, err := s.chat.Send(ctx, s.user, s.peer, frame.Message); err != nil {
			// A session that cannot persist must not look healthy to its
			// client; close and let the client reconnect.
			s.log.Error("send failed, closing session",
				"user_id", s.user.ID, "room", s.room, "error", err)
			return
		}
	}
}

// writePump renders fan-out deliveries as outbound frames and keeps the
// connection alive with pings. Every event for the room is written, the
// session's own messages included: the echo is what keeps a sender's
// other connections consistent.
func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.sink.Events:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			switch evt := e.(type) {
			case event.MessageCreated:
				frame := outboundFrame{Type: "message", Message: NewMessageJSON(evt.Message)}
				if err := s.conn.WriteJSON(frame); err != nil {
					_ = s.conn.Close()
					return
				}
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}
