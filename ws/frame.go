package ws

import (
	"time"

	"pairchat/domain/chat"
)

// inboundFrame is what clients send on a live connection. Frames without
// text are treated as heartbeats.
type inboundFrame struct {
	Message string `json:"message"`
}

// outboundFrame wraps every server-to-client delivery with a type tag.
type outboundFrame struct {
	Type    string      `json:"type"`
	Message MessageJSON `json:"message"`
}

// MessageJSON is the wire representation of a message. The REST surface
// renders the same shape, so clients decode one payload regardless of
// which path produced it.
type MessageJSON struct {
	ID        string `json:"id"`
	Sender    int64  `json:"sender"`
	Recipient int64  `json:"recipient"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"is_read"`
}

func NewMessageJSON(m chat.Message) MessageJSON {
	return MessageJSON{
		ID:        m.ID.String(),
		Sender:    int64(m.Sender),
		Recipient: int64(m.Recipient),
		Content:   m.Content,
		Timestamp: m.CreatedAt.Format(time.RFC3339Nano),
		IsRead:    m.Read,
	}
}
