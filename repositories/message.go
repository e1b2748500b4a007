//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"pairchat/domain/chat"
)

type IMessageRepository interface {
	Create(sender, recipient chat.UserID, content string) (chat.Message, error)
	List(room chat.RoomID) ([]chat.Message, error)
	MarkRead(room chat.RoomID, id uuid.UUID) error
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// storedMessage is the on-disk representation of a message.
type storedMessage struct {
	ID        string `json:"id"`
	Sender    int64  `json:"sender"`
	Recipient int64  `json:"recipient"`
	Content   string `json:"content"`
	At        int64  `json:"at"`
	Read      bool   `json:"read"`
}

// Create materializes and persists a new message. The key is formatted as
// "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order matches time order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages land on the same nanosecond.
//
// The returned message carries the generated id and timestamp; callers
// publish it only after this call succeeds.
func (m MessageRepository) Create(sender, recipient chat.UserID, content string) (chat.Message, error) {
	message := chat.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return chat.Message{}, err
	}

	key := messageKey(message.Room(), message.CreatedAt, message.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytes)
	})
	if err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

// List retrieves a conversation using a prefix scan. Thanks to the padded
// timestamp in the key, messages come back ordered by time ascending.
// Collection stops once the configured limitMessages is reached.
func (m MessageRepository) List(room chat.RoomID) ([]chat.Message, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]chat.Message, 0, len(byteMessages))
	for _, b := range byteMessages {
		var stored storedMessage
		if err = json.Unmarshal(b, &stored); err != nil {
			return nil, err
		}
		message, err := toMessage(stored)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// MarkRead flips the read flag of one message. It scans the room prefix
// because the full key embeds the creation timestamp, which callers of
// this operation do not hold.
func (m MessageRepository) MarkRead(room chat.RoomID, id uuid.UUID) error {
	suffix := ":" + id.String()
	return m.db.Update(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), suffix) {
				continue
			}
			var stored storedMessage
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &stored)
			})
			if err != nil {
				return err
			}
			stored.Read = true
			bytes, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			return txn.Set(item.KeyCopy(nil), bytes)
		}
		return badger.ErrKeyNotFound
	})
}

func messageKey(room chat.RoomID, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", room, at.UnixNano(), id))
}

func roomPrefix(room chat.RoomID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", room))
}

func fromMessage(message chat.Message) storedMessage {
	return storedMessage{
		ID:        message.ID.String(),
		Sender:    int64(message.Sender),
		Recipient: int64(message.Recipient),
		Content:   message.Content,
		At:        message.CreatedAt.UnixNano(),
		Read:      message.Read,
	}
}

func toMessage(stored storedMessage) (chat.Message, error) {
	parsedID, err := uuid.Parse(stored.ID)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Message{
		ID:        parsedID,
		Sender:    chat.UserID(stored.Sender),
		Recipient: chat.UserID(stored.Recipient),
		Content:   stored.Content,
		CreatedAt: time.Unix(0, stored.At).UTC(),
		Read:      stored.Read,
	}, nil
}
