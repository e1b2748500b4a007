package repositories

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pairchat/domain/chat"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Record_Multiple_Messages_Ordered(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	room := chat.RoomFor(1, 2)

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		_, err := repository.Create(1, 2, content)
		req.NoError(err)
	}

	fetched, err := repository.List(room)
	req.NoError(err)
	req.Len(fetched, len(contents))
	for i, message := range fetched {
		req.Equal(contents[i], message.Content)
		req.Equal(chat.UserID(1), message.Sender)
		req.Equal(chat.UserID(2), message.Recipient)
		req.False(message.Read)
	}
	// Chronological, oldest first.
	for i := 1; i < len(fetched); i++ {
		req.False(fetched[i].CreatedAt.Before(fetched[i-1].CreatedAt))
	}
}

func Test_Record_Multiple_Messages_And_Limit(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	limit := 2
	repository := NewMessageRepository(db, slog.Default(), &limit)
	room := chat.RoomFor(1, 2)

	for _, content := range []string{"first", "second", "third"} {
		_, err := repository.Create(1, 2, content)
		req.NoError(err)
	}

	fetched, err := repository.List(room)
	req.NoError(err)
	req.Len(fetched, limit)
}

func Test_List_Is_Scoped_To_One_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)

	_, err := repository.Create(1, 2, "for room chat_1_2")
	req.NoError(err)
	_, err = repository.Create(1, 3, "for room chat_1_3")
	req.NoError(err)

	fetched, err := repository.List(chat.RoomFor(1, 2))
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for room chat_1_2", fetched[0].Content)
}

func Test_MarkRead(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	room := chat.RoomFor(1, 2)

	message, err := repository.Create(1, 2, "read me")
	req.NoError(err)
	req.False(message.Read)

	req.NoError(repository.MarkRead(room, message.ID))

	fetched, err := repository.List(room)
	req.NoError(err)
	req.Len(fetched, 1)
	req.True(fetched[0].Read)
}

func Test_MarkRead_Unknown_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)

	err := repository.MarkRead(chat.RoomFor(1, 2), uuid.New())
	req.ErrorIs(err, badger.ErrKeyNotFound)
}
