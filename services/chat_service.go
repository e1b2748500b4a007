//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"pairchat/contract"
	"pairchat/domain/chat"
	"pairchat/domain/event"
	"pairchat/errors"
	"pairchat/repositories"
)

type IChatService interface {
	Send(ctx context.Context, sender chat.Identity, recipientID chat.UserID, content string) (chat.Message, error)
	History(a, b chat.UserID) ([]chat.Message, error)
	Join(roomID chat.RoomID, sink contract.EventSink)
	Leave(roomID chat.RoomID, sink contract.EventSink)
}

type ChatService struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	broker   contract.Broker
}

func NewChatService(log *slog.Logger, messages repositories.IMessageRepository,
	users repositories.IUserRepository, broker contract.Broker) *ChatService {
	return &ChatService{log: log, messages: messages, users: users, broker: broker}
}

// Send is the single write path for both ingress routes. The live
// session's receive loop and the request/response boundary call it with
// the same arguments, so every message goes through one persist-then-
// publish sequence and subscribers never need to care about its origin.
//
// The recipient must resolve to an existing account. The message is
// persisted first; the event carries the materialized record, id and
// timestamp included.
func (s *ChatService) Send(ctx context.Context, sender chat.Identity,
	recipientID chat.UserID, content string) (chat.Message, error) {
	if recipientID == 0 || content == "" {
		return chat.Message{}, errors.ErrValidation
	}

	if _, err := s.users.GetByID(recipientID); err != nil {
		return chat.Message{}, err
	}

	message, err := s.messages.Create(sender.ID, recipientID, content)
	if err != nil {
		return chat.Message{}, err
	}

	if err := s.broker.Publish(ctx, event.MessageCreated{Message: message}); err != nil {
		// The message is durable at this point; only its delivery failed.
		s.log.Error("publish failed after persist",
			"room", message.Room(), "message_id", message.ID, "error", err)
		return chat.Message{}, err
	}
	return message, nil
}

// History lists the conversation between two identities, ordered by
// timestamp ascending, regardless of which ingress path created each
// message.
func (s *ChatService) History(a, b chat.UserID) ([]chat.Message, error) {
	return s.messages.List(chat.RoomFor(a, b))
}

func (s *ChatService) Join(roomID chat.RoomID, sink contract.EventSink) {
	s.broker.Join(roomID, sink)
}

func (s *ChatService) Leave(roomID chat.RoomID, sink contract.EventSink) {
	s.broker.Leave(roomID, sink)
}
