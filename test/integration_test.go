package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"pairchat/api"
	"pairchat/auth"
	"pairchat/internal"
	"pairchat/repositories"
	"pairchat/runtime"
	"pairchat/runtime/workers"
	"pairchat/services"
	"pairchat/ws"
)

type stack struct {
	server *httptest.Server
}

// newStack wires the whole server the way cmd/server does, on top of a
// throwaway badger directory.
func newStack(t *testing.T) *stack {
	t.Helper()
	req := require.New(t)

	// Reduced to 16 Mo for testing (avoid gigabytes of preallocated storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	log := internal.LoggerFromString("DEBUG")
	messageRepository := repositories.NewMessageRepository(db, log, lo.ToPtr(100))
	userRepository, err := repositories.NewUserRepository(db)
	req.NoError(err)

	registry := runtime.NewRegistry()
	fanout := runtime.NewFanout(log, registry, 64, time.Second)
	supervisor := workers.NewSupervisor(log, 200*time.Millisecond)
	supervisor.Add(fanout)

	ctx, cancel := context.WithCancel(context.Background())
	go supervisor.Run(ctx)

	tokens := auth.NewTokens("integration-secret", time.Hour)
	gate := auth.NewGate(tokens, userRepository)
	chatService := services.NewChatService(log, messageRepository, userRepository, fanout)
	authService := services.NewAuthService(userRepository, tokens)
	liveHandler := ws.NewHandler(log, gate, chatService, 16)
	server := httptest.NewServer(api.NewServer(log, gate, authService, chatService, liveHandler).Routes())

	t.Cleanup(func() {
		server.Close()
		cancel()
		_ = userRepository.Close()
		_ = db.Close()
	})
	return &stack{server: server}
}

type authPayload struct {
	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Access string `json:"access"`
}

func (s *stack) signup(t *testing.T, username string) authPayload {
	t.Helper()
	req := require.New(t)

	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": "ComplexPass123!",
	})
	response, err := http.Post(s.server.URL+"/api/signup", "application/json", bytes.NewReader(body))
	req.NoError(err)
	defer response.Body.Close()
	req.Equal(http.StatusCreated, response.StatusCode)

	var payload authPayload
	req.NoError(json.NewDecoder(response.Body).Decode(&payload))
	return payload
}

func (s *stack) dial(t *testing.T, peerID int64, token string) *websocket.Conn {
	t.Helper()
	url := fmt.Sprintf("ws%s/ws/chat/%d?token=%s",
		strings.TrimPrefix(s.server.URL, "http"), peerID, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type outboundFrame struct {
	Type    string         `json:"type"`
	Message ws.MessageJSON `json:"message"`
}

func readFrame(t *testing.T, conn *websocket.Conn) outboundFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame outboundFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func Test_Scenario_Live_Conversation(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	// Alice holds two concurrent sessions in the same conversation.
	aliceLaptop := s.dial(t, bob.User.ID, alice.Access)
	alicePhone := s.dial(t, bob.User.ID, alice.Access)
	bobConn := s.dial(t, alice.User.ID, bob.Access)

	// A message sent on one socket reaches the peer and echoes back to
	// every one of the sender's sessions.
	err := aliceLaptop.WriteJSON(map[string]string{"message": "hello bob"})
	req.NoError(err)

	for _, conn := range []*websocket.Conn{aliceLaptop, alicePhone, bobConn} {
		frame := readFrame(t, conn)
		req.Equal("message", frame.Type)
		req.Equal("hello bob", frame.Message.Content)
		req.Equal(alice.User.ID, frame.Message.Sender)
		req.Equal(bob.User.ID, frame.Message.Recipient)
		req.NotEmpty(frame.Message.ID)
	}

	// The reply travels the other way through the same room.
	req.NoError(bobConn.WriteJSON(map[string]string{"message": "hi alice"}))
	for _, conn := range []*websocket.Conn{aliceLaptop, alicePhone, bobConn} {
		frame := readFrame(t, conn)
		req.Equal("hi alice", frame.Message.Content)
	}

	// Frames without text are heartbeats: nothing is delivered, nothing
	// persisted, and the connection stays healthy.
	req.NoError(aliceLaptop.WriteJSON(map[string]string{"message": ""}))
	req.NoError(aliceLaptop.WriteJSON(map[string]string{"message": "still here"}))
	frame := readFrame(t, aliceLaptop)
	req.Equal("still here", frame.Message.Content)
}

func Test_Scenario_REST_Send_Reaches_Live_Sockets(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	bobConn := s.dial(t, alice.User.ID, bob.Access)

	// Alice has no socket open; she posts through the request/response
	// path instead.
	body, _ := json.Marshal(map[string]any{
		"recipient_id": bob.User.ID,
		"content":      "sent without a socket",
	})
	request, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/messages", bytes.NewReader(body))
	req.NoError(err)
	request.Header.Set("Authorization", "Bearer "+alice.Access)
	response, err := http.DefaultClient.Do(request)
	req.NoError(err)
	defer response.Body.Close()
	req.Equal(http.StatusCreated, response.StatusCode)

	var posted ws.MessageJSON
	req.NoError(json.NewDecoder(response.Body).Decode(&posted))
	req.NotEmpty(posted.ID)

	// Bob's live connection hears about it all the same.
	frame := readFrame(t, bobConn)
	req.Equal("message", frame.Type)
	req.Equal(posted.ID, frame.Message.ID)
	req.Equal("sent without a socket", frame.Message.Content)
}

func Test_Scenario_History_Is_Shared_Across_Paths(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	aliceConn := s.dial(t, bob.User.ID, alice.Access)

	// First message over the socket.
	req.NoError(aliceConn.WriteJSON(map[string]string{"message": "over the socket"}))
	readFrame(t, aliceConn)

	// Second message through the request/response path.
	body, _ := json.Marshal(map[string]any{
		"recipient_id": alice.User.ID,
		"content":      "over the api",
	})
	request, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/messages", bytes.NewReader(body))
	req.NoError(err)
	request.Header.Set("Authorization", "Bearer "+bob.Access)
	response, err := http.DefaultClient.Do(request)
	req.NoError(err)
	response.Body.Close()
	req.Equal(http.StatusCreated, response.StatusCode)

	// Both sides read the same conversation, oldest first, regardless of
	// which ingress produced each entry.
	for _, caller := range []authPayload{alice, bob} {
		peer := lo.Ternary(caller.User.ID == alice.User.ID, bob.User.ID, alice.User.ID)
		request, err := http.NewRequest(http.MethodGet,
			fmt.Sprintf("%s/api/messages/%d", s.server.URL, peer), nil)
		req.NoError(err)
		request.Header.Set("Authorization", "Bearer "+caller.Access)
		response, err := http.DefaultClient.Do(request)
		req.NoError(err)
		var history []ws.MessageJSON
		req.NoError(json.NewDecoder(response.Body).Decode(&history))
		response.Body.Close()

		req.Len(history, 2)
		req.Equal("over the socket", history[0].Content)
		req.Equal("over the api", history[1].Content)
	}
}

func Test_Scenario_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")
	clara := s.signup(t, "clara")

	bobConn := s.dial(t, alice.User.ID, bob.Access)
	claraConn := s.dial(t, alice.User.ID, clara.Access)

	// Alice talks to Bob; Clara's conversation with Alice stays silent.
	body, _ := json.Marshal(map[string]any{
		"recipient_id": bob.User.ID,
		"content":      "for bob only",
	})
	request, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/messages", bytes.NewReader(body))
	req.NoError(err)
	request.Header.Set("Authorization", "Bearer "+alice.Access)
	response, err := http.DefaultClient.Do(request)
	req.NoError(err)
	response.Body.Close()

	frame := readFrame(t, bobConn)
	req.Equal("for bob only", frame.Message.Content)

	req.NoError(claraConn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	var stray outboundFrame
	req.Error(claraConn.ReadJSON(&stray))
}

func Test_Scenario_Anonymous_Socket_Is_Rejected(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	alice := s.signup(t, "alice")

	// Forged and absent credentials both end the same way: the handshake
	// completes, then the connection dies without a frame.
	for _, token := range []string{"", "forged-token"} {
		url := fmt.Sprintf("ws%s/ws/chat/%d?token=%s",
			strings.TrimPrefix(s.server.URL, "http"), alice.User.ID, token)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		req.NoError(err)
		req.NoError(conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, _, err = conn.ReadMessage()
		req.Error(err)
		_ = conn.Close()
	}
}
