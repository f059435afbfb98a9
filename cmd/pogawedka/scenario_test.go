package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pogawedka/internal/api"
	"pogawedka/internal/auth"
	"pogawedka/internal/chat"
	"pogawedka/internal/models"
	"pogawedka/internal/token"
)

// chatBackend is the whole remote side in one httptest server: the auth
// and chat REST endpoints plus the websocket pub/sub surface.
type chatBackend struct {
	t *testing.T

	mu       sync.Mutex
	sends    []json.RawMessage
	upgrader websocket.Upgrader
}

type wsFrame struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

func (b *chatBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register-by-name", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int64{"id": 7})
	})

	mux.HandleFunc("POST /api/auth/login-by-id", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))

		access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": strconv.FormatInt(body["userId"], 10),
		}).SignedString([]byte("backend-secret"))
		require.NoError(b.t, err)

		json.NewEncoder(w).Encode(models.TokenPair{AccessToken: access, RefreshToken: "refresh"})
	})

	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.User{
			{ID: 7, FirstName: "Jan", Surname: "Kowalski"},
			{ID: 9, FirstName: "Anna", Surname: "Nowak"},
		})
	})

	mux.HandleFunc("POST /api/chats/get-or-create", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(b.t, int64(7), body["userAId"])
		assert.Equal(b.t, int64(9), body["userBId"])
		json.NewEncoder(w).Encode(models.Chat{ID: 42, UserAID: 7, UserBID: 9})
	})

	mux.HandleFunc("/ws-chat", func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(b.t, r.URL.Query().Get("token"))
		conn, err := b.upgrader.Upgrade(w, r, nil)
		require.NoError(b.t, err)
		go b.serveWS(conn)
	})

	return mux
}

// serveWS answers a history request with an empty list and records
// everything published to the send destination.
func (b *chatBackend) serveWS(conn *websocket.Conn) {
	defer conn.Close()
	for {
		var f wsFrame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Destination {
		case "/app/chat.history":
			_ = conn.WriteJSON(wsFrame{
				Destination: "/user/queue/history",
				Body:        json.RawMessage(`[]`),
			})
		case "/app/chat.send":
			b.mu.Lock()
			b.sends = append(b.sends, f.Body)
			b.mu.Unlock()
		}
	}
}

func (b *chatBackend) sentFrames() []json.RawMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]json.RawMessage(nil), b.sends...)
}

// The scripted end-to-end flow: register, log in with the returned id,
// list users without self, resolve the chat, get empty history, send.
func TestFullClientScenario(t *testing.T) {
	backend := &chatBackend{t: t}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store, err := token.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer store.Close()

	client := api.NewClient(srv.URL, zerolog.Nop())
	ctrl := auth.NewController(store, client)

	// Register: the id comes back, nothing is authenticated yet.
	newID, err := ctrl.Register(context.Background(), "Jan", "Kowalski")
	require.NoError(t, err)
	assert.Equal(t, int64(7), newID)
	assert.False(t, ctrl.Authenticated())

	// Login with the assigned id.
	require.NoError(t, ctrl.Login(context.Background(), "7"))
	require.True(t, ctrl.Authenticated())
	assert.Equal(t, "7", ctrl.CurrentUserID())
	assert.NotEmpty(t, store.RefreshToken())

	// The contact list excludes the logged-in user.
	users, err := client.Users(context.Background(), store.AccessToken())
	require.NoError(t, err)
	visible := excludeSelf(users, ctrl.CurrentUserID())
	require.Len(t, visible, 1)
	assert.Equal(t, int64(9), visible[0].ID)

	// Selecting Anna resolves chat 42.
	chatID, err := client.GetOrCreateChat(context.Background(), store.AccessToken(), 7, visible[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), chatID)

	// The chat view opens a session and receives the empty history.
	updates := make(chan struct{}, 8)
	thread := chat.NewThread(chat.Config{
		BaseURL:     srv.URL,
		AccessToken: store.AccessToken(),
		UserID:      7,
		ChatID:      strconv.FormatInt(chatID, 10),
		API:         client,
		Log:         zerolog.Nop(),
	})
	thread.OnUpdate(func() { updates <- struct{}{} })
	defer thread.Close()

	require.NoError(t, thread.Open(context.Background()))

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("history never arrived")
	}
	assert.Empty(t, thread.Messages(), "empty history renders the placeholder")

	// Sending publishes the payload; the whitespace guard holds.
	assert.False(t, thread.Send("   "))
	assert.True(t, thread.Send("hello"))

	require.Eventually(t, func() bool {
		return len(backend.sentFrames()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.JSONEq(t, `{"chatId":42,"senderId":7,"content":"hello"}`, string(backend.sentFrames()[0]))

	// Logout clears both persisted tokens.
	ctrl.Logout()
	assert.False(t, ctrl.Authenticated())
	assert.Empty(t, store.AccessToken())
	assert.Empty(t, store.RefreshToken())
}
