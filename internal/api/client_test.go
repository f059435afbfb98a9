package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pogawedka/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zerolog.Nop())
}

func TestClient_Register(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/register-by-name", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Jan", body["firstName"])
		assert.Equal(t, "Kowalski", body["surname"])

		json.NewEncoder(w).Encode(map[string]int64{"id": 7})
	}))

	id, err := c.Register(context.Background(), "Jan", "Kowalski")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestClient_ErrorMessageExtraction(t *testing.T) {
	t.Run("json message field", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"message": "Użytkownik już istnieje"})
		}))

		_, err := c.Register(context.Background(), "Jan", "Kowalski")
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.Status)
		assert.Equal(t, "Użytkownik już istnieje", apiErr.Message)
	})

	t.Run("raw text fallback", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "something broke", http.StatusBadRequest)
		}))

		_, err := c.Register(context.Background(), "Jan", "Kowalski")
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "something broke\n", apiErr.Message)
	})
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login-by-id", r.URL.Path)

		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(7), body["userId"])

		json.NewEncoder(w).Encode(models.TokenPair{AccessToken: "acc", RefreshToken: "ref"})
	}))

	pair, err := c.Login(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.TokenPair{AccessToken: "acc", RefreshToken: "ref"}, pair)
}

func TestClient_RefreshToken_RawBodyError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"expired"}`))
	}))

	_, err := c.RefreshToken(context.Background(), "ref")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	// The refresh endpoint reports the raw body, not the parsed message.
	assert.Equal(t, `{"message":"expired"}`, apiErr.Message)
}

func TestClient_Users_BearerHeader(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.User{{ID: 1, FirstName: "Anna", Surname: "Nowak"}})
	})

	c := newTestClient(t, handler)

	users, err := c.Users(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, users, 1)
	assert.Equal(t, "Anna", users[0].FirstName)

	_, err = c.Users(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "no Authorization header without a token")
}

func TestClient_Me_SessionInvalid(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := c.Me(context.Background(), "stale")
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.SessionInvalid())
	}

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := c.Me(context.Background(), "tok")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.SessionInvalid())
}

func TestClient_GetOrCreateChat(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chats/get-or-create", r.URL.Path)

		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(7), body["userAId"])
		assert.Equal(t, int64(9), body["userBId"])

		json.NewEncoder(w).Encode(models.Chat{ID: 42, UserAID: 7, UserBID: 9})
	}))

	id, err := c.GetOrCreateChat(context.Background(), "tok", 7, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}
