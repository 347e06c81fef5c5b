package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage(t *testing.T) {
	var gotPath string
	var gotChatID, gotText string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotChatID = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	err := c.SendMessage(context.Background(), 42, "hello")
	require.NoError(t, err)
	require.Equal(t, "/bottest-token/sendMessage", gotPath)
	require.Equal(t, "42", gotChatID)
	require.Equal(t, "hello", gotText)
}

func TestClient_SendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"chat not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	err := c.SendMessage(context.Background(), 1, "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")
}

func TestClient_GetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "7", r.PostForm.Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"text":"/report","chat":{"id":100}}},
			{"update_id":8,"message":{"message_id":2,"text":"/orders","chat":{"id":100}}}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	updates, err := c.GetUpdates(context.Background(), 7, time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	require.Equal(t, int64(7), updates[0].UpdateID)
	require.Equal(t, "/report", updates[0].Message.Text)
	require.Equal(t, int64(100), updates[0].Message.Chat.ID)
}

func TestClient_GetUpdates_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	_, err := c.GetUpdates(context.Background(), 0, time.Second)
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}
