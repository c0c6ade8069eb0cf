package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
)

func getHistory(env *testEnv, user string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestHistoryRequiresIdentity(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{failAfter: -1})

	rec := getHistory(env, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestHistoryEmptyForNewUser(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{failAfter: -1})

	rec := getHistory(env, "fresh-user")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestHistoryReturnsOwnConversationsOnly(t *testing.T) {
	engine := &fakeEngine{fragments: []string{"a reply"}, failAfter: -1}
	env := newTestEnv(t, engine)

	for _, user := range []string{"user-1", "user-2"} {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, chatRequest(t, user,
			[]model.ChatMessage{{Role: "user", Content: "question from " + user}}))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := getHistory(env, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var history []struct {
		ID       int64 `json:"id"`
		Messages []struct {
			ID      int64  `json:"id"`
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	require.Len(t, history[0].Messages, 2)
	require.Equal(t, "user", history[0].Messages[0].Role)
	require.Equal(t, "question from user-1", history[0].Messages[0].Content)
	require.Equal(t, "assistant", history[0].Messages[1].Role)
	require.Equal(t, "a reply", history[0].Messages[1].Content)
}

func TestHistoryStoreFailure(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{failAfter: -1})
	require.NoError(t, env.repo.Close())

	rec := getHistory(env, "user-1")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Failed to fetch chat history"}`, rec.Body.String())
}
