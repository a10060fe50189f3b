package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *HTTPBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := NewHTTPBackend(srv.URL)
	// Keep failing tests fast.
	b.client.RetryMax = 1
	b.client.RetryWaitMin = time.Millisecond
	b.client.RetryWaitMax = 5 * time.Millisecond
	return b
}

func TestPing_OK(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, b.Ping(context.Background()))
}

func TestPost_SendsJSONBody(t *testing.T) {
	var got models.ProfileUpsertPayload
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/profile/upsert", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	p := models.ProfileUpsertPayload{UserId: "u1", Name: "Ann", Nickname: "ann"}
	require.NoError(t, b.UpsertProfile(context.Background(), p))
	assert.Equal(t, p, got)
}

func TestFetchAppVersion_DecodesResponse(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/appVersion", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.AppVersion{Minimum: "1.2.0", Latest: "1.4.1"})
	})

	v, err := b.FetchAppVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", v.Minimum)
	assert.Equal(t, "1.4.1", v.Latest)
}

func TestErrorMapping_PermanentDomainFailure(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(apiError{Code: codeNicknameTaken, Message: "nickname already taken"})
	})

	err := b.UpsertProfile(context.Background(), models.ProfileUpsertPayload{Nickname: "ann"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNicknameTaken)
	assert.False(t, IsTransient(err))
}

func TestErrorMapping_RequestConflict(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(apiError{Code: codeRequestConflict})
	})

	err := b.AcceptFriendRequest(context.Background(), models.FriendRequestPayload{SenderId: "a", ReceiverId: "b"})
	assert.ErrorIs(t, err, common.ErrRequestConflict)
}

func TestErrorMapping_ServerErrorIsTransient(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := b.SaveSessionAndUpdateAggregates(context.Background(), models.Session{Id: "s1"})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestErrorMapping_UnreachableBackendIsTransient(t *testing.T) {
	b := NewHTTPBackend("http://127.0.0.1:1") // nothing listens here
	b.client.RetryMax = 0
	b.client.RetryWaitMin = time.Millisecond
	b.client.RetryWaitMax = time.Millisecond

	err := b.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestErrorMapping_OtherClientErrorIsPermanent(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	err := b.UpdateStreak(context.Background(), models.ProfileUpdateStreakPayload{UserId: "u1", Day: "bogus"})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}
