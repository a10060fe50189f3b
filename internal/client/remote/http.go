package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/common"
	"github.com/hashicorp/go-retryablehttp"
)

// HTTPBackend implements Backend over the backend's JSON API. The underlying
// client retries transport-level hiccups a couple of times with short waits;
// replay-level retrying stays with the outbox.
type HTTPBackend struct {
	baseURL string
	client  *retryablehttp.Client
}

// NewHTTPBackend returns a Backend speaking to the API rooted at baseURL.
func NewHTTPBackend(baseURL string) *HTTPBackend {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.Logger = nil
	c.HTTPClient.Timeout = 15 * time.Second

	return &HTTPBackend{baseURL: baseURL, client: c}
}

// apiError is the backend's error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeNicknameTaken   = "nicknameTaken"
	codeRequestConflict = "requestConflict"
)

func (b *HTTPBackend) Ping(ctx context.Context) error {
	return b.get(ctx, "/v1/ping", nil)
}

func (b *HTTPBackend) FetchAppVersion(ctx context.Context) (*models.AppVersion, error) {
	var v models.AppVersion
	if err := b.get(ctx, "/v1/appVersion", &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (b *HTTPBackend) UpsertProfile(ctx context.Context, p models.ProfileUpsertPayload) error {
	return b.post(ctx, "/v1/profile/upsert", p)
}

func (b *HTTPBackend) UpdateProfileImage(ctx context.Context, p models.ProfileUpdateImagePayload) error {
	return b.post(ctx, "/v1/profile/image", p)
}

func (b *HTTPBackend) UpdateStreak(ctx context.Context, p models.ProfileUpdateStreakPayload) error {
	return b.post(ctx, "/v1/profile/streak", p)
}

func (b *HTTPBackend) DeleteProfile(ctx context.Context, userId string) error {
	return b.post(ctx, "/v1/profile/delete", models.ProfileDeletePayload{UserId: userId})
}

func (b *HTTPBackend) DeleteStatisticsAndFriendships(ctx context.Context, userId string) error {
	return b.post(ctx, "/v1/profile/deleteRelated", models.ProfileDeletePayload{UserId: userId})
}

func (b *HTTPBackend) SendFriendRequest(ctx context.Context, p models.FriendRequestPayload) error {
	return b.post(ctx, "/v1/friends/send", p)
}

func (b *HTTPBackend) CancelFriendRequest(ctx context.Context, p models.FriendRequestPayload) error {
	return b.post(ctx, "/v1/friends/cancel", p)
}

func (b *HTTPBackend) AcceptFriendRequest(ctx context.Context, p models.FriendRequestPayload) error {
	return b.post(ctx, "/v1/friends/accept", p)
}

func (b *HTTPBackend) RejectFriendRequest(ctx context.Context, p models.FriendRequestPayload) error {
	return b.post(ctx, "/v1/friends/reject", p)
}

func (b *HTTPBackend) SaveSession(ctx context.Context, s models.Session) error {
	return b.post(ctx, "/v1/timer/session", s)
}

func (b *HTTPBackend) UpdateAggregates(ctx context.Context, s models.Session) error {
	return b.post(ctx, "/v1/timer/aggregates", s)
}

func (b *HTTPBackend) SaveSessionAndUpdateAggregates(ctx context.Context, s models.Session) error {
	return b.post(ctx, "/v1/timer/sessionWithAggregates", s)
}

func (b *HTTPBackend) get(ctx context.Context, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return b.do(req, out)
}

func (b *HTTPBackend) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req, nil)
}

func (b *HTTPBackend) do(req *retryablehttp.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		// Transport failure or retries exhausted on 5xx: transient either way.
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return mapError(resp)
}

// mapError converts a non-2xx response into the failure taxonomy: permanent
// domain errors by code, everything server-side as transient.
func mapError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var ae apiError
	_ = json.Unmarshal(body, &ae)

	switch ae.Code {
	case codeNicknameTaken:
		return common.ErrNicknameTaken
	case codeRequestConflict:
		return common.ErrRequestConflict
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s", common.ErrRemoteUnavailable, resp.Status)
	}
	return fmt.Errorf("backend rejected request: %s: %s", resp.Status, string(body))
}
