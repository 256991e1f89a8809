// Package remote syncs the streak record with a networked replica service.
// The remote copy exists for cross-device recovery only; nothing here may
// ever block the local read or write path.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"cleanstreak/internal/streak"
)

// Client is the push/pull surface the engine syncs through.
type Client interface {
	// Push upserts the record for userID.
	Push(ctx context.Context, userID string, rec streak.Record) error
	// Pull reads the record for userID. A nil record with nil error means the
	// remote has no data for this user.
	Pull(ctx context.Context, userID string) (*streak.Record, error)
}

// replicaPayload is the wire form of a replica record.
type replicaPayload struct {
	UserID      string    `json:"userId"`
	Count       int       `json:"streakCount"`
	StartDate   time.Time `json:"startDate"`
	LastCheckIn time.Time `json:"lastCheckIn"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const pullMaxAttempts = 3

// HTTPClient talks to a cleanstreak replica service (`cst serve`).
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger

	// initOnce guards the lazy initialization of an absent remote record:
	// performed at most once per process lifetime.
	initOnce sync.Once
}

func NewHTTPClient(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPClient {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *HTTPClient) userURL(userID string) string {
	return fmt.Sprintf("%s/v1/streaks/%s", c.baseURL, userID)
}

func (c *HTTPClient) Push(ctx context.Context, userID string, rec streak.Record) error {
	payload := replicaPayload{
		UserID:      userID,
		Count:       rec.Count,
		StartDate:   rec.StartDate,
		LastCheckIn: rec.LastCheckIn,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("remote push: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.userURL(userID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote push: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote push: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("remote push: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Pull reads the replica with a short exponential-backoff retry on transport
// errors. An absent remote record triggers lazy initialization of a zero
// state, at most once per process.
func (c *HTTPClient) Pull(ctx context.Context, userID string) (*streak.Record, error) {
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < pullMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffCfg.NextBackOff()):
			}
		}

		rec, found, err := c.pullOnce(ctx, userID)
		if err != nil {
			lastErr = err
			continue
		}
		if !found {
			c.initOnce.Do(func() {
				c.log.Info("remote pull: no replica, initializing zero state", "user", userID)
				if err := c.Push(ctx, userID, streak.Record{}); err != nil {
					c.log.Warn("remote lazy init failed", "err", err)
				}
			})
			return nil, nil
		}
		return rec, nil
	}
	return nil, fmt.Errorf("remote pull: %w", lastErr)
}

func (c *HTTPClient) pullOnce(ctx context.Context, userID string) (*streak.Record, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL(userID), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, false, nil
	case http.StatusOK:
	default:
		return nil, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload replicaPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode: %w", err)
	}
	return &streak.Record{
		Count:       payload.Count,
		StartDate:   payload.StartDate,
		LastCheckIn: payload.LastCheckIn,
	}, true, nil
}
