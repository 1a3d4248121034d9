package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/entitykit/entityauth/pkg/auth"
)

// SnapshotStream subscribes to the server-sent event stream of session
// snapshots. The subscription reconnects after transient failures and stays
// open until Close or context cancellation.
func (c *Client) SnapshotStream(ctx context.Context) (auth.SnapshotSubscription, error) {
	if c.accessToken() == "" {
		return nil, auth.NewAuthError(auth.KindAuthentication, "not signed in")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	sub := &snapshotSubscription{
		ch:     make(chan auth.SessionSnapshot, 8),
		cancel: cancel,
	}
	go sub.run(streamCtx, c)
	return sub, nil
}

type snapshotSubscription struct {
	ch     chan auth.SessionSnapshot
	cancel context.CancelFunc
}

func (s *snapshotSubscription) Snapshots() <-chan auth.SessionSnapshot {
	return s.ch
}

func (s *snapshotSubscription) Close() {
	s.cancel()
}

// run consumes the SSE stream, reconnecting on failure until the context is
// cancelled. The snapshot channel is closed exactly once, on exit.
func (s *snapshotSubscription) run(ctx context.Context, c *Client) {
	defer close(s.ch)

	for {
		if err := s.consume(ctx, c); err != nil && c.logger != nil {
			c.logger.WithError(err).Debug("snapshot stream interrupted")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retryInterval):
		}
	}
}

func (s *snapshotSubscription) consume(ctx context.Context, c *Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/session/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken())
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any request timeout; cancellation comes from ctx.
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var snap auth.SessionSnapshot
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap); err != nil {
			continue
		}

		c.mu.Lock()
		c.snapshot = snap
		c.mu.Unlock()

		select {
		case s.ch <- snap:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}
