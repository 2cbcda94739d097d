// Package client speaks the message protocol to a running service over HTTP.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/broadcast"
	messageModel "github.com/festy23/prtracker/internal/message/model"
)

const (
	pingAttempts  = 5
	pingDelay     = 100 * time.Millisecond
	pingMaxDelay  = time.Second
	pingMaxJitter = 50 * time.Millisecond

	eventBuffer = 16
)

// Client sends protocol messages and receives change events.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	logger  *zap.SugaredLogger
}

// New creates a client for the service at baseURL. timeout bounds each request.
func New(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		logger:  logger,
	}
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the client used for request/response calls.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Send delivers req once and returns the response. Delivery failures are not retried.
func (c *Client) Send(ctx context.Context, req *messageModel.Request) (*messageModel.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build message request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debugw("message delivery failed", "action", req.Action, "error", err)
		return nil, fmt.Errorf("failed to deliver %s: %w", req.Action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", messageModel.ErrUnexpectedStatus, resp.StatusCode)
	}

	var out messageModel.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", req.Action, err)
	}
	return &out, nil
}

// Ping checks that the service answers, retrying with backoff until ctx is done.
func (c *Client) Ping(ctx context.Context) error {
	return retry.Do(
		func() error {
			resp, err := c.Send(ctx, &messageModel.Request{Action: messageModel.ActionPing})
			if err != nil {
				return err
			}
			if !resp.Success {
				return &messageModel.ResponseError{Action: messageModel.ActionPing, Response: resp}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(pingAttempts),
		retry.Delay(pingDelay),
		retry.MaxDelay(pingMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxJitter(pingMaxJitter),
		retry.RetryIf(func(err error) bool {
			var respErr *messageModel.ResponseError
			return !errors.As(err, &respErr)
		}),
	)
}

// Listen streams change events until ctx is cancelled or the service goes away.
// The returned channel is closed when the stream ends.
func (c *Client) Listen(ctx context.Context) (<-chan broadcast.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build events request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", messageModel.ErrUnexpectedStatus, resp.StatusCode)
	}

	events := make(chan broadcast.Event, eventBuffer)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data:")
			if !ok {
				continue
			}
			var ev broadcast.Event
			if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &ev); err != nil {
				c.logger.Debugw("ignoring malformed event", "error", err)
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.logger.Debugw("event stream ended", "error", err)
		}
	}()
	return events, nil
}
