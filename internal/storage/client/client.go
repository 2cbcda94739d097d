// Package client reaches the storage area of a running service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/apierror"
	"github.com/festy23/prtracker/internal/storage/handler"
	storageModel "github.com/festy23/prtracker/internal/storage/model"
	"github.com/festy23/prtracker/internal/storage/repository"
)

type client struct {
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

var _ repository.Repository = (*client)(nil)

// New creates a storage area backed by the service at baseURL.
func New(baseURL string, httpClient *http.Client, logger *zap.SugaredLogger) repository.Repository {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

func (c *client) Get(ctx context.Context, keys ...string) (storageModel.Items, error) {
	if len(keys) == 0 {
		return storageModel.Items{}, nil
	}
	q := url.Values{}
	for _, k := range keys {
		q.Add("key", k)
	}
	return c.read(ctx, "?"+q.Encode())
}

func (c *client) GetAll(ctx context.Context) (storageModel.Items, error) {
	return c.read(ctx, "")
}

func (c *client) Set(ctx context.Context, items storageModel.Items) error {
	if len(items) == 0 {
		return nil
	}
	if err := items.Validate(); err != nil {
		return err
	}
	return c.write(ctx, http.MethodPut, handler.SetRequest{Items: items})
}

func (c *client) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.write(ctx, http.MethodDelete, handler.RemoveRequest{Keys: keys})
}

func (c *client) read(ctx context.Context, query string) (storageModel.Items, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/storage"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build storage request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var body handler.ItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode storage response: %w", err)
	}
	if body.Items == nil {
		body.Items = storageModel.Items{}
	}
	return body.Items, nil
}

func (c *client) write(ctx context.Context, method string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode storage request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/storage", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build storage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debugw("storage write failed", "method", method, "error", err)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var body apierror.Body
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err == nil && body.Code() != "" {
		return fmt.Errorf("%w: %d %s: %s", ErrUnexpectedStatus, resp.StatusCode, body.Error.Code, body.Error.Message)
	}
	return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
}
