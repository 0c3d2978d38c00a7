package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"ms-events/internal/models"
)

const apiBase = "/api/events"

const (
	allEventsKey = "events"
	eventKeyPfx  = "event:"
)

// ErrNotFound mirrors the server's 404 answer.
var ErrNotFound = errors.New("event not found")

// Client is a caching HTTP client for the event service. Query results are
// cached by resource identity and dropped only after a mutation's success
// response has been observed: create and delete invalidate the list key,
// update invalidates both the list key and the record's own key.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu    sync.Mutex
	cache map[string]any
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
		cache:      make(map[string]any),
	}
}

func (c *Client) GetAll(ctx context.Context) ([]models.Event, error) {
	if cached, ok := c.cacheGet(allEventsKey); ok {
		return cached.([]models.Event), nil
	}

	var events []models.Event
	if err := c.do(ctx, http.MethodGet, apiBase, nil, &events); err != nil {
		return nil, err
	}

	c.cacheSet(allEventsKey, events)
	return events, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if cached, ok := c.cacheGet(eventKeyPfx + id); ok {
		event := cached.(models.Event)
		return &event, nil
	}

	var event models.Event
	if err := c.do(ctx, http.MethodGet, apiBase+"/"+id, nil, &event); err != nil {
		return nil, err
	}

	c.cacheSet(eventKeyPfx+id, event)
	return &event, nil
}

func (c *Client) Create(ctx context.Context, input models.CreateEventInput) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodPost, apiBase, input, &event); err != nil {
		return nil, err
	}

	c.invalidate(allEventsKey)
	return &event, nil
}

func (c *Client) Update(ctx context.Context, id string, input models.UpdateEventInput) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodPut, apiBase+"/"+id, input, &event); err != nil {
		return nil, err
	}

	c.invalidate(allEventsKey)
	c.invalidate(eventKeyPfx + id)
	return &event, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, apiBase+"/"+id, nil, nil); err != nil {
		return err
	}

	c.invalidate(allEventsKey)
	return nil
}

// do issues the request and unwraps the {success, data, error} envelope.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("event service error: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if !envelope.Success {
		if envelope.Error != "" {
			return errors.New(envelope.Error)
		}
		return fmt.Errorf("event service returned status %d", resp.StatusCode)
	}

	if out != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) cacheGet(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache[key]
	return v, ok
}

func (c *Client) cacheSet(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = value
}

func (c *Client) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, key)
}
