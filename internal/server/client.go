package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError is a non-2xx reply from the host. The decoded body is still
// returned alongside it so callers can show what was spoken.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("host returned %d", e.Code)
	}
	return fmt.Sprintf("host returned %d: %s", e.Code, e.Message)
}

// IsNoMatch reports whether err is the host's reply to a phrase that names no
// configured podcast.
func IsNoMatch(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound && se.Message == "no match"
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient talks to the host at addr, either a host:port bind address or a
// full base URL.
func NewClient(addr string, httpClient *http.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Minute}
	}
	return &Client{baseURL: base, httpClient: httpClient}
}

func (c *Client) Publish(ctx context.Context, event string) (Response, error) {
	return c.do(ctx, http.MethodPost, "/bus/"+url.PathEscape(event), nil)
}

func (c *Client) Play(ctx context.Context, phrase string) (Response, error) {
	return c.do(ctx, http.MethodPost, "/intents/play", playRequest{Phrase: phrase})
}

func (c *Client) LatestEpisodes(ctx context.Context) (Response, error) {
	return c.do(ctx, http.MethodPost, "/intents/latest-episodes", nil)
}

func (c *Client) LatestEpisode(ctx context.Context, utterance string) (Response, error) {
	return c.do(ctx, http.MethodPost, "/intents/latest-episode", latestEpisodeRequest{Utterance: utterance})
}

func (c *Client) Stop(ctx context.Context) (Response, error) {
	return c.do(ctx, http.MethodPost, "/stop", nil)
}

func (c *Client) Status(ctx context.Context) (Response, error) {
	return c.do(ctx, http.MethodGet, "/status", nil)
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) (Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("connect to host at %s (is `podcast-skill serve` running?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{Code: resp.StatusCode, Message: out.Error}
	}
	return out, nil
}
