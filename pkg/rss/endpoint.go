package rss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Endpoint is the client's view of a single committee server: "get a path"
// and "post a JSON body to a path", satisfied identically by a remote HTTP
// server and by an in-process mock (pkg/mockserver.Server). Dispatch happens
// through this interface rather than a tagged union.
type Endpoint interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
}

// HTTPEndpoint is an Endpoint backed by a real net/http.Client pointed at a
// remote server's base URL.
type HTTPEndpoint struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPEndpoint builds an HTTPEndpoint with a sane default client.
func NewHTTPEndpoint(baseURL string) *HTTPEndpoint {
	return &HTTPEndpoint{BaseURL: baseURL, Client: http.DefaultClient}
}

func (e *HTTPEndpoint) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return e.do(req)
}

func (e *HTTPEndpoint) Post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("rss: marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *HTTPEndpoint) do(req *http.Request) ([]byte, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTransport, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: server returned status %d: %s", ErrTransport, resp.StatusCode, string(data))
	}
	return data, nil
}
