package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound the collaborator has no such resource
var ErrNotFound = errors.New("collaborator resource not found")

// envelope response shape shared by the outlet services
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// httpClient JSON GET against a sibling service; the caller's bearer token is forwarded
type httpClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func newHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *httpClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *httpClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token, ok := BearerFrom(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rid, ok := RequestIDFrom(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("collaborator request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	if env.Code != 0 {
		return fmt.Errorf("GET %s: code %d: %s", path, env.Code, env.Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return ErrNotFound
	}
	return json.Unmarshal(env.Data, out)
}

type bearerKey struct{}

// WithBearer stores the caller's access token for forwarding
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFrom returns the forwarded access token
func BearerFrom(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(bearerKey{}).(string)
	return t, ok && t != ""
}

type requestIDKey struct{}

// WithRequestID stores the inbound request id for forwarding
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestIDFrom returns the forwarded request id
func RequestIDFrom(ctx context.Context) (string, bool) {
	rid, ok := ctx.Value(requestIDKey{}).(string)
	return rid, ok && rid != ""
}
