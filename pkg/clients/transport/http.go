package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// HTTPTransport talks to the server's queue endpoints over plain HTTP(S).
// Enqueue/poll calls are routed through a circuit breaker keyed by
// baseURL so a degraded server fails fast instead of the SDK hammering
// it with retries (§4.F design addition).
type HTTPTransport struct {
	baseURL    string
	bearer     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithBearer sets the Authorization header credential.
func WithBearer(token string) Option {
	return func(t *HTTPTransport) { t.bearer = token }
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) { t.httpClient = c }
}

// WithMaxRetries sets the transport-level retry count on 5xx/connect
// errors for idempotent reads and idempotency-keyed enqueues (§7).
func WithMaxRetries(n int) Option {
	return func(t *HTTPTransport) { t.maxRetries = n }
}

// NewHTTPTransport creates a transport against baseURL. Accepts an
// optional *http.Client for custom timeouts/transport settings, the same
// shape as the teacher's weather.NewOpenMeteoClient constructor.
func NewHTTPTransport(baseURL string, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "workflow-transport:" + baseURL,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return t
}

func (t *HTTPTransport) EnqueueBatch(ctx context.Context, workflow, graph json.RawMessage, runs int, priority int) (string, []string, error) {
	idempotencyKey := uuid.New().String()

	body := struct {
		Workflow json.RawMessage `json:"workflow"`
		Graph    json.RawMessage `json:"graph"`
		Runs     int             `json:"runs"`
		Priority int             `json:"priority"`
	}{workflow, graph, runs, priority}

	raw, err := t.doWithBreaker(ctx, http.MethodPost, "/api/v1/queue/enqueue_batch", body, map[string]string{
		"Idempotency-Key": idempotencyKey,
	}, true)
	if err != nil {
		return "", nil, fmt.Errorf("transport: enqueue batch: %w", err)
	}

	var resp struct {
		BatchID    string   `json:"batch_id"`
		SessionIDs []string `json:"session_ids"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", nil, fmt.Errorf("transport: decode enqueue response: %w", err)
	}
	return resp.BatchID, resp.SessionIDs, nil
}

func (t *HTTPTransport) GetSession(ctx context.Context, sessionID string) (*SessionState, error) {
	raw, err := t.doWithBreaker(ctx, http.MethodGet, "/api/v1/sessions/"+sessionID, nil, nil, true)
	if err != nil {
		return nil, fmt.Errorf("transport: get session %s: %w", sessionID, err)
	}
	var state SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("transport: decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

// CancelBatch is destructive; per §7 it is never retried.
func (t *HTTPTransport) CancelBatch(ctx context.Context, batchID string) error {
	_, err := t.doRequest(ctx, http.MethodPost, "/api/v1/queue/"+batchID+"/cancel", nil, nil)
	if err != nil {
		return fmt.Errorf("transport: cancel batch %s: %w", batchID, err)
	}
	return nil
}

func (t *HTTPTransport) GetQueueStatus(ctx context.Context) (*QueueStatus, error) {
	raw, err := t.doWithBreaker(ctx, http.MethodGet, "/api/v1/queue/status", nil, nil, true)
	if err != nil {
		return nil, fmt.Errorf("transport: get queue status: %w", err)
	}
	var status QueueStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("transport: decode queue status: %w", err)
	}
	return &status, nil
}

func (t *HTTPTransport) doWithBreaker(ctx context.Context, method, path string, body any, headers map[string]string, idempotent bool) ([]byte, error) {
	result, err := t.breaker.Execute(func() (any, error) {
		return t.doRequest(ctx, method, path, body, headers, withRetries(t.maxRetries, idempotent))
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

type requestOpt struct {
	retries int
}

func withRetries(n int, idempotent bool) requestOpt {
	if !idempotent {
		return requestOpt{retries: 0}
	}
	return requestOpt{retries: n}
}

func (t *HTTPTransport) doRequest(ctx context.Context, method, path string, body any, headers map[string]string, opts ...requestOpt) ([]byte, error) {
	retries := 0
	if len(opts) > 0 {
		retries = opts[0].retries
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			slog.Debug("transport: retrying request", "method", method, "path", path, "attempt", attempt)
		}

		req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if t.bearer != "" {
			req.Header.Set("Authorization", "Bearer "+t.bearer)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}
	return nil, lastErr
}
