package projectsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

var ErrCircuitOpen = errors.New("project api circuit breaker is open")

// StatusError is a non-2xx answer from the project API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("project api returned status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the request may succeed when repeated.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backoff := config.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "project-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return !statusErr.Transient()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		maxRetries: maxRetries,
		backoff:    backoff,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

func (c *Client) ListProjects(ctx context.Context) ([]APIProject, error) {
	var resp listResponse[APIProject]
	if err := c.get(ctx, "/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListTasks(ctx context.Context, projectID string) ([]APITask, error) {
	var resp listResponse[APITask]
	if err := c.get(ctx, "/projects/"+url.PathEscape(projectID)+"/tasks", nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Data {
		if resp.Data[i].ProjectID == "" {
			resp.Data[i].ProjectID = projectID
		}
	}
	return resp.Data, nil
}

func (c *Client) ListTimeLogs(ctx context.Context, since time.Time) ([]APITimeLog, error) {
	query := url.Values{}
	query.Set("since", since.UTC().Format(time.RFC3339))

	var resp listResponse[APITimeLog]
	if err := c.get(ctx, "/time-logs", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.getWithRetry(ctx, path, query, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, path)
	}
	return err
}

func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			c.logger.Warn("retrying project api request",
				"path", path,
				"attempt", attempt,
				"delay", delay.String(),
				"error", lastErr)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.do(ctx, path, query, out)
		if lastErr == nil || !transient(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return fmt.Errorf("project api request %s failed after %d attempts: %w", path, c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("project api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// transient covers network failures, 5xx and 429.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
