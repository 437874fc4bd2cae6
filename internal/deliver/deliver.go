package deliver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Outcome is the terminal result of a delivery attempt sequence.
type Outcome int

const (
	// Delivered means the destination accepted the card with HTTP 200.
	Delivered Outcome = iota

	// Exhausted means the destination rate-limited all three attempts.
	Exhausted

	// Failed means the destination rejected the card or could not be
	// reached; no retry is attempted.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

const (
	maxAttempts     = 3
	firstRetryDelay = 10 * time.Second
	laterRetryDelay = 30 * time.Second
	requestTimeout  = 30 * time.Second

	// maxErrorBody caps how much of a rejecting response is kept for logs.
	maxErrorBody = 4096
)

// Client posts cards to destination webhooks. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) // injectable for tests
}

// New returns a Client with a 30-second per-attempt timeout.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		sleep:      sleepCtx,
	}
}

// Post sends card as a JSON POST to url. A 200 response is Delivered. A 429
// response is retried after 10 seconds (first attempt) or 30 seconds
// (second); a third rate-limited attempt ends as Exhausted with no further
// wait. Any other status, or a transport error, ends as Failed immediately.
func (c *Client) Post(ctx context.Context, card []byte, url string) Outcome {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, body, err := c.attempt(ctx, card, url)
		if err != nil {
			slog.Error("deliver: error posting card", "attempt", attempt, "err", err)
			return Failed
		}

		switch status {
		case http.StatusOK:
			return Delivered

		case http.StatusTooManyRequests:
			if attempt == maxAttempts {
				return Exhausted
			}
			delay := laterRetryDelay
			if attempt == 1 {
				delay = firstRetryDelay
			}
			slog.Info("deliver: rate limited, retrying",
				"attempt", attempt, "retry_in", delay)
			c.sleep(ctx, delay)

		default:
			slog.Error("deliver: destination rejected card",
				"status", status, "body", body)
			return Failed
		}
	}
	return Failed
}

// attempt performs a single POST, returning the response status and, for
// rejecting responses, as much of the body as is kept for diagnostics.
func (c *Client) attempt(ctx context.Context, card []byte, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(card))
	if err != nil {
		return 0, "", fmt.Errorf("deliver: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("deliver: http post: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusTooManyRequests:
		return resp.StatusCode, "", nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return resp.StatusCode, "Could not unpack body", nil
	}
	return resp.StatusCode, string(b), nil
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
