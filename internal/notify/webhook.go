package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/utils"
)

var (
	ErrInvalidURL       = errors.New("invalid callback url")
	ErrMetadataEndpoint = errors.New("callback url targets a cloud metadata endpoint")
	ErrInternalHost     = errors.New("callback url targets an internal address")
)

const (
	secretHeader = "X-Optimization-Callback-Secret"
	eventHeader  = "X-Optimization-Event"
	userAgent    = "optimization-center/1.0"
)

// NotificationPayload represents the JSON payload sent to the callback URL
type NotificationPayload struct {
	Event             string                    `json:"event"`
	SessionID         string                    `json:"session_id"`
	RunID             string                    `json:"run_id"`
	Params            models.OptimizationParams `json:"params"`
	Best              models.CandidateSolution  `json:"best"`
	Result            models.ResultSummary      `json:"result"`
	Iterations        int                       `json:"iterations"`
	Seed              int64                     `json:"seed"`
	StartedAtUnixMs   int64                     `json:"started_at_unix_ms"`
	CompletedAtUnixMs int64                     `json:"completed_at_unix_ms"`
	Timestamp         int64                     `json:"timestamp"` // When notification was sent
}

// Webhook posts completion events to an external URL
type Webhook struct {
	url        string
	secret     string
	httpClient *http.Client
	maxRetries int
	backoff    utils.BackoffStrategy

	wg sync.WaitGroup
}

// NewWebhook creates a webhook sink from configuration
func NewWebhook(cfg config.Webhook) (*Webhook, error) {
	if err := validateCallbackURL(cfg.URL); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:    cfg.URL,
		secret: cfg.Secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: cfg.MaxRetries,
		backoff:    utils.BackoffFromConfig(cfg.Backoff, cfg.BaseDelay, 0),
	}, nil
}

// Attach subscribes the webhook to bus. Deliveries run in the background.
func (w *Webhook) Attach(bus *Bus) (unsubscribe func()) {
	return bus.Subscribe(w.Notify)
}

// Notify sends ev to the callback URL asynchronously
func (w *Webhook) Notify(ev models.CompletionEvent) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.Send(context.Background(), ev); err != nil {
			logger.Error("failed to send notification after retries",
				"callback_url", w.url,
				"run_id", ev.RunID,
				"max_retries", w.maxRetries,
				"last_error", err)
		}
	}()
}

// Wait blocks until every in-flight delivery has finished
func (w *Webhook) Wait() {
	w.wg.Wait()
}

// Send performs the HTTP POST with retry logic
func (w *Webhook) Send(ctx context.Context, ev models.CompletionEvent) error {
	payload := NotificationPayload{
		Event:             models.CompletionEventName,
		SessionID:         ev.SessionID,
		RunID:             ev.RunID,
		Params:            ev.Params,
		Best:              ev.Best,
		Result:            ev.Result,
		Iterations:        ev.Iterations,
		Seed:              ev.Seed,
		StartedAtUnixMs:   ev.StartedAt.UnixMilli(),
		CompletedAtUnixMs: ev.CompletedAt.UnixMilli(),
		Timestamp:         time.Now().UTC().UnixMilli(),
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	// Replace {run_id} and {session_id} templates in callback URL if present
	callbackURL := strings.NewReplacer("{run_id}", ev.RunID, "{session_id}", ev.SessionID).Replace(w.url)

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			delay := w.backoff.NextDelay(attempt - 1)
			logger.Debug("retrying notification",
				"callback_url", callbackURL,
				"run_id", ev.RunID,
				"attempt", attempt,
				"delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = w.post(ctx, callbackURL, payloadJSON)
		if lastErr == nil {
			logger.Info("notification sent successfully",
				"callback_url", callbackURL,
				"run_id", ev.RunID,
				"attempt", attempt+1)
			return nil
		}
		logger.Warn("notification attempt failed",
			"callback_url", callbackURL,
			"run_id", ev.RunID,
			"attempt", attempt+1,
			"error", lastErr)
	}
	return lastErr
}

func (w *Webhook) post(ctx context.Context, callbackURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(eventHeader, models.CompletionEventName)
	if w.secret != "" {
		req.Header.Set(secretHeader, w.secret)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	// Read response body for error details
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	responseBody := string(bodyBytes)
	if len(responseBody) > 200 {
		responseBody = responseBody[:200] + "..."
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, responseBody)
}

// validateCallbackURL rejects callback targets that would let a config file
// reach cloud metadata or loopback services. "localhost" by name is allowed
// for development.
func validateCallbackURL(raw string) error {
	u, err := url.Parse(strings.NewReplacer("{run_id}", "x", "{session_id}", "x").Replace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}
	if host == "metadata.google.internal" || host == "169.254.169.254" {
		return fmt.Errorf("%w: %s", ErrMetadataEndpoint, host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return fmt.Errorf("%w: %s", ErrInternalHost, host)
		}
	}
	return nil
}
