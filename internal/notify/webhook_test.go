package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

func TestValidateCallbackURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errType error
	}{
		{
			name: "valid external URL",
			url:  "https://example.com/callback",
		},
		{
			name: "valid localhost for development",
			url:  "http://localhost:8000/callback",
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com/callback",
			wantErr: true,
			errType: ErrInvalidURL,
		},
		{
			name:    "missing hostname",
			url:     "http:///callback",
			wantErr: true,
			errType: ErrInvalidURL,
		},
		{
			name:    "metadata endpoint - IP",
			url:     "http://169.254.169.254/metadata",
			wantErr: true,
			errType: ErrMetadataEndpoint,
		},
		{
			name:    "metadata endpoint - hostname",
			url:     "http://metadata.google.internal/metadata",
			wantErr: true,
			errType: ErrMetadataEndpoint,
		},
		{
			name:    "wildcard address",
			url:     "http://0.0.0.0:8000/callback",
			wantErr: true,
			errType: ErrInternalHost,
		},
		{
			name:    "direct loopback IP",
			url:     "http://127.0.0.1:8000/callback",
			wantErr: true,
			errType: ErrInternalHost,
		},
		{
			name: "URL with templates",
			url:  "http://localhost:8000/callback/{session_id}/{run_id}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCallbackURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.url)
				}
				if !errors.Is(err, tt.errType) {
					t.Errorf("error = %v, want %v", err, tt.errType)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// localURL rewrites an httptest URL so it passes the loopback guard
func localURL(s *httptest.Server, path string) string {
	return strings.Replace(s.URL, "127.0.0.1", "localhost", 1) + path
}

func testEvent() models.CompletionEvent {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return models.CompletionEvent{
		SessionID:   "session-1",
		RunID:       "run-1",
		Params:      models.DefaultParams(),
		Best:        models.CandidateSolution{ID: 3, Cost: 55},
		Iterations:  1200,
		Seed:        42,
		StartedAt:   start,
		CompletedAt: start.Add(20 * time.Second),
	}
}

func TestWebhookSend(t *testing.T) {
	var got NotificationPayload
	var gotSecret, gotEvent, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get(secretHeader)
		gotEvent = r.Header.Get(eventHeader)
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	wh, err := NewWebhook(config.Webhook{
		URL:    localURL(server, "/hooks/{session_id}/{run_id}"),
		Secret: "s3cret",
	})
	if err != nil {
		t.Fatalf("NewWebhook() error = %v", err)
	}
	if err := wh.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotSecret != "s3cret" {
		t.Errorf("secret header = %q", gotSecret)
	}
	if gotEvent != models.CompletionEventName {
		t.Errorf("event header = %q", gotEvent)
	}
	if gotPath != "/hooks/session-1/run-1" {
		t.Errorf("path = %s, want templated path", gotPath)
	}
	if got.RunID != "run-1" || got.Event != models.CompletionEventName || got.Best.ID != 3 {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.CompletedAtUnixMs-got.StartedAtUnixMs != 20000 {
		t.Errorf("run length = %dms, want 20000", got.CompletedAtUnixMs-got.StartedAtUnixMs)
	}
}

func TestWebhookRetriesUntilSuccess(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	wh, err := NewWebhook(config.Webhook{
		URL:        localURL(server, "/"),
		MaxRetries: 3,
		Backoff:    "constant",
		BaseDelay:  time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := wh.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if atomic.LoadInt64(&attempts) != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWebhookGivesUp(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	wh, err := NewWebhook(config.Webhook{
		URL:        localURL(server, "/"),
		MaxRetries: 2,
		Backoff:    "exponential_nojitter",
		BaseDelay:  time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = wh.Send(context.Background(), testEvent())
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Send() error = %v, want status 500", err)
	}
	if atomic.LoadInt64(&attempts) != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWebhookSendHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	wh, err := NewWebhook(config.Webhook{
		URL:        localURL(server, "/"),
		MaxRetries: 5,
		Backoff:    "constant",
		BaseDelay:  time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := wh.Send(ctx, testEvent()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() error = %v, want deadline exceeded", err)
	}
}

func TestWebhookAttach(t *testing.T) {
	var mu sync.Mutex
	var runs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p NotificationPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		runs = append(runs, p.RunID)
		mu.Unlock()
	}))
	defer server.Close()

	wh, err := NewWebhook(config.Webhook{URL: localURL(server, "/")})
	if err != nil {
		t.Fatal(err)
	}
	bus := NewBus()
	unsubscribe := wh.Attach(bus)
	bus.Publish(testEvent())
	wh.Wait()
	unsubscribe()
	bus.Publish(testEvent())
	wh.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(runs) != 1 || runs[0] != "run-1" {
		t.Errorf("webhook received %v, want one delivery for run-1", runs)
	}
}

func TestNewWebhookRejectsInternalURL(t *testing.T) {
	if _, err := NewWebhook(config.Webhook{URL: "http://169.254.169.254/latest"}); !errors.Is(err, ErrMetadataEndpoint) {
		t.Errorf("NewWebhook() error = %v, want ErrMetadataEndpoint", err)
	}
}
