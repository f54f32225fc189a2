package centerd

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/GoSim-25-26J-441/optimization-center/internal/center"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
)

const (
	sseHeartbeat   = 15 * time.Second
	frameWriteWait = 5 * time.Second
)

// handleEvents handles GET /v1/sessions/{id}/events (SSE). It sends
// status_change on every state transition, progress on every tick and
// complete with the result once the run finishes.
func (s *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	topN := queryInt(r, "top", 0)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	feed := newSnapshotFeed(sess.Center, topN)
	defer feed.Close()

	snap := sess.Center.Snapshot(topN)
	previous := snap.State
	s.sendSSEEvent(w, "status_change", map[string]any{
		"state":  snap.State,
		"run_id": snap.RunID,
	})
	if isTerminal(snap) {
		s.sendSSEEvent(w, "complete", completePayload(snap))
		flush(w)
		return
	}
	flush(w)

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			s.sendSSEEvent(w, "error", map[string]any{"error": "session deleted"})
			flush(w)
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
			flush(w)
		case <-feed.Ready():
			snap, ok := feed.Next()
			if !ok {
				continue
			}
			if snap.State != previous {
				s.sendSSEEvent(w, "status_change", map[string]any{
					"state":          snap.State,
					"previous_state": previous,
					"run_id":         snap.RunID,
				})
				previous = snap.State
			}
			if isTerminal(snap) {
				s.sendSSEEvent(w, "complete", completePayload(snap))
				flush(w)
				return
			}
			s.sendSSEEvent(w, "progress", map[string]any{
				"run_id":    snap.RunID,
				"progress":  snap.Progress,
				"iteration": snap.Iteration,
				"best":      snap.Best,
			})
			flush(w)
		}
	}
}

func completePayload(snap center.Snapshot) map[string]any {
	return map[string]any{
		"run_id":   snap.RunID,
		"progress": snap.Progress,
		"best":     snap.Best,
		"result":   snap.Result,
	}
}

// sendSSEEvent sends a Server-Sent Event
func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, eventType string, data map[string]any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to marshal SSE event data", "error", err)
		return
	}

	// Note: Errors are logged but not returned as SSE streams are best-effort
	if _, err := w.Write([]byte("event: " + eventType + "\n")); err != nil {
		logger.Error("failed to write SSE event header", "error", err)
		return
	}
	if _, err := w.Write([]byte("data: " + string(jsonData) + "\n\n")); err != nil {
		logger.Error("failed to write SSE event data", "error", err)
		return
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Frame is one websocket message of the frames stream
type Frame struct {
	Type     string          `json:"type"` // snapshot or complete
	Snapshot center.Snapshot `json:"snapshot"`
}

// handleFrames handles GET /v1/sessions/{id}/frames (websocket). Every
// snapshot is pushed as a Frame; the stream stays open across runs until the
// client disconnects or the session is deleted.
func (s *HTTPServer) handleFrames(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	topN := queryInt(r, "top", center.DefaultTopN)

	websocket.Handler(func(ws *websocket.Conn) {
		defer ws.Close()

		feed := newSnapshotFeed(sess.Center, topN)
		defer feed.Close()

		// Reads only detect the client going away.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			var discard string
			for {
				if err := websocket.Message.Receive(ws, &discard); err != nil {
					return
				}
			}
		}()

		send := func(snap center.Snapshot) bool {
			frame := Frame{Type: "snapshot", Snapshot: snap}
			if isTerminal(snap) {
				frame.Type = "complete"
			}
			if err := ws.SetWriteDeadline(time.Now().Add(frameWriteWait)); err != nil {
				return false
			}
			if err := websocket.JSON.Send(ws, frame); err != nil {
				logger.Debug("frame stream closed", "session_id", sess.ID, "error", err)
				return false
			}
			return true
		}

		if !send(sess.Center.Snapshot(topN)) {
			return
		}
		for {
			select {
			case <-closed:
				return
			case <-sess.Done():
				return
			case <-feed.Ready():
				snap, ok := feed.Next()
				if ok && !send(snap) {
					return
				}
			}
		}
	}).ServeHTTP(w, r)
}
