// Package routeview renders the current-versus-optimized route comparison.
// It starts in preview and switches to the result rendering when the
// completion signal for its session arrives.
package routeview

import (
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/optimization-center/internal/notify"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// RouteKind distinguishes the baseline route from the proposed one
type RouteKind string

const (
	RouteCurrent   RouteKind = "current"
	RouteOptimized RouteKind = "optimized"
)

// Stop is one waypoint of a route
type Stop struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Route is a mock delivery route drawn on the comparison map
type Route struct {
	Name          string    `json:"name"`
	Kind          RouteKind `json:"kind"`
	Stops         []Stop    `json:"stops"`
	DistanceKm    float64   `json:"distance_km"`
	DurationHours float64   `json:"duration_hours"`
	Color         string    `json:"color"`
}

// DefaultRoutes are the mock routes shown when no others are given
var DefaultRoutes = []Route{
	{
		Name: "Current Route",
		Kind: RouteCurrent,
		Stops: []Stop{
			{"Central Warehouse", 6.9271, 79.8612},
			{"Negombo Depot", 7.2008, 79.8737},
			{"Kurunegala Hub", 7.4863, 80.3623},
			{"Kandy Store", 7.2906, 80.6337},
		},
		DistanceKm:    212,
		DurationHours: 6.5,
		Color:         "#ef4444",
	},
	{
		Name: "Optimized Route",
		Kind: RouteOptimized,
		Stops: []Stop{
			{"Central Warehouse", 6.9271, 79.8612},
			{"Kegalle Hub", 7.2513, 80.3464},
			{"Kandy Store", 7.2906, 80.6337},
		},
		DistanceKm:    128,
		DurationHours: 3.9,
		Color:         "#10b981",
	},
}

// Mode is the rendering mode of the view
type Mode string

const (
	ModePreview Mode = "preview"
	ModeResult  Mode = "result"
)

// Style is how a route line is drawn
type Style struct {
	Dashed  bool    `json:"dashed"`
	Opacity float64 `json:"opacity"`
	Weight  int     `json:"weight"`
}

var (
	previewStyle = Style{Dashed: true, Opacity: 0.4, Weight: 3}
	resultStyle  = Style{Dashed: false, Opacity: 1, Weight: 5}
	currentStyle = Style{Dashed: false, Opacity: 0.6, Weight: 3}
)

// Row is one styled route of a rendering
type Row struct {
	Route Route `json:"route"`
	Style Style `json:"style"`
}

// Rendering is what the view draws at one instant
type Rendering struct {
	Mode   Mode   `json:"mode"`
	RunID  string `json:"run_id,omitempty"`
	Routes []Row  `json:"routes"`
}

// View is the route comparison panel of one session
type View struct {
	bus       *notify.Bus
	sessionID string
	routes    []Route
	logger    *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
	showResult  bool
	runID       string
}

// New creates an unmounted view for sessionID. An empty sessionID accepts
// completions from every session.
func New(bus *notify.Bus, sessionID string, routes ...Route) *View {
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	return &View{
		bus:       bus,
		sessionID: sessionID,
		routes:    routes,
		logger:    logger.With("component", "routeview", "session_id", sessionID),
	}
}

// Mount subscribes to the completion signal
func (v *View) Mount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unsubscribe != nil {
		return
	}
	v.unsubscribe = v.bus.Subscribe(v.onCompleted)
}

// Unmount unsubscribes and returns the view to preview
func (v *View) Unmount() {
	v.mu.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.showResult = false
	v.runID = ""
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mounted reports whether the view is subscribed
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unsubscribe != nil
}

// Reset returns the view to preview without unsubscribing
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.showResult = false
	v.runID = ""
}

// Restart returns the view to preview for a newly started run. A result
// already shown for runID is kept, since that run finished first.
func (v *View) Restart(runID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.showResult && v.runID == runID {
		return
	}
	v.showResult = false
	v.runID = ""
}

func (v *View) onCompleted(ev models.CompletionEvent) {
	if v.sessionID != "" && ev.SessionID != v.sessionID {
		return
	}
	v.mu.Lock()
	v.showResult = true
	v.runID = ev.RunID
	v.mu.Unlock()
	v.logger.Debug("Route view showing result", "run_id", ev.RunID)
}

// ShowingResult reports whether the result rendering is active
func (v *View) ShowingResult() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.showResult
}

// Render returns the styled routes for the current mode. The optimized route
// is dimmed and dashed in preview and solid once a result is shown.
func (v *View) Render() Rendering {
	v.mu.Lock()
	showResult, runID := v.showResult, v.runID
	v.mu.Unlock()

	r := Rendering{Mode: ModePreview, Routes: make([]Row, 0, len(v.routes))}
	if showResult {
		r.Mode = ModeResult
		r.RunID = runID
	}
	for _, route := range v.routes {
		style := currentStyle
		if route.Kind == RouteOptimized {
			style = previewStyle
			if showResult {
				style = resultStyle
			}
		}
		r.Routes = append(r.Routes, Row{Route: route, Style: style})
	}
	return r
}
