package routeview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/optimization-center/internal/center"
	"github.com/GoSim-25-26J-441/optimization-center/internal/engine"
	"github.com/GoSim-25-26J-441/optimization-center/internal/notify"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

func optimizedRow(t *testing.T, r Rendering) Row {
	t.Helper()
	for _, row := range r.Routes {
		if row.Route.Kind == RouteOptimized {
			return row
		}
	}
	t.Fatal("no optimized route in rendering")
	return Row{}
}

func TestRenderPreviewByDefault(t *testing.T) {
	v := New(notify.NewBus(), "s1")

	r := v.Render()
	assert.Equal(t, ModePreview, r.Mode)
	assert.Empty(t, r.RunID)
	require.Len(t, r.Routes, len(DefaultRoutes))

	row := optimizedRow(t, r)
	assert.True(t, row.Style.Dashed)
	assert.Less(t, row.Style.Opacity, 1.0)
}

func TestCompletionFlipsToResult(t *testing.T) {
	bus := notify.NewBus()
	v := New(bus, "s1")
	v.Mount()
	assert.True(t, v.Mounted())

	bus.Publish(models.CompletionEvent{SessionID: "s1", RunID: "run-1"})

	assert.True(t, v.ShowingResult())
	r := v.Render()
	assert.Equal(t, ModeResult, r.Mode)
	assert.Equal(t, "run-1", r.RunID)
	row := optimizedRow(t, r)
	assert.False(t, row.Style.Dashed)
	assert.Equal(t, 1.0, row.Style.Opacity)
}

func TestIgnoresOtherSessions(t *testing.T) {
	bus := notify.NewBus()
	v := New(bus, "s1")
	v.Mount()

	bus.Publish(models.CompletionEvent{SessionID: "s2", RunID: "run-2"})
	assert.False(t, v.ShowingResult())

	global := New(bus, "")
	global.Mount()
	bus.Publish(models.CompletionEvent{SessionID: "s3", RunID: "run-3"})
	assert.True(t, global.ShowingResult())
}

func TestUnmountUnsubscribes(t *testing.T) {
	bus := notify.NewBus()
	v := New(bus, "s1")
	v.Mount()
	v.Mount()
	require.Equal(t, 1, bus.Subscribers())

	v.Unmount()
	assert.Equal(t, 0, bus.Subscribers())
	assert.False(t, v.Mounted())

	bus.Publish(models.CompletionEvent{SessionID: "s1"})
	assert.False(t, v.ShowingResult())
	assert.Equal(t, ModePreview, v.Render().Mode)

	// Unmounting twice is harmless.
	v.Unmount()
}

func TestResetReturnsToPreview(t *testing.T) {
	bus := notify.NewBus()
	v := New(bus, "s1")
	v.Mount()
	bus.Publish(models.CompletionEvent{SessionID: "s1", RunID: "run-1"})
	require.True(t, v.ShowingResult())

	v.Reset()
	assert.False(t, v.ShowingResult())
	assert.True(t, v.Mounted())
}

func TestRestartKeepsResultOfSameRun(t *testing.T) {
	bus := notify.NewBus()
	v := New(bus, "s1")
	v.Mount()

	bus.Publish(models.CompletionEvent{SessionID: "s1", RunID: "run-1"})
	v.Restart("run-2")
	assert.False(t, v.ShowingResult(), "a new run should return the view to preview")

	// run-2 completed before its starter got to restart the view
	bus.Publish(models.CompletionEvent{SessionID: "s1", RunID: "run-2"})
	v.Restart("run-2")
	assert.True(t, v.ShowingResult())
	assert.Equal(t, "run-2", v.Render().RunID)
}

func TestCustomRoutes(t *testing.T) {
	routes := []Route{{Name: "A", Kind: RouteCurrent}, {Name: "B", Kind: RouteOptimized}, {Name: "C", Kind: RouteOptimized}}
	r := New(notify.NewBus(), "s1", routes...).Render()
	require.Len(t, r.Routes, 3)
	assert.Equal(t, currentStyle, r.Routes[0].Style)
	assert.Equal(t, previewStyle, r.Routes[2].Style)
}

func TestViewFollowsCenterRun(t *testing.T) {
	cfg := config.Default()
	cfg.Run.LoadingDelay = 0
	bus := notify.NewBus()
	c := center.New(cfg, bus, center.WithSessionID("s1"), center.WithEngine(engine.NewEngineAt("test", time.Unix(0, 0))))
	c.Mount()

	v := New(bus, "s1")
	v.Mount()
	defer v.Unmount()

	runID, err := c.Start()
	require.NoError(t, err)

	c.Engine().Advance(cfg.Run.Duration() / 2)
	assert.Equal(t, ModePreview, v.Render().Mode, "still running")

	c.Engine().Advance(cfg.Run.Duration())
	r := v.Render()
	assert.Equal(t, ModeResult, r.Mode)
	assert.Equal(t, runID, r.RunID)
}
