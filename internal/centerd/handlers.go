package centerd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GoSim-25-26J-441/optimization-center/internal/center"
	"github.com/GoSim-25-26J-441/optimization-center/internal/metrics"
	"github.com/GoSim-25-26J-441/optimization-center/internal/params"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

const strengthParam = "strength"

// ParamsUpdate is a partial parameter update. A preset is applied first and
// explicit fields override it.
type ParamsUpdate struct {
	Preset        string   `json:"preset,omitempty"`
	Cost          *float64 `json:"cost_weight,omitempty"`
	Time          *float64 `json:"time_weight,omitempty"`
	Emissions     *float64 `json:"emissions_weight,omitempty"`
	LocalSourcing *float64 `json:"local_sourcing_weight,omitempty"`
	Reliability   *float64 `json:"reliability_weight,omitempty"`
	Strength      *float64 `json:"optimization_strength,omitempty"`
}

func (u ParamsUpdate) weights() map[models.Metric]*float64 {
	return map[models.Metric]*float64{
		models.MetricCost:          u.Cost,
		models.MetricTime:          u.Time,
		models.MetricEmissions:     u.Emissions,
		models.MetricLocalSourcing: u.LocalSourcing,
		models.MetricReliability:   u.Reliability,
	}
}

var errUnknownPreset = errors.New("unknown preset")

func findPreset(presets []config.Preset, name string) (config.Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return config.Preset{}, false
}

// applyParams applies u to store, resolving the preset against presets
func applyParams(store *params.Store, presets []config.Preset, u ParamsUpdate) error {
	if u.Preset != "" {
		p, ok := findPreset(presets, u.Preset)
		if !ok {
			return errUnknownPreset
		}
		store.Apply(p.Params)
	}
	weights := u.weights()
	for _, m := range models.Metrics {
		if v := weights[m]; v != nil {
			store.SetWeight(m, *v)
		}
	}
	if u.Strength != nil {
		store.SetStrength(*u.Strength)
	}
	return nil
}

func paramsView(store *params.Store, running bool) map[string]any {
	return map[string]any{
		"params":        store.Params(),
		"total_weights": store.TotalWeights(),
		"balanced":      store.IsBalanced(),
		"can_run":       store.CanRun(running),
	}
}

// handleGetParams handles GET /v1/sessions/{id}/params
func (s *HTTPServer) handleGetParams(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, paramsView(sess.Center.Params(), sess.Center.State() == models.RunStateRunning))
}

// handleUpdateParams handles PUT /v1/sessions/{id}/params
func (s *HTTPServer) handleUpdateParams(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req ParamsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := applyParams(sess.Center.Params(), s.presets, req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error()+": "+req.Preset)
		return
	}
	s.writeJSON(w, http.StatusOK, paramsView(sess.Center.Params(), sess.Center.State() == models.RunStateRunning))
}

// handleBalanceParams handles POST /v1/sessions/{id}/params:balance
func (s *HTTPServer) handleBalanceParams(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Center.Params().AutoBalance()
	s.writeJSON(w, http.StatusOK, paramsView(sess.Center.Params(), sess.Center.State() == models.RunStateRunning))
}

// handleStepParam handles POST /v1/sessions/{id}/params/{name}/{increment|decrement}
func (s *HTTPServer) handleStepParam(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	store := sess.Center.Params()
	name := chi.URLParam(r, "name")
	direction := chi.URLParam(r, "direction")
	if direction != "increment" && direction != "decrement" {
		s.writeError(w, http.StatusBadRequest, "direction must be increment or decrement")
		return
	}
	up := direction == "increment"

	if name == strengthParam {
		if up {
			store.IncrementStrength()
		} else {
			store.DecrementStrength()
		}
	} else {
		m, err := models.ParseMetric(name)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if up {
			store.Increment(m)
		} else {
			store.Decrement(m)
		}
	}
	s.writeJSON(w, http.StatusOK, paramsView(store, sess.Center.State() == models.RunStateRunning))
}

// handleStartRun handles POST /v1/sessions/{id}/run
func (s *HTTPServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	runID, err := sess.Start()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	logger.Info("run started (HTTP)", "session_id", sess.ID, "run_id", runID)
	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":  runID,
		"session": sess.Center.Snapshot(center.DefaultTopN),
	})
}

// handleResetRun handles POST /v1/sessions/{id}/reset
func (s *HTTPServer) handleResetRun(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session": sess.Center.Snapshot(center.DefaultTopN),
	})
}

// handleGetResult handles GET /v1/sessions/{id}/result
func (s *HTTPServer) handleGetResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	result, err := sess.Center.Result()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	body := map[string]any{"result": result}
	if ev, ok := sess.Center.LastCompletion(); ok {
		body["completion"] = ev
	}
	s.writeJSON(w, http.StatusOK, body)
}

// handleGetRoutes handles GET /v1/sessions/{id}/routes
func (s *HTTPServer) handleGetRoutes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.View.Render())
}

// handleGetMetrics handles GET /v1/sessions/{id}/metrics
func (s *HTTPServer) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	collector := sess.Center.Metrics()
	if len(collector.GetMetricNames()) == 0 {
		s.writeError(w, http.StatusPreconditionFailed, "metrics not available")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"metrics": collector.GetSummary(),
	})
}

// handleTimeSeries handles GET /v1/sessions/{id}/metrics/timeseries
func (s *HTTPServer) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	collector := sess.Center.Metrics()

	var startTime, endTime time.Time
	var err error
	if v := r.URL.Query().Get("start_time"); v != "" {
		if startTime, err = parseTime(v); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid start_time format: "+err.Error())
			return
		}
	}
	if v := r.URL.Query().Get("end_time"); v != "" {
		if endTime, err = parseTime(v); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid end_time format: "+err.Error())
			return
		}
	}
	maxPoints := queryInt(r, "max_points", 0)

	metricNames := collector.GetMetricNames()
	if name := r.URL.Query().Get("metric"); name != "" {
		metricNames = []string{name}
	}

	series := make([]map[string]any, 0, len(metricNames))
	for _, name := range metricNames {
		points := metrics.Downsample(collector.GetTimeSeriesRange(name, startTime, endTime), maxPoints)
		if len(points) == 0 {
			continue
		}
		pointsJSON := make([]map[string]any, 0, len(points))
		for _, p := range points {
			pointsJSON = append(pointsJSON, map[string]any{
				"timestamp": p.Timestamp.Format(time.RFC3339Nano),
				"value":     p.Value,
			})
		}
		series = append(series, map[string]any{
			"metric": name,
			"points": pointsJSON,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"run_id":     sess.Center.Snapshot(1).RunID,
		"series":     series,
	})
}

// parseTime parses time from ISO 8601 or Unix milliseconds
func parseTime(timeStr string) (time.Time, error) {
	if unixMs, err := strconv.ParseInt(timeStr, 10, 64); err == nil {
		return time.UnixMilli(unixMs).UTC(), nil
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unable to parse time format")
}

// handleListHistory handles GET /v1/history
func (s *HTTPServer) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	limit := queryInt(r, "limit", 50)
	if limit > 1000 {
		limit = 1000
	}
	runs, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetHistory handles GET /v1/history/{run_id}
func (s *HTTPServer) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	run, err := s.history.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": run})
}
