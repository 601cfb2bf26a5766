package api

import (
	"net/http"
	"time"

	"github.com/adlens/meta-ads-monitor/internal/analytics"
	"github.com/adlens/meta-ads-monitor/internal/pkg/httputil"
	"github.com/adlens/meta-ads-monitor/internal/tracker"
)

// Handlers holds the dependencies of the dashboard endpoints.
type Handlers struct {
	tracker   *tracker.Tracker
	startedAt time.Time
}

// HealthCheck reports liveness and uptime.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// GetStatus returns the tracker status: target campaign, last run, errors.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.tracker.Status())
}

type summaryResponse struct {
	Adsets  []analytics.AdsetSummary `json:"adsets"`
	Dailies []analytics.DailySummary `json:"dailies"`
}

// GetSummary returns the aggregates of the most recent collection run.
// 404 until the first run has completed.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	adsets := h.tracker.LatestAdsets()
	if len(adsets) == 0 {
		httputil.NotFound(w, "no collection run has completed yet")
		return
	}
	httputil.OK(w, summaryResponse{
		Adsets:  adsets,
		Dailies: h.tracker.LatestDailies(),
	})
}

// GetInsights returns the generated observations of the most recent run.
func (h *Handlers) GetInsights(w http.ResponseWriter, r *http.Request) {
	insights := h.tracker.LatestInsights()
	if insights == nil {
		insights = []analytics.Insight{}
	}
	httputil.OK(w, map[string]interface{}{"insights": insights})
}

// GetTrends returns the week-over-week window comparison.
func (h *Handlers) GetTrends(w http.ResponseWriter, r *http.Request) {
	trends := h.tracker.LatestTrends()
	if trends == nil {
		trends = []analytics.TrendDelta{}
	}
	httputil.OK(w, map[string]interface{}{"trends": trends})
}

// GetAlerts returns the threshold alerts raised by the most recent run.
func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.tracker.LatestAlerts()
	if alerts == nil {
		alerts = []tracker.Alert{}
	}
	httputil.OK(w, map[string]interface{}{"alerts": alerts})
}
