package analytics

import (
	"errors"
	"time"

	"github.com/adlens/meta-ads-monitor/internal/meta"
)

// ErrInsufficientData is returned by comparisons that need a minimum number
// of rows or days to be meaningful.
var ErrInsufficientData = errors.New("insufficient data for comparison")

// AdsetSummary is the aggregate of all rows for one ad set over the window.
type AdsetSummary struct {
	AdsetID   string `json:"adset_id"`
	AdsetName string `json:"adset_name"`
	Days      int    `json:"days"`

	Impressions      int64   `json:"impressions"`
	Reach            int64   `json:"reach"`
	Spend            float64 `json:"spend"`
	CTR              float64 `json:"ctr"`
	CPM              float64 `json:"cpm"`
	LinkClicks       float64 `json:"link_clicks"`
	LandingPageViews float64 `json:"landing_page_views"`

	CostPerLinkClick       float64 `json:"cost_per_link_click"`
	CostPerLandingPageView float64 `json:"cost_per_landing_page_view"`
	ReachRate              float64 `json:"reach_rate"`
	EfficiencyScore        float64 `json:"efficiency_score"`
}

// DailySummary is the aggregate of all rows for one calendar day.
type DailySummary struct {
	Date   time.Time `json:"date"`
	AdSets int       `json:"ad_sets"`

	Impressions      int64   `json:"impressions"`
	Reach            int64   `json:"reach"`
	Spend            float64 `json:"spend"`
	CTR              float64 `json:"ctr"`
	CPM              float64 `json:"cpm"`
	LinkClicks       float64 `json:"link_clicks"`
	LandingPageViews float64 `json:"landing_page_views"`

	CostPerLinkClick       float64 `json:"cost_per_link_click"`
	CostPerLandingPageView float64 `json:"cost_per_landing_page_view"`
	ReachRate              float64 `json:"reach_rate"`
	EfficiencyScore        float64 `json:"efficiency_score"`
}

// PerformanceGap is the spread between the top and bottom quartiles of rows
// ranked by efficiency score.
type PerformanceGap struct {
	Metric      string  `json:"metric"`
	TopAvg      float64 `json:"top_avg"`
	BottomAvg   float64 `json:"bottom_avg"`
	GapPct      float64 `json:"gap_pct"`
	SampleSize  int     `json:"sample_size"`
	QuartileLen int     `json:"quartile_len"`
}

// TrendDelta compares a recent window against the preceding one, per metric.
type TrendDelta struct {
	Metric    string  `json:"metric"`
	Recent    float64 `json:"recent"`
	Previous  float64 `json:"previous"`
	ChangePct float64 `json:"change_pct"`
}

// Insight is one human-readable observation about the campaign.
type Insight struct {
	Kind     string `json:"kind"`     // "quartile_gap", "trend", "top_performer"
	Severity string `json:"severity"` // "info", "warning"
	Message  string `json:"message"`
}

// batchStats carries the percentile reference values one derivation batch
// shares, so rows and summaries are scored against the same baseline.
type batchStats struct {
	p95CTR float64
	p95CPM float64
	p95CPC float64
}

// metricRow is the minimal view of a record the shared derivation helpers
// need, letting the same math serve meta.PerformanceRow, AdsetSummary and
// DailySummary without reflection.
type metricRow struct {
	impressions int64
	reach       int64
	spend       float64
	ctr         float64
	cpm         float64
	linkClicks  float64
}

func rowMetrics(r meta.PerformanceRow) metricRow {
	return metricRow{
		impressions: r.Impressions,
		reach:       r.Reach,
		spend:       r.Spend,
		ctr:         r.CTR,
		cpm:         r.CPM,
		linkClicks:  r.LinkClicks,
	}
}
