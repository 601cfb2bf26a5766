// Package tracker orchestrates the collection pipeline: resolve the target
// campaign, pull daily insights, aggregate them and publish the report
// tabs, keeping the latest results cached for the dashboard API.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adlens/meta-ads-monitor/internal/analytics"
	"github.com/adlens/meta-ads-monitor/internal/config"
	"github.com/adlens/meta-ads-monitor/internal/meta"
	"github.com/adlens/meta-ads-monitor/internal/metrics"
	"github.com/adlens/meta-ads-monitor/internal/pkg/logger"
	"github.com/adlens/meta-ads-monitor/internal/sheets"
	"github.com/adlens/meta-ads-monitor/internal/storage"
)

// Tab titles of the published report sheets.
const (
	TabAdsetPerformance = "Adset Performance"
	TabDailyTrend       = "Daily Trend"
	tabWeeklyPrefix     = "Weekly Summary "
)

// MetricsSource pulls campaign structure and insight rows from the
// advertising API.
type MetricsSource interface {
	ResolveCampaign(ctx context.Context, name string) (*meta.Campaign, error)
	ListAdSets(ctx context.Context, campaignID string) ([]meta.AdSet, error)
	FetchInsights(ctx context.Context, adSets []meta.AdSet, since, until time.Time) ([]meta.PerformanceRow, error)
}

// SheetPublisher writes one report table into a named spreadsheet tab.
type SheetPublisher interface {
	Publish(ctx context.Context, tab string, table sheets.Table, opts sheets.Options) error
}

// Status describes the tracker for the dashboard API.
type Status struct {
	CampaignID   string    `json:"campaign_id"`
	CampaignName string    `json:"campaign_name"`
	AdsetCount   int       `json:"adset_count"`
	LastRunID    string    `json:"last_run_id,omitempty"`
	LastRunAt    time.Time `json:"last_run_at,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	RowsCovered  int       `json:"rows_covered"`
}

// Tracker is safe for concurrent use: the scheduler writes results while
// API handlers read the cached aggregates.
type Tracker struct {
	source    MetricsSource
	publisher SheetPublisher
	store     *storage.SnapshotStore
	cfg       config.TrackerConfig
	alertCfg  config.AlertConfig

	now func() time.Time

	mu       sync.RWMutex
	campaign *meta.Campaign
	adSets   []meta.AdSet
	adsets   []analytics.AdsetSummary
	dailies  []analytics.DailySummary
	insights []analytics.Insight
	trends   []analytics.TrendDelta
	alerts   []Alert
	status   Status
}

// New creates a tracker. The snapshot store may be nil, in which case
// week-over-week alerts are skipped.
func New(source MetricsSource, publisher SheetPublisher, store *storage.SnapshotStore,
	cfg config.TrackerConfig, alertCfg config.AlertConfig) *Tracker {
	return &Tracker{
		source:    source,
		publisher: publisher,
		store:     store,
		cfg:       cfg,
		alertCfg:  alertCfg,
		now:       time.Now,
	}
}

// Initialize resolves the target campaign and its ad sets.
func (t *Tracker) Initialize(ctx context.Context) error {
	campaign, err := t.source.ResolveCampaign(ctx, t.cfg.CampaignName)
	if err != nil {
		return fmt.Errorf("resolving campaign %q: %w", t.cfg.CampaignName, err)
	}

	adSets, err := t.source.ListAdSets(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("listing ad sets: %w", err)
	}

	t.mu.Lock()
	t.campaign = campaign
	t.adSets = adSets
	t.status.CampaignID = campaign.ID
	t.status.CampaignName = campaign.Name
	t.status.AdsetCount = len(adSets)
	t.mu.Unlock()

	logger.Info("tracker: initialized",
		"campaign_id", campaign.ID, "campaign_name", campaign.Name, "adsets", len(adSets))
	return nil
}

// RefreshAdSets re-reads the ad set list, picking up sets added or paused
// since initialization.
func (t *Tracker) RefreshAdSets(ctx context.Context) error {
	t.mu.RLock()
	campaign := t.campaign
	t.mu.RUnlock()
	if campaign == nil {
		return t.Initialize(ctx)
	}

	adSets, err := t.source.ListAdSets(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("refreshing ad sets: %w", err)
	}

	t.mu.Lock()
	t.adSets = adSets
	t.status.AdsetCount = len(adSets)
	t.mu.Unlock()

	logger.Info("tracker: ad sets refreshed", "adsets", len(adSets))
	return nil
}

// CollectAndPublish runs one full collection: fetch the insight window,
// aggregate, publish the report tabs and persist today's snapshot. A run
// with no rows publishes nothing and is not an error.
func (t *Tracker) CollectAndPublish(ctx context.Context) error {
	runID := uuid.NewString()
	start := t.now()

	t.mu.RLock()
	campaign := t.campaign
	adSets := t.adSets
	t.mu.RUnlock()
	if campaign == nil {
		return fmt.Errorf("tracker not initialized")
	}

	logger.Info("tracker: collection started",
		"run_id", runID, "campaign_id", campaign.ID, "adsets", len(adSets), "window_days", t.cfg.WindowDays)

	since := start.AddDate(0, 0, -t.cfg.WindowDays)
	rows, err := t.source.FetchInsights(ctx, adSets, since, start)
	if err != nil {
		t.recordRun(runID, start, 0, err)
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("fetching insights: %w", err)
	}

	if len(rows) == 0 {
		logger.Warn("tracker: no insight rows in window, skipping publish", "run_id", runID)
		t.recordRun(runID, start, 0, nil)
		metrics.RunsTotal.WithLabelValues("empty").Inc()
		return nil
	}

	rows = analytics.ComputeDerivedMetrics(rows)
	adsets := analytics.AggregateByAdset(rows)
	dailies := analytics.AggregateByDate(rows)
	insights := analytics.GenerateInsights(adsets, dailies)
	trends, _ := analytics.CompareWindows(dailies)

	published, total := t.publishTables(ctx, adsets, dailies)
	logger.Info("tracker: sheets updated",
		"run_id", runID, "published", published, "total", total,
		"summary", fmt.Sprintf("%d/%d sheets updated", published, total))

	alerts := t.saveSnapshotAndCheckAlerts(campaign, start, adsets)

	t.mu.Lock()
	t.adsets = adsets
	t.dailies = dailies
	t.insights = insights
	t.trends = trends
	t.alerts = alerts
	t.mu.Unlock()
	t.recordRun(runID, start, len(rows), nil)

	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.RowsCollected.Set(float64(len(rows)))
	metrics.LastRunTimestamp.Set(float64(t.now().Unix()))

	logger.Info("tracker: collection finished",
		"run_id", runID, "rows", len(rows), "adsets", len(adsets), "days", len(dailies),
		"elapsed", t.now().Sub(start).String())
	return nil
}

func (t *Tracker) publishTables(ctx context.Context, adsets []analytics.AdsetSummary, dailies []analytics.DailySummary) (published, total int) {
	opts := sheets.Options{IncludeHeader: true, ClearExisting: true}
	tables := []struct {
		tab   string
		table sheets.Table
	}{
		{TabAdsetPerformance, adsetTable(adsets)},
		{TabDailyTrend, dailyTable(dailies)},
	}

	for _, item := range tables {
		total++
		if err := t.publisher.Publish(ctx, item.tab, item.table, opts); err != nil {
			metrics.SheetPublishFailures.Inc()
			logger.Error("tracker: publish failed", "tab", item.tab, "error", err.Error())
			continue
		}
		published++
	}
	return published, total
}

// PublishWeeklySummary writes the dated weekly tab from the cached
// aggregates of the most recent run.
func (t *Tracker) PublishWeeklySummary(ctx context.Context) error {
	t.mu.RLock()
	adsets := t.adsets
	trends := t.trends
	t.mu.RUnlock()

	if len(adsets) == 0 {
		logger.Warn("tracker: no aggregates cached, skipping weekly summary")
		return nil
	}

	tab := tabWeeklyPrefix + t.now().Format("20060102")
	table := weeklyTable(adsets, trends)
	if err := t.publisher.Publish(ctx, tab, table, sheets.Options{IncludeHeader: true, ClearExisting: true}); err != nil {
		metrics.SheetPublishFailures.Inc()
		return fmt.Errorf("publishing weekly summary: %w", err)
	}
	logger.Info("tracker: weekly summary published", "tab", tab)
	return nil
}

func (t *Tracker) saveSnapshotAndCheckAlerts(campaign *meta.Campaign, at time.Time, adsets []analytics.AdsetSummary) []Alert {
	if t.store == nil {
		return nil
	}

	snap := snapshotFrom(campaign, at, adsets)
	if err := t.store.Save(snap); err != nil {
		logger.Error("tracker: snapshot save failed", "error", err.Error())
	}

	previous, err := t.store.LoadDaysAgo(at, 7)
	if err != nil {
		logger.Error("tracker: snapshot load failed", "error", err.Error())
		return nil
	}

	alerts := CheckAlerts(snap, previous, t.alertCfg)
	for _, a := range alerts {
		logger.Warn("tracker: alert raised", "metric", a.Metric, "change_pct", a.ChangePct, "message", a.Message)
	}
	return alerts
}

func snapshotFrom(campaign *meta.Campaign, at time.Time, adsets []analytics.AdsetSummary) storage.CampaignSnapshot {
	snap := storage.CampaignSnapshot{
		CapturedAt:   at,
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		AdsetCount:   len(adsets),
		Adsets:       adsets,
	}
	for _, s := range adsets {
		snap.TotalSpend += s.Spend
		snap.LinkClicks += s.LinkClicks
	}
	if len(adsets) > 0 {
		var ctrSum float64
		for _, s := range adsets {
			ctrSum += s.CTR
		}
		snap.AvgCTR = ctrSum / float64(len(adsets))
	}
	return snap
}

func (t *Tracker) recordRun(runID string, at time.Time, rows int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.LastRunID = runID
	t.status.LastRunAt = at
	t.status.RowsCovered = rows
	if err != nil {
		t.status.LastError = err.Error()
	} else {
		t.status.LastError = ""
	}
}

// Status returns a copy of the tracker status.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// LatestAdsets returns the ad set summaries of the most recent run.
func (t *Tracker) LatestAdsets() []analytics.AdsetSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.adsets
}

// LatestDailies returns the daily summaries of the most recent run.
func (t *Tracker) LatestDailies() []analytics.DailySummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dailies
}

// LatestInsights returns the generated insights of the most recent run.
func (t *Tracker) LatestInsights() []analytics.Insight {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.insights
}

// LatestTrends returns the window comparison of the most recent run.
func (t *Tracker) LatestTrends() []analytics.TrendDelta {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trends
}

// LatestAlerts returns the alerts raised by the most recent run.
func (t *Tracker) LatestAlerts() []Alert {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alerts
}
