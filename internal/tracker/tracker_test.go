package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/meta-ads-monitor/internal/config"
	"github.com/adlens/meta-ads-monitor/internal/meta"
	"github.com/adlens/meta-ads-monitor/internal/sheets"
	"github.com/adlens/meta-ads-monitor/internal/storage"
)

type mockSource struct {
	campaign    *meta.Campaign
	resolveErr  error
	adSets      []meta.AdSet
	listErr     error
	rows        []meta.PerformanceRow
	insightsErr error
	listCalls   int
}

func (m *mockSource) ResolveCampaign(ctx context.Context, name string) (*meta.Campaign, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.campaign, nil
}

func (m *mockSource) ListAdSets(ctx context.Context, campaignID string) ([]meta.AdSet, error) {
	m.listCalls++
	return m.adSets, m.listErr
}

func (m *mockSource) FetchInsights(ctx context.Context, adSets []meta.AdSet, since, until time.Time) ([]meta.PerformanceRow, error) {
	return m.rows, m.insightsErr
}

type mockPublisher struct {
	published map[string]sheets.Table
	failTabs  map[string]bool
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{published: map[string]sheets.Table{}, failTabs: map[string]bool{}}
}

func (m *mockPublisher) Publish(ctx context.Context, tab string, table sheets.Table, opts sheets.Options) error {
	if m.failTabs[tab] {
		return errors.New("publish failed")
	}
	m.published[tab] = table
	return nil
}

func sampleRows() []meta.PerformanceRow {
	d := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
	return []meta.PerformanceRow{
		{Date: d(1), AdsetID: "as1", AdsetName: "Big", Spend: 250, Impressions: 5000, CTR: 1.0, CPM: 50, LinkClicks: 50},
		{Date: d(2), AdsetID: "as1", AdsetName: "Big", Spend: 350, Impressions: 6000, CTR: 1.1, CPM: 58, LinkClicks: 66},
		{Date: d(1), AdsetID: "as2", AdsetName: "Small", Spend: 80, Impressions: 1000, CTR: 0.5, CPM: 80, LinkClicks: 5},
		{Date: d(2), AdsetID: "as2", AdsetName: "Small", Spend: 100, Impressions: 1200, CTR: 0.6, CPM: 83, LinkClicks: 7},
	}
}

func newTestTracker(t *testing.T, source *mockSource, publisher *mockPublisher) *Tracker {
	store, err := storage.NewSnapshotStore(t.TempDir())
	require.NoError(t, err)
	tr := New(source, publisher, store,
		config.TrackerConfig{CampaignName: "Spring Sale", WindowDays: 30},
		config.AlertConfig{SpendIncreasePct: 20, CTRDeclinePct: -15, LinkClickDeclinePct: -20})
	tr.now = func() time.Time { return time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC) }
	return tr
}

func TestInitializeResolvesCampaign(t *testing.T) {
	source := &mockSource{
		campaign: &meta.Campaign{ID: "c1", Name: "Spring Sale"},
		adSets:   []meta.AdSet{{ID: "as1"}, {ID: "as2"}},
	}
	tr := newTestTracker(t, source, newMockPublisher())

	require.NoError(t, tr.Initialize(context.Background()))

	status := tr.Status()
	assert.Equal(t, "c1", status.CampaignID)
	assert.Equal(t, 2, status.AdsetCount)
}

func TestInitializeCampaignNotFound(t *testing.T) {
	source := &mockSource{resolveErr: meta.ErrCampaignNotFound}
	tr := newTestTracker(t, source, newMockPublisher())

	err := tr.Initialize(context.Background())

	assert.ErrorIs(t, err, meta.ErrCampaignNotFound)
}

func TestCollectAndPublish(t *testing.T) {
	source := &mockSource{
		campaign: &meta.Campaign{ID: "c1", Name: "Spring Sale"},
		adSets:   []meta.AdSet{{ID: "as1"}, {ID: "as2"}},
		rows:     sampleRows(),
	}
	publisher := newMockPublisher()
	tr := newTestTracker(t, source, publisher)
	require.NoError(t, tr.Initialize(context.Background()))

	require.NoError(t, tr.CollectAndPublish(context.Background()))

	require.Contains(t, publisher.published, TabAdsetPerformance)
	require.Contains(t, publisher.published, TabDailyTrend)

	adsetTab := publisher.published[TabAdsetPerformance]
	require.Len(t, adsetTab.Rows, 2)
	// Highest spend first.
	assert.Equal(t, "Big", adsetTab.Rows[0][0])

	summaries := tr.LatestAdsets()
	require.Len(t, summaries, 2)
	assert.Equal(t, 600.0, summaries[0].Spend)

	dailies := tr.LatestDailies()
	require.Len(t, dailies, 2)
	assert.True(t, dailies[0].Date.Before(dailies[1].Date))

	status := tr.Status()
	assert.NotEmpty(t, status.LastRunID)
	assert.Equal(t, 4, status.RowsCovered)
	assert.Empty(t, status.LastError)
}

func TestCollectAndPublishEmptyWindow(t *testing.T) {
	source := &mockSource{
		campaign: &meta.Campaign{ID: "c1", Name: "Spring Sale"},
		adSets:   []meta.AdSet{{ID: "as1"}},
		rows:     nil,
	}
	publisher := newMockPublisher()
	tr := newTestTracker(t, source, publisher)
	require.NoError(t, tr.Initialize(context.Background()))

	require.NoError(t, tr.CollectAndPublish(context.Background()))

	assert.Empty(t, publisher.published)
	assert.Empty(t, tr.LatestAdsets())
}

func TestCollectAndPublishPartialFailure(t *testing.T) {
	source := &mockSource{
		campaign: &meta.Campaign{ID: "c1", Name: "Spring Sale"},
		adSets:   []meta.AdSet{{ID: "as1"}},
		rows:     sampleRows(),
	}
	publisher := newMockPublisher()
	publisher.failTabs[TabDailyTrend] = true
	tr := newTestTracker(t, source, publisher)
	require.NoError(t, tr.Initialize(context.Background()))

	// One failing tab does not fail the run.
	require.NoError(t, tr.CollectAndPublish(context.Background()))
	assert.Contains(t, publisher.published, TabAdsetPerformance)
	assert.NotContains(t, publisher.published, TabDailyTrend)
}

func TestCollectAndPublishFetchError(t *testing.T) {
	source := &mockSource{
		campaign:    &meta.Campaign{ID: "c1", Name: "Spring Sale"},
		adSets:      []meta.AdSet{{ID: "as1"}},
		insightsErr: errors.New("boom"),
	}
	tr := newTestTracker(t, source, newMockPublisher())
	require.NoError(t, tr.Initialize(context.Background()))

	err := tr.CollectAndPublish(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NotEmpty(t, tr.Status().LastError)
}

func TestCollectWithoutInitialize(t *testing.T) {
	tr := newTestTracker(t, &mockSource{}, newMockPublisher())
	assert.Error(t, tr.CollectAndPublish(context.Background()))
}

func TestRefreshAdSets(t *testing.T) {
	source := &mockSource{
		campaign: &meta.Campaign{ID: "c1", Name: "Spring Sale"},
		adSets:   []meta.AdSet{{ID: "as1"}},
	}
	tr := newTestTracker(t, source, newMockPublisher())
	require.NoError(t, tr.Initialize(context.Background()))

	source.adSets = []meta.AdSet{{ID: "as1"}, {ID: "as2"}, {ID: "as3"}}
	require.NoError(t, tr.RefreshAdSets(context.Background()))

	assert.Equal(t, 3, tr.Status().AdsetCount)
}

func TestPublishWeeklySummary(t *testing.T) {
	source := &mockSource{
		campaign: &meta.Campaign{ID: "c1", Name: "Spring Sale"},
		adSets:   []meta.AdSet{{ID: "as1"}},
		rows:     sampleRows(),
	}
	publisher := newMockPublisher()
	tr := newTestTracker(t, source, publisher)
	require.NoError(t, tr.Initialize(context.Background()))
	require.NoError(t, tr.CollectAndPublish(context.Background()))

	require.NoError(t, tr.PublishWeeklySummary(context.Background()))

	assert.Contains(t, publisher.published, "Weekly Summary 20240308")
}

func TestPublishWeeklySummaryWithoutData(t *testing.T) {
	publisher := newMockPublisher()
	tr := newTestTracker(t, &mockSource{}, publisher)

	require.NoError(t, tr.PublishWeeklySummary(context.Background()))
	assert.Empty(t, publisher.published)
}
