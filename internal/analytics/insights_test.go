package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendPercent(t *testing.T) {
	assert.Equal(t, 100.0, TrendPercent(50, 100))
	assert.Equal(t, -50.0, TrendPercent(100, 50))
	assert.Equal(t, 100.0, TrendPercent(0, 42))
	assert.Equal(t, 0.0, TrendPercent(0, 0))
	assert.Equal(t, 12.5, TrendPercent(80, 90))
}

func TestQuartileSize(t *testing.T) {
	assert.Equal(t, 1, quartileSize(1))
	assert.Equal(t, 1, quartileSize(2))
	assert.Equal(t, 1, quartileSize(4))
	assert.Equal(t, 2, quartileSize(5))
	assert.Equal(t, 2, quartileSize(8))
	assert.Equal(t, 3, quartileSize(9))
}

func TestCompareQuartiles(t *testing.T) {
	summaries := []AdsetSummary{
		{AdsetID: "a", EfficiencyScore: 10, CTR: 0.5},
		{AdsetID: "b", EfficiencyScore: 20, CTR: 0.8},
		{AdsetID: "c", EfficiencyScore: 30, CTR: 1.1},
		{AdsetID: "d", EfficiencyScore: 40, CTR: 1.6},
	}

	gaps, err := CompareQuartiles(summaries)
	require.NoError(t, err)

	var eff PerformanceGap
	for _, g := range gaps {
		if g.Metric == "efficiency_score" {
			eff = g
		}
	}
	// Quartile size ceil(4/4) = 1: top is d, bottom is a.
	assert.Equal(t, 1, eff.QuartileLen)
	assert.Equal(t, 40.0, eff.TopAvg)
	assert.Equal(t, 10.0, eff.BottomAvg)
	assert.Equal(t, 300.0, eff.GapPct)
	assert.Equal(t, 4, eff.SampleSize)
}

func TestCompareQuartilesInsufficientData(t *testing.T) {
	_, err := CompareQuartiles([]AdsetSummary{{AdsetID: "only"}})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCompareWindows(t *testing.T) {
	var dailies []DailySummary
	// 14 days: first week spends 100/day, second week 150/day.
	for d := 1; d <= 14; d++ {
		spend := 100.0
		if d > 7 {
			spend = 150.0
		}
		dailies = append(dailies, DailySummary{Date: day(d), Spend: spend})
	}

	deltas, err := CompareWindows(dailies)
	require.NoError(t, err)

	var spend TrendDelta
	for _, d := range deltas {
		if d.Metric == "spend" {
			spend = d
		}
	}
	assert.Equal(t, 150.0, spend.Recent)
	assert.Equal(t, 100.0, spend.Previous)
	assert.Equal(t, 50.0, spend.ChangePct)
}

func TestCompareWindowsShortHistory(t *testing.T) {
	var dailies []DailySummary
	// 10 days: baseline is the oldest 7, recent is the newest 7, overlapping.
	for d := 1; d <= 10; d++ {
		dailies = append(dailies, DailySummary{Date: day(d), Spend: float64(d * 10)})
	}

	deltas, err := CompareWindows(dailies)
	require.NoError(t, err)

	var spend TrendDelta
	for _, d := range deltas {
		if d.Metric == "spend" {
			spend = d
		}
	}
	// Recent = avg(40..100) = 70, previous = avg(10..70) = 40.
	assert.Equal(t, 70.0, spend.Recent)
	assert.Equal(t, 40.0, spend.Previous)
	assert.Equal(t, 75.0, spend.ChangePct)
}

func TestCompareWindowsInsufficientData(t *testing.T) {
	dailies := []DailySummary{{Date: day(1)}, {Date: day(2)}}
	_, err := CompareWindows(dailies)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestGenerateInsights(t *testing.T) {
	adsets := []AdsetSummary{
		{AdsetID: "a", AdsetName: "Lookalike", EfficiencyScore: 80, Spend: 500, CTR: 1.8},
		{AdsetID: "b", AdsetName: "Broad", EfficiencyScore: 20, Spend: 300, CTR: 0.4},
	}

	insights := GenerateInsights(adsets, nil)

	require.NotEmpty(t, insights)
	assert.Equal(t, "top_performer", insights[0].Kind)
	assert.Contains(t, insights[0].Message, "Lookalike")

	var hasGap bool
	for _, in := range insights {
		if in.Kind == "quartile_gap" {
			hasGap = true
			assert.Equal(t, "warning", in.Severity)
		}
	}
	assert.True(t, hasGap)
}

func TestGenerateInsightsEmpty(t *testing.T) {
	assert.Empty(t, GenerateInsights(nil, nil))
}
