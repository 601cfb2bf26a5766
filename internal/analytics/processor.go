// Package analytics turns raw per-adset daily rows into derived metrics,
// window aggregates and plain-language insights.
package analytics

import (
	"math"
	"sort"

	"github.com/adlens/meta-ads-monitor/internal/meta"
)

// Efficiency score weights. CTR rewards engagement, the inverted cost
// components reward cheap delivery and cheap clicks.
const (
	weightCTR = 0.4
	weightCPM = 0.3
	weightCPC = 0.3
)

// ComputeDerivedMetrics fills in the derived fields of every row, scoring
// each row against the 95th percentile of its own batch. The input slice is
// not modified.
func ComputeDerivedMetrics(rows []meta.PerformanceRow) []meta.PerformanceRow {
	out := make([]meta.PerformanceRow, len(rows))
	copy(out, rows)

	stats := collectBatchStats(out)
	for i := range out {
		applyDerived(&out[i], stats)
	}
	return out
}

func applyDerived(r *meta.PerformanceRow, stats batchStats) {
	r.CostPerLinkClick = round2(safeDiv(r.Spend, r.LinkClicks))
	r.CostPerLandingPageView = round2(safeDiv(r.Spend, r.LandingPageViews))
	r.ReachRate = round2(safeDiv(float64(r.Reach), float64(r.Impressions)) * 100)
	r.EfficiencyScore = efficiencyScore(rowMetrics(*r), stats)
}

// collectBatchStats computes the p95 reference values for CTR, CPM and
// cost per link click across the batch.
func collectBatchStats(rows []meta.PerformanceRow) batchStats {
	metrics := make([]metricRow, len(rows))
	for i, r := range rows {
		metrics[i] = rowMetrics(r)
	}
	return summaryBatchStats(metrics)
}

// efficiencyScore blends normalized CTR with inverted normalized costs into
// a 0-100 score. Each component is clipped to [0, 1] before weighting.
func efficiencyScore(m metricRow, stats batchStats) float64 {
	normCTR := clip01(safeDiv(m.ctr, stats.p95CTR))

	var normCPM float64
	if m.cpm > 0 && stats.p95CPM > 0 {
		normCPM = clip01(1 - m.cpm/stats.p95CPM)
	}

	var normCPC float64
	cpc := safeDiv(m.spend, m.linkClicks)
	if cpc > 0 && stats.p95CPC > 0 {
		normCPC = clip01(1 - cpc/stats.p95CPC)
	}

	return round2((weightCTR*normCTR + weightCPM*normCPM + weightCPC*normCPC) * 100)
}

// AggregateByAdset groups rows by (ad set id, name), summing the volume
// metrics and averaging the rate metrics over the window. The cost and
// efficiency metrics are then re-derived on the aggregated row rather than
// averaged, so a cheap high-volume day cannot distort them. Sorted by
// spend, highest first.
func AggregateByAdset(rows []meta.PerformanceRow) []AdsetSummary {
	grouped := make(map[string]*AdsetSummary)
	var order []string

	for _, r := range rows {
		key := r.AdsetID + "\x00" + r.AdsetName
		s, ok := grouped[key]
		if !ok {
			s = &AdsetSummary{AdsetID: r.AdsetID, AdsetName: r.AdsetName}
			grouped[key] = s
			order = append(order, key)
		}
		s.Days++
		s.Impressions += r.Impressions
		s.Reach += r.Reach
		s.Spend += r.Spend
		s.LinkClicks += r.LinkClicks
		s.LandingPageViews += r.LandingPageViews
		s.CTR += r.CTR
		s.CPM += r.CPM
	}

	summaries := make([]AdsetSummary, 0, len(order))
	for _, key := range order {
		s := grouped[key]
		s.Spend = round2(s.Spend)
		s.CTR = round2(safeDiv(s.CTR, float64(s.Days)))
		s.CPM = round2(safeDiv(s.CPM, float64(s.Days)))
		summaries = append(summaries, *s)
	}

	stats := summaryBatchStats(summariesAsMetrics(summaries))
	for i := range summaries {
		s := &summaries[i]
		s.CostPerLinkClick = round2(safeDiv(s.Spend, s.LinkClicks))
		s.CostPerLandingPageView = round2(safeDiv(s.Spend, s.LandingPageViews))
		s.ReachRate = round2(safeDiv(float64(s.Reach), float64(s.Impressions)) * 100)
		s.EfficiencyScore = efficiencyScore(metricRow{
			impressions: s.Impressions,
			spend:       s.Spend,
			ctr:         s.CTR,
			cpm:         s.CPM,
			linkClicks:  s.LinkClicks,
		}, stats)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Spend > summaries[j].Spend
	})
	return summaries
}

// AggregateByDate groups rows by calendar day with the same sum/mean rule
// as AggregateByAdset, sorted oldest first.
func AggregateByDate(rows []meta.PerformanceRow) []DailySummary {
	grouped := make(map[string]*DailySummary)
	var order []string

	for _, r := range rows {
		key := r.Date.Format("2006-01-02")
		s, ok := grouped[key]
		if !ok {
			s = &DailySummary{Date: r.Date}
			grouped[key] = s
			order = append(order, key)
		}
		s.AdSets++
		s.Impressions += r.Impressions
		s.Reach += r.Reach
		s.Spend += r.Spend
		s.LinkClicks += r.LinkClicks
		s.LandingPageViews += r.LandingPageViews
		s.CTR += r.CTR
		s.CPM += r.CPM
	}

	summaries := make([]DailySummary, 0, len(order))
	for _, key := range order {
		s := grouped[key]
		s.Spend = round2(s.Spend)
		s.CTR = round2(safeDiv(s.CTR, float64(s.AdSets)))
		s.CPM = round2(safeDiv(s.CPM, float64(s.AdSets)))
		summaries = append(summaries, *s)
	}

	stats := summaryBatchStats(dailiesAsMetrics(summaries))
	for i := range summaries {
		s := &summaries[i]
		s.CostPerLinkClick = round2(safeDiv(s.Spend, s.LinkClicks))
		s.CostPerLandingPageView = round2(safeDiv(s.Spend, s.LandingPageViews))
		s.ReachRate = round2(safeDiv(float64(s.Reach), float64(s.Impressions)) * 100)
		s.EfficiencyScore = efficiencyScore(metricRow{
			impressions: s.Impressions,
			spend:       s.Spend,
			ctr:         s.CTR,
			cpm:         s.CPM,
			linkClicks:  s.LinkClicks,
		}, stats)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Date.Before(summaries[j].Date)
	})
	return summaries
}

func summariesAsMetrics(summaries []AdsetSummary) []metricRow {
	out := make([]metricRow, len(summaries))
	for i, s := range summaries {
		out[i] = metricRow{spend: s.Spend, ctr: s.CTR, cpm: s.CPM, linkClicks: s.LinkClicks}
	}
	return out
}

func dailiesAsMetrics(summaries []DailySummary) []metricRow {
	out := make([]metricRow, len(summaries))
	for i, s := range summaries {
		out[i] = metricRow{spend: s.Spend, ctr: s.CTR, cpm: s.CPM, linkClicks: s.LinkClicks}
	}
	return out
}

// summaryBatchStats computes the p95 reference values over the batch.
// Zero-valued entries are excluded from each percentile so untracked rows
// do not drag the baseline to zero.
func summaryBatchStats(rows []metricRow) batchStats {
	var ctrs, cpms, cpcs []float64
	for _, r := range rows {
		if r.ctr > 0 {
			ctrs = append(ctrs, r.ctr)
		}
		if r.cpm > 0 {
			cpms = append(cpms, r.cpm)
		}
		if cpc := safeDiv(r.spend, r.linkClicks); cpc > 0 {
			cpcs = append(cpcs, cpc)
		}
	}
	return batchStats{
		p95CTR: percentile(ctrs, 95),
		p95CPM: percentile(cpms, 95),
		p95CPC: percentile(cpcs, 95),
	}
}

// percentile computes the p-th percentile with linear interpolation between
// the two nearest ranks. Returns 0 for an empty input.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// safeDiv divides and maps division by zero and non-finite results to 0.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
