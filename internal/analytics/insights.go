package analytics

import (
	"fmt"
	"math"
	"sort"
)

// Window length, in days, used by CompareWindows.
const trendWindowDays = 7

// TrendPercent returns the percent change from old to new, rounded to two
// decimals. A zero baseline yields +100 when the new value is positive and
// 0 otherwise, so a metric appearing from nothing reads as full growth
// instead of a division blowup.
func TrendPercent(old, new float64) float64 {
	if old == 0 {
		if new > 0 {
			return 100
		}
		return 0
	}
	return round2((new - old) / old * 100)
}

// quartileSize is the number of entries in a quartile: ceil(n/4), never
// less than 1.
func quartileSize(n int) int {
	q := int(math.Ceil(float64(n) / 4))
	if q < 1 {
		q = 1
	}
	return q
}

// CompareQuartiles ranks ad set summaries by efficiency score and reports
// the gap between the top and bottom quartiles for each key metric. Needs
// at least two summaries.
func CompareQuartiles(summaries []AdsetSummary) ([]PerformanceGap, error) {
	if len(summaries) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 ad sets, got %d", ErrInsufficientData, len(summaries))
	}

	ranked := make([]AdsetSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EfficiencyScore > ranked[j].EfficiencyScore
	})

	q := quartileSize(len(ranked))
	top := ranked[:q]
	bottom := ranked[len(ranked)-q:]

	gap := func(metric string, pick func(AdsetSummary) float64) PerformanceGap {
		topAvg := round2(avgOf(top, pick))
		bottomAvg := round2(avgOf(bottom, pick))
		return PerformanceGap{
			Metric:      metric,
			TopAvg:      topAvg,
			BottomAvg:   bottomAvg,
			GapPct:      TrendPercent(bottomAvg, topAvg),
			SampleSize:  len(ranked),
			QuartileLen: q,
		}
	}

	return []PerformanceGap{
		gap("efficiency_score", func(s AdsetSummary) float64 { return s.EfficiencyScore }),
		gap("ctr", func(s AdsetSummary) float64 { return s.CTR }),
		gap("cpm", func(s AdsetSummary) float64 { return s.CPM }),
		gap("cost_per_link_click", func(s AdsetSummary) float64 { return s.CostPerLinkClick }),
		gap("spend", func(s AdsetSummary) float64 { return s.Spend }),
	}, nil
}

func avgOf(summaries []AdsetSummary, pick func(AdsetSummary) float64) float64 {
	if len(summaries) == 0 {
		return 0
	}
	var sum float64
	for _, s := range summaries {
		sum += pick(s)
	}
	return sum / float64(len(summaries))
}

// CompareWindows compares the most recent 7 days against the 7 days before
// them. With fewer than 14 days the baseline is the oldest 7 days instead,
// and with fewer than 7 days there is nothing to compare. The input must be
// sorted oldest first, as AggregateByDate returns it.
func CompareWindows(dailies []DailySummary) ([]TrendDelta, error) {
	if len(dailies) < trendWindowDays {
		return nil, fmt.Errorf("%w: need at least %d days, got %d", ErrInsufficientData, trendWindowDays, len(dailies))
	}

	recent := dailies[len(dailies)-trendWindowDays:]
	var previous []DailySummary
	if len(dailies) >= 2*trendWindowDays {
		previous = dailies[len(dailies)-2*trendWindowDays : len(dailies)-trendWindowDays]
	} else {
		previous = dailies[:trendWindowDays]
	}

	delta := func(metric string, pick func(DailySummary) float64) TrendDelta {
		recentAvg := round2(avgDaily(recent, pick))
		previousAvg := round2(avgDaily(previous, pick))
		return TrendDelta{
			Metric:    metric,
			Recent:    recentAvg,
			Previous:  previousAvg,
			ChangePct: TrendPercent(previousAvg, recentAvg),
		}
	}

	return []TrendDelta{
		delta("spend", func(s DailySummary) float64 { return s.Spend }),
		delta("impressions", func(s DailySummary) float64 { return float64(s.Impressions) }),
		delta("ctr", func(s DailySummary) float64 { return s.CTR }),
		delta("cpm", func(s DailySummary) float64 { return s.CPM }),
		delta("link_clicks", func(s DailySummary) float64 { return s.LinkClicks }),
		delta("efficiency_score", func(s DailySummary) float64 { return s.EfficiencyScore }),
	}, nil
}

func avgDaily(summaries []DailySummary, pick func(DailySummary) float64) float64 {
	if len(summaries) == 0 {
		return 0
	}
	var sum float64
	for _, s := range summaries {
		sum += pick(s)
	}
	return sum / float64(len(summaries))
}

// GenerateInsights produces plain-language observations from the window
// aggregates. Comparisons that lack data are simply omitted.
func GenerateInsights(adsets []AdsetSummary, dailies []DailySummary) []Insight {
	var insights []Insight

	if len(adsets) > 0 {
		best := adsets[0]
		for _, s := range adsets[1:] {
			if s.EfficiencyScore > best.EfficiencyScore {
				best = s
			}
		}
		insights = append(insights, Insight{
			Kind:     "top_performer",
			Severity: "info",
			Message: fmt.Sprintf("%s leads with an efficiency score of %.2f ($%.2f spend, %.2f%% CTR)",
				best.AdsetName, best.EfficiencyScore, best.Spend, best.CTR),
		})
	}

	if gaps, err := CompareQuartiles(adsets); err == nil {
		for _, g := range gaps {
			if g.Metric != "efficiency_score" {
				continue
			}
			if g.GapPct >= 50 {
				insights = append(insights, Insight{
					Kind:     "quartile_gap",
					Severity: "warning",
					Message: fmt.Sprintf("top quartile ad sets score %.2f vs %.2f for the bottom quartile (%.0f%% gap), consider reallocating budget",
						g.TopAvg, g.BottomAvg, g.GapPct),
				})
			}
		}
	}

	if deltas, err := CompareWindows(dailies); err == nil {
		for _, d := range deltas {
			switch d.Metric {
			case "spend":
				if d.ChangePct >= 25 {
					insights = append(insights, Insight{
						Kind:     "trend",
						Severity: "warning",
						Message: fmt.Sprintf("daily spend is up %.1f%% week over week ($%.2f vs $%.2f)",
							d.ChangePct, d.Recent, d.Previous),
					})
				}
			case "ctr":
				if d.ChangePct <= -15 {
					insights = append(insights, Insight{
						Kind:     "trend",
						Severity: "warning",
						Message: fmt.Sprintf("CTR dropped %.1f%% week over week (%.2f%% vs %.2f%%)",
							-d.ChangePct, d.Recent, d.Previous),
					})
				}
			case "efficiency_score":
				if d.ChangePct >= 10 {
					insights = append(insights, Insight{
						Kind:     "trend",
						Severity: "info",
						Message: fmt.Sprintf("efficiency is trending up %.1f%% week over week",
							d.ChangePct),
					})
				}
			}
		}
	}

	return insights
}
