package tracker

import (
	"github.com/adlens/meta-ads-monitor/internal/analytics"
	"github.com/adlens/meta-ads-monitor/internal/sheets"
)

func adsetTable(summaries []analytics.AdsetSummary) sheets.Table {
	table := sheets.Table{
		Header: []string{
			"Ad Set", "Days", "Spend", "Impressions", "Reach", "Reach Rate",
			"CTR", "CPM", "Link Clicks", "Cost per Link Click",
			"Landing Page Views", "Cost per Landing Page View", "Efficiency Score",
		},
	}
	for _, s := range summaries {
		table.Rows = append(table.Rows, []interface{}{
			s.AdsetName, s.Days, s.Spend, s.Impressions, s.Reach, s.ReachRate,
			s.CTR, s.CPM, s.LinkClicks, s.CostPerLinkClick,
			s.LandingPageViews, s.CostPerLandingPageView, s.EfficiencyScore,
		})
	}
	return table
}

func dailyTable(summaries []analytics.DailySummary) sheets.Table {
	table := sheets.Table{
		Header: []string{
			"Date", "Ad Sets", "Spend", "Impressions", "Reach",
			"CTR", "CPM", "Link Clicks", "Cost per Link Click", "Efficiency Score",
		},
	}
	for _, s := range summaries {
		table.Rows = append(table.Rows, []interface{}{
			s.Date, s.AdSets, s.Spend, s.Impressions, s.Reach,
			s.CTR, s.CPM, s.LinkClicks, s.CostPerLinkClick, s.EfficiencyScore,
		})
	}
	return table
}

// weeklyTable pairs the ad set standings with the week-over-week trend
// block underneath, separated by a blank-ish section row.
func weeklyTable(adsets []analytics.AdsetSummary, trends []analytics.TrendDelta) sheets.Table {
	table := sheets.Table{
		Header: []string{"Section", "Name", "Spend", "CTR", "Efficiency Score", "Change"},
	}
	for _, s := range adsets {
		table.Rows = append(table.Rows, []interface{}{
			"Ad Set", s.AdsetName, s.Spend, s.CTR, s.EfficiencyScore, "",
		})
	}
	for _, d := range trends {
		table.Rows = append(table.Rows, []interface{}{
			"Trend", d.Metric, "", "", "", d.ChangePct,
		})
	}
	return table
}
