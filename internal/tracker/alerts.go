package tracker

import (
	"fmt"

	"github.com/adlens/meta-ads-monitor/internal/analytics"
	"github.com/adlens/meta-ads-monitor/internal/config"
	"github.com/adlens/meta-ads-monitor/internal/storage"
)

// Alert flags a week-over-week movement beyond a configured threshold.
type Alert struct {
	Metric    string  `json:"metric"`
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	ChangePct float64 `json:"change_pct"`
	Message   string  `json:"message"`
}

// CheckAlerts compares today's snapshot against the one from a week ago.
// A nil previous snapshot means there is no history yet and no alerts.
func CheckAlerts(current storage.CampaignSnapshot, previous *storage.CampaignSnapshot, cfg config.AlertConfig) []Alert {
	if previous == nil {
		return nil
	}

	var alerts []Alert

	if change := analytics.TrendPercent(previous.TotalSpend, current.TotalSpend); change >= cfg.SpendIncreasePct {
		alerts = append(alerts, Alert{
			Metric: "spend", Current: current.TotalSpend, Previous: previous.TotalSpend, ChangePct: change,
			Message: fmt.Sprintf("spend is up %.1f%% vs 7 days ago ($%.2f vs $%.2f)",
				change, current.TotalSpend, previous.TotalSpend),
		})
	}

	if change := analytics.TrendPercent(previous.AvgCTR, current.AvgCTR); change <= cfg.CTRDeclinePct {
		alerts = append(alerts, Alert{
			Metric: "ctr", Current: current.AvgCTR, Previous: previous.AvgCTR, ChangePct: change,
			Message: fmt.Sprintf("average CTR is down %.1f%% vs 7 days ago (%.2f%% vs %.2f%%)",
				-change, current.AvgCTR, previous.AvgCTR),
		})
	}

	if change := analytics.TrendPercent(previous.LinkClicks, current.LinkClicks); change <= cfg.LinkClickDeclinePct {
		alerts = append(alerts, Alert{
			Metric: "link_clicks", Current: current.LinkClicks, Previous: previous.LinkClicks, ChangePct: change,
			Message: fmt.Sprintf("link clicks are down %.1f%% vs 7 days ago (%.0f vs %.0f)",
				-change, current.LinkClicks, previous.LinkClicks),
		})
	}

	return alerts
}
