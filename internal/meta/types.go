package meta

import (
	"fmt"
	"strconv"
	"time"
)

// Campaign represents a campaign visible to the configured ad account
type Campaign struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
	Objective string `json:"objective,omitempty"`
}

// AdSet represents an ad set under a campaign
type AdSet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status,omitempty"`
}

// Action is one entry of an insight row's actions breakdown.
// The Graph API delivers action values as strings.
type Action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// Action types reduced into PerformanceRow fields.
const (
	actionLinkClick       = "link_click"
	actionLandingPageView = "landing_page_view"
)

// insightRow is the raw wire shape of one daily insight entry. All numeric
// fields arrive as strings and are parsed strictly at the boundary.
type insightRow struct {
	DateStart    string   `json:"date_start"`
	DateStop     string   `json:"date_stop"`
	CampaignID   string   `json:"campaign_id"`
	CampaignName string   `json:"campaign_name"`
	AdsetID      string   `json:"adset_id"`
	AdsetName    string   `json:"adset_name"`
	Impressions  string   `json:"impressions"`
	Reach        string   `json:"reach"`
	Spend        string   `json:"spend"`
	CTR          string   `json:"ctr"`
	CPM          string   `json:"cpm"`
	Actions      []Action `json:"actions"`
}

// PerformanceRow is one (ad set, day) performance record. The derived
// fields are zero until analytics.ComputeDerivedMetrics fills them in.
type PerformanceRow struct {
	Date         time.Time `json:"date"`
	CampaignID   string    `json:"campaign_id"`
	CampaignName string    `json:"campaign_name"`
	AdsetID      string    `json:"adset_id"`
	AdsetName    string    `json:"adset_name"`

	Impressions      int64   `json:"impressions"`
	Reach            int64   `json:"reach"`
	Spend            float64 `json:"spend"`
	CTR              float64 `json:"ctr"` // percent, 0-100 as delivered by the API
	CPM              float64 `json:"cpm"`
	LinkClicks       float64 `json:"link_clicks"`
	LandingPageViews float64 `json:"landing_page_views"`

	// Derived metrics, computed over the fetched batch
	CostPerLinkClick       float64 `json:"cost_per_link_click"`
	CostPerLandingPageView float64 `json:"cost_per_landing_page_view"`
	ReachRate              float64 `json:"reach_rate"`
	EfficiencyScore        float64 `json:"efficiency_score"`
}

// newPerformanceRow converts a wire row into a typed row, rejecting rows
// without the identity fields and failing on malformed numerics instead of
// silently producing sparse records.
func newPerformanceRow(raw insightRow) (PerformanceRow, error) {
	var row PerformanceRow

	if raw.DateStart == "" {
		return row, fmt.Errorf("insight row missing date_start")
	}
	if raw.AdsetID == "" {
		return row, fmt.Errorf("insight row missing adset_id")
	}

	date, err := time.Parse("2006-01-02", raw.DateStart)
	if err != nil {
		return row, fmt.Errorf("parsing date_start %q: %w", raw.DateStart, err)
	}

	impressions, err := parseInt(raw.Impressions)
	if err != nil {
		return row, fmt.Errorf("parsing impressions: %w", err)
	}
	reach, err := parseInt(raw.Reach)
	if err != nil {
		return row, fmt.Errorf("parsing reach: %w", err)
	}
	spend, err := parseFloat(raw.Spend)
	if err != nil {
		return row, fmt.Errorf("parsing spend: %w", err)
	}
	ctr, err := parseFloat(raw.CTR)
	if err != nil {
		return row, fmt.Errorf("parsing ctr: %w", err)
	}
	cpm, err := parseFloat(raw.CPM)
	if err != nil {
		return row, fmt.Errorf("parsing cpm: %w", err)
	}

	var linkClicks, landingPageViews float64
	for _, action := range raw.Actions {
		value, err := parseFloat(action.Value)
		if err != nil {
			return row, fmt.Errorf("parsing action %s value: %w", action.ActionType, err)
		}
		switch action.ActionType {
		case actionLinkClick:
			linkClicks += value
		case actionLandingPageView:
			landingPageViews += value
		}
	}

	return PerformanceRow{
		Date:             date,
		CampaignID:       raw.CampaignID,
		CampaignName:     raw.CampaignName,
		AdsetID:          raw.AdsetID,
		AdsetName:        raw.AdsetName,
		Impressions:      impressions,
		Reach:            reach,
		Spend:            spend,
		CTR:              ctr,
		CPM:              cpm,
		LinkClicks:       linkClicks,
		LandingPageViews: landingPageViews,
	}, nil
}

// parseInt parses a Graph API integer-as-string, treating "" as 0.
func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseFloat parses a Graph API number-as-string, treating "" as 0.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// listResponse is the common paged envelope of Graph API list calls.
type listResponse[T any] struct {
	Data   []T `json:"data"`
	Paging struct {
		Cursors struct {
			Before string `json:"before"`
			After  string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

// APIError is a structured Graph API error. Code 17 means the per-user
// request limit was hit; that is the only code the client retries.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error (code %d): %s", e.Code, e.Message)
}

const codeUserRequestLimit = 17

// RateLimited reports whether the error is the provider's rate-limit signal.
func (e *APIError) RateLimited() bool {
	return e.Code == codeUserRequestLimit
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}
