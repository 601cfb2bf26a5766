// Package meta implements the Meta Marketing API (Graph API) client used to
// pull campaign, ad set and daily insight data for a single ad account.
package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/adlens/meta-ads-monitor/internal/config"
	"github.com/adlens/meta-ads-monitor/internal/metrics"
	"github.com/adlens/meta-ads-monitor/internal/pkg/logger"
)

// ErrCampaignNotFound is returned by ResolveCampaign when no campaign in the
// ad account matches the requested name.
var ErrCampaignNotFound = errors.New("campaign not found")

// Client is a Meta Graph API client scoped to one ad account.
//
// The Graph API signals rate limiting with HTTP 400 plus error code 17 in
// the body, not with 429, so the client carries its own retry loop keyed on
// the decoded error instead of the status line.
type Client struct {
	baseURL     string
	accessToken string
	adAccountID string
	httpClient  *http.Client

	maxRetries   int
	baseWait     time.Duration
	requestDelay time.Duration

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// NewClient creates a Graph API client from the Meta configuration section.
func NewClient(cfg config.MetaConfig) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		accessToken:  cfg.AccessToken,
		adAccountID:  cfg.AdAccountID,
		httpClient:   &http.Client{Timeout: cfg.Timeout()},
		maxRetries:   cfg.MaxRetries,
		baseWait:     cfg.BaseWait(),
		requestDelay: cfg.RequestDelay(),
		sleep:        time.Sleep,
	}
}

// doRequest performs one GET against the Graph API, retrying rate-limit
// errors with exponential backoff (baseWait * 2^attempt) up to maxRetries.
// Other API errors are returned as *APIError without retrying.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.accessToken)
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.baseWait * (1 << (attempt - 1))
			logger.Warn("meta: rate limited, backing off",
				"attempt", attempt, "max_retries", c.maxRetries, "wait", wait.String())
			metrics.APIRetries.Inc()
			c.sleep(wait)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.getJSON(ctx, endpoint, out)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() {
			lastErr = err
			continue
		}
		return err
	}

	return fmt.Errorf("meta: rate limit retries exhausted: %w", lastErr)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
			return envelope.Error
		}
		return fmt.Errorf("meta: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// ListCampaigns returns the campaigns in the configured ad account.
func (c *Client) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,objective")
	params.Set("limit", "200")

	var resp listResponse[Campaign]
	if err := c.doRequest(ctx, c.adAccountID+"/campaigns", params, &resp); err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	return resp.Data, nil
}

// ResolveCampaign finds a campaign by exact name. Returns
// ErrCampaignNotFound when no campaign matches.
func (c *Client) ResolveCampaign(ctx context.Context, name string) (*Campaign, error) {
	campaigns, err := c.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].Name == name {
			return &campaigns[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCampaignNotFound, name)
}

// ListAdSets returns the ad sets under the given campaign.
func (c *Client) ListAdSets(ctx context.Context, campaignID string) ([]AdSet, error) {
	params := url.Values{}
	params.Set("fields", "id,name,campaign_id,status")
	params.Set("limit", "200")

	var resp listResponse[AdSet]
	if err := c.doRequest(ctx, campaignID+"/adsets", params, &resp); err != nil {
		return nil, fmt.Errorf("listing ad sets for campaign %s: %w", campaignID, err)
	}
	return resp.Data, nil
}

// FetchInsights retrieves daily insight rows for every ad set, one request
// per ad set with a fixed delay in between to stay under the request limit.
// An ad set whose request or rows fail is logged and skipped so one bad ad
// set cannot sink the whole collection. Rows come back sorted by date, then
// ad set name.
func (c *Client) FetchInsights(ctx context.Context, adSets []AdSet, since, until time.Time) ([]PerformanceRow, error) {
	var rows []PerformanceRow

	for i, adSet := range adSets {
		if i > 0 && c.requestDelay > 0 {
			c.sleep(c.requestDelay)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		adSetRows, err := c.fetchAdSetInsights(ctx, adSet, since, until)
		if err != nil {
			logger.Error("meta: insights fetch failed, skipping ad set",
				"adset_id", adSet.ID, "adset_name", adSet.Name, "error", err.Error())
			continue
		}
		rows = append(rows, adSetRows...)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].AdsetName < rows[j].AdsetName
	})

	return rows, nil
}

func (c *Client) fetchAdSetInsights(ctx context.Context, adSet AdSet, since, until time.Time) ([]PerformanceRow, error) {
	params := url.Values{}
	params.Set("fields", "date_start,date_stop,campaign_id,campaign_name,adset_id,adset_name,impressions,reach,spend,ctr,cpm,actions")
	params.Set("time_increment", "1")
	params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`,
		since.Format("2006-01-02"), until.Format("2006-01-02")))
	params.Set("limit", "500")

	var resp listResponse[insightRow]
	if err := c.doRequest(ctx, adSet.ID+"/insights", params, &resp); err != nil {
		return nil, err
	}

	rows := make([]PerformanceRow, 0, len(resp.Data))
	for _, raw := range resp.Data {
		row, err := newPerformanceRow(raw)
		if err != nil {
			return nil, fmt.Errorf("ad set %s: %w", adSet.ID, err)
		}
		// Insights can omit names that the ad set listing already has.
		if row.AdsetName == "" {
			row.AdsetName = adSet.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}
