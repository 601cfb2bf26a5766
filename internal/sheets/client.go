// Package sheets publishes tabular reports to a Google Sheets spreadsheet
// through the Sheets v4 REST API, authenticated with a service account.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/adlens/meta-ads-monitor/internal/config"
	"github.com/adlens/meta-ads-monitor/internal/pkg/httpretry"
)

const (
	defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	scope          = "https://www.googleapis.com/auth/spreadsheets"
)

// Client is a thin Sheets v4 REST client scoped to one spreadsheet.
type Client struct {
	baseURL       string
	spreadsheetID string
	httpClient    httpretry.HTTPDoer
}

// NewClient builds an authenticated client. The service-account key is read
// from the GOOGLE_SERVICE_ACCOUNT_KEY environment variable when set (the
// raw JSON blob), otherwise from the configured credentials file.
func NewClient(ctx context.Context, cfg config.SheetsConfig) (*Client, error) {
	keyJSON, err := loadServiceAccountKey(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}

	jwtConf, err := google.JWTConfigFromJSON(keyJSON, scope)
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}

	authed := jwtConf.Client(ctx)
	authed.Timeout = cfg.Timeout()
	if authed.Timeout == 0 {
		authed.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:       defaultBaseURL,
		spreadsheetID: cfg.SpreadsheetID,
		httpClient:    httpretry.NewRetryClient(authed, 3),
	}, nil
}

func loadServiceAccountKey(path string) ([]byte, error) {
	if blob := os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY"); blob != "" {
		return []byte(blob), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file %s: %w", path, err)
	}
	return data, nil
}

// newClientWithDoer wires a client against an arbitrary doer and base URL.
// Used by tests to point at a fake Sheets server.
func newClientWithDoer(baseURL, spreadsheetID string, doer httpretry.HTTPDoer) *Client {
	return &Client{baseURL: baseURL, spreadsheetID: spreadsheetID, httpClient: doer}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sheets api %s %s: status %d: %s", method, path, resp.StatusCode, truncate(respBody, 300))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// getSpreadsheet fetches the tab list of the spreadsheet.
func (c *Client) getSpreadsheet(ctx context.Context) (*spreadsheet, error) {
	var ss spreadsheet
	path := fmt.Sprintf("/%s?fields=sheets.properties", c.spreadsheetID)
	if err := c.do(ctx, http.MethodGet, path, nil, &ss); err != nil {
		return nil, err
	}
	return &ss, nil
}

// sheetIDByTitle returns the numeric sheet ID of the named tab, creating
// the tab when it does not exist yet.
func (c *Client) sheetIDByTitle(ctx context.Context, title string) (int64, error) {
	ss, err := c.getSpreadsheet(ctx)
	if err != nil {
		return 0, err
	}
	for _, s := range ss.Sheets {
		if s.Properties.Title == title {
			return s.Properties.SheetID, nil
		}
	}
	return c.addSheet(ctx, title)
}

func (c *Client) addSheet(ctx context.Context, title string) (int64, error) {
	req := batchUpdateRequest{Requests: []request{
		{AddSheet: &addSheetRequest{Properties: sheetProperties{Title: title}}},
	}}

	var resp batchUpdateResponse
	if err := c.do(ctx, http.MethodPost, "/"+c.spreadsheetID+":batchUpdate", req, &resp); err != nil {
		return 0, fmt.Errorf("adding sheet %q: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("adding sheet %q: empty reply", title)
	}
	return resp.Replies[0].AddSheet.Properties.SheetID, nil
}

// clearValues wipes all values in the named tab.
func (c *Client) clearValues(ctx context.Context, title string) error {
	path := fmt.Sprintf("/%s/values/%s:clear", c.spreadsheetID, url.PathEscape(title))
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

// updateValues writes the values starting at A1 of the named tab.
func (c *Client) updateValues(ctx context.Context, title string, values [][]interface{}) (int, error) {
	path := fmt.Sprintf("/%s/values/%s?valueInputOption=RAW", c.spreadsheetID, url.PathEscape(title+"!A1"))
	var resp updateValuesResponse
	if err := c.do(ctx, http.MethodPut, path, valueRange{Values: values}, &resp); err != nil {
		return 0, err
	}
	return resp.UpdatedCells, nil
}

// batchUpdate applies formatting requests against the spreadsheet.
func (c *Client) batchUpdate(ctx context.Context, requests []request) error {
	if len(requests) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/"+c.spreadsheetID+":batchUpdate", batchUpdateRequest{Requests: requests}, nil)
}
