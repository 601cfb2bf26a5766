package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Meta     MetaConfig     `yaml:"meta"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Alerts   AlertConfig    `yaml:"alerts"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig holds the optional dashboard HTTP server configuration
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// MetaConfig holds Meta Marketing API credentials and rate-limit tuning
type MetaConfig struct {
	AppID          string `yaml:"app_id"`
	AppSecret      string `yaml:"app_secret"`
	AccessToken    string `yaml:"access_token"`
	AdAccountID    string `yaml:"ad_account_id"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	// Rate-limit handling: retries with base_wait * 2^attempt backoff,
	// plus a fixed delay between per-adset insight requests.
	MaxRetries          int `yaml:"max_retries"`
	BaseWaitSeconds     int `yaml:"base_wait_seconds"`
	RequestDelaySeconds int `yaml:"request_delay_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c MetaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BaseWait returns the initial rate-limit backoff as a duration
func (c MetaConfig) BaseWait() time.Duration {
	return time.Duration(c.BaseWaitSeconds) * time.Second
}

// RequestDelay returns the inter-request delay as a duration
func (c MetaConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds) * time.Second
}

// SheetsConfig holds Google Sheets API configuration. The service-account
// key is loaded from GOOGLE_SERVICE_ACCOUNT_KEY (JSON blob) if set,
// otherwise from the credentials file path.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsPath string `yaml:"credentials_path"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SheetsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TrackerConfig holds the collection pipeline configuration
type TrackerConfig struct {
	CampaignName string `yaml:"campaign_name"`
	WindowDays   int    `yaml:"window_days"`
}

// ScheduleConfig holds the recurring-trigger configuration
type ScheduleConfig struct {
	TickSeconds     int    `yaml:"tick_seconds"`
	RefreshHours    int    `yaml:"refresh_hours"`
	DailyReportAt   string `yaml:"daily_report_at"`   // "HH:MM", empty disables
	WeeklySummaryOn string `yaml:"weekly_summary_on"` // weekday name, empty disables
	WeeklySummaryAt string `yaml:"weekly_summary_at"` // "HH:MM"
}

// Tick returns the scheduler check interval as a duration
func (c ScheduleConfig) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// Refresh returns the campaign refresh interval as a duration
func (c ScheduleConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshHours) * time.Hour
}

// AlertConfig holds week-over-week alert thresholds, in percent
type AlertConfig struct {
	SpendIncreasePct    float64 `yaml:"spend_increase_pct"`
	CTRDeclinePct       float64 `yaml:"ctr_decline_pct"`
	LinkClickDeclinePct float64 `yaml:"link_click_decline_pct"`
}

// StorageConfig holds the daily snapshot directory
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// Load reads and parses the configuration file. A missing file is not an
// error: everything can come from environment variables instead.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Meta.BaseURL == "" {
		c.Meta.BaseURL = "https://graph.facebook.com/v19.0"
	}
	if c.Meta.TimeoutSeconds == 0 {
		c.Meta.TimeoutSeconds = 30
	}
	if c.Meta.MaxRetries == 0 {
		c.Meta.MaxRetries = 3
	}
	if c.Meta.BaseWaitSeconds == 0 {
		c.Meta.BaseWaitSeconds = 60
	}
	if c.Meta.RequestDelaySeconds == 0 {
		c.Meta.RequestDelaySeconds = 1
	}
	if c.Sheets.CredentialsPath == "" {
		c.Sheets.CredentialsPath = "credentials.json"
	}
	if c.Sheets.TimeoutSeconds == 0 {
		c.Sheets.TimeoutSeconds = 30
	}
	if c.Tracker.WindowDays == 0 {
		c.Tracker.WindowDays = 30
	}
	if c.Schedule.TickSeconds == 0 {
		c.Schedule.TickSeconds = 60
	}
	if c.Schedule.RefreshHours == 0 {
		c.Schedule.RefreshHours = 1
	}
	if c.Schedule.DailyReportAt == "" {
		c.Schedule.DailyReportAt = "09:00"
	}
	if c.Schedule.WeeklySummaryOn == "" {
		c.Schedule.WeeklySummaryOn = "Monday"
	}
	if c.Schedule.WeeklySummaryAt == "" {
		c.Schedule.WeeklySummaryAt = "10:00"
	}
	if c.Alerts.SpendIncreasePct == 0 {
		c.Alerts.SpendIncreasePct = 20
	}
	if c.Alerts.CTRDeclinePct == 0 {
		c.Alerts.CTRDeclinePct = -15
	}
	if c.Alerts.LinkClickDeclinePct == 0 {
		c.Alerts.LinkClickDeclinePct = -20
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "daily_data"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) first, so credentials can live in .env
// locally and in real env vars on CI.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("META_APP_ID"); v != "" {
		cfg.Meta.AppID = v
	}
	if v := os.Getenv("META_APP_SECRET"); v != "" {
		cfg.Meta.AppSecret = v
	}
	if v := os.Getenv("META_ACCESS_TOKEN"); v != "" {
		cfg.Meta.AccessToken = v
	}
	if v := os.Getenv("META_AD_ACCOUNT_ID"); v != "" {
		cfg.Meta.AdAccountID = v
	}
	if v := os.Getenv("META_BASE_URL"); v != "" {
		cfg.Meta.BaseURL = v
	}
	if v := os.Getenv("GOOGLE_SHEET_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_PATH"); v != "" {
		cfg.Sheets.CredentialsPath = v
	}
	if v := os.Getenv("TARGET_CAMPAIGN_NAME"); v != "" {
		cfg.Tracker.CampaignName = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	return cfg, nil
}
