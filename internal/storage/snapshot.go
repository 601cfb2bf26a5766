// Package storage persists daily campaign snapshots as JSON files so that
// later runs can compute week-over-week comparisons and alerts.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adlens/meta-ads-monitor/internal/analytics"
)

// CampaignSnapshot is the state captured at the end of a collection run.
type CampaignSnapshot struct {
	CapturedAt   time.Time                `json:"captured_at"`
	CampaignID   string                   `json:"campaign_id"`
	CampaignName string                   `json:"campaign_name"`
	AdsetCount   int                      `json:"adset_count"`
	TotalSpend   float64                  `json:"total_spend"`
	AvgCTR       float64                  `json:"avg_ctr"`
	LinkClicks   float64                  `json:"link_clicks"`
	Adsets       []analytics.AdsetSummary `json:"adsets"`
}

// SnapshotStore reads and writes one snapshot file per calendar day, named
// performance_YYYYMMDD.json under the data directory.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates the store, making the data directory if needed.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return &SnapshotStore{dir: dir}, nil
}

func (s *SnapshotStore) pathFor(date time.Time) string {
	return filepath.Join(s.dir, "performance_"+date.Format("20060102")+".json")
}

// Save writes the snapshot for its captured-at date, replacing any earlier
// snapshot from the same day.
func (s *SnapshotStore) Save(snap CampaignSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	path := s.pathFor(snap.CapturedAt)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for the given date, or (nil, nil) when no
// snapshot exists for that day. Missing history is normal, not an error.
func (s *SnapshotStore) Load(date time.Time) (*CampaignSnapshot, error) {
	data, err := os.ReadFile(s.pathFor(date))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap CampaignSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", s.pathFor(date), err)
	}
	return &snap, nil
}

// LoadDaysAgo returns the snapshot from n days before the reference date,
// or (nil, nil) when none exists.
func (s *SnapshotStore) LoadDaysAgo(ref time.Time, n int) (*CampaignSnapshot, error) {
	return s.Load(ref.AddDate(0, 0, -n))
}

// LoadRecent returns the snapshots of the n days up to and including the
// reference date, oldest first, skipping missing days.
func (s *SnapshotStore) LoadRecent(ref time.Time, n int) ([]CampaignSnapshot, error) {
	var snaps []CampaignSnapshot
	for i := n - 1; i >= 0; i-- {
		snap, err := s.Load(ref.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		if snap != nil {
			snaps = append(snaps, *snap)
		}
	}
	return snaps, nil
}
