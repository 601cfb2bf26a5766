package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adlens/meta-ads-monitor/internal/api"
	"github.com/adlens/meta-ads-monitor/internal/config"
	"github.com/adlens/meta-ads-monitor/internal/meta"
	"github.com/adlens/meta-ads-monitor/internal/pkg/logger"
	"github.com/adlens/meta-ads-monitor/internal/sheets"
	"github.com/adlens/meta-ads-monitor/internal/storage"
	"github.com/adlens/meta-ads-monitor/internal/tracker"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command>

Commands:
  once      run a single collect-and-publish cycle and exit
  schedule  run the scheduler (immediate run, then recurring triggers)
  status    print the resolved campaign and ad sets and exit

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	command := flag.Arg(0)

	if *debug {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("loading configuration failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("shutdown complete")
			return
		}
		logger.Error("command failed", "command", command, "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config.Config) error {
	source := meta.NewClient(cfg.Meta)

	switch command {
	case "status":
		return printStatus(ctx, source, cfg)
	case "once", "schedule":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	sheetsClient, err := sheets.NewClient(ctx, cfg.Sheets)
	if err != nil {
		return fmt.Errorf("creating sheets client: %w", err)
	}
	publisher := sheets.NewPublisher(sheetsClient)

	store, err := storage.NewSnapshotStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("creating snapshot store: %w", err)
	}

	t := tracker.New(source, publisher, store, cfg.Tracker, cfg.Alerts)
	if err := t.Initialize(ctx); err != nil {
		return err
	}

	if command == "once" {
		return t.CollectAndPublish(ctx)
	}

	if cfg.Server.Enabled {
		server := api.NewServer(cfg.Server, t)
		go func() {
			logger.Info("dashboard listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("dashboard server failed", "error", err.Error())
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("dashboard shutdown failed", "error", err.Error())
			}
		}()
	}

	return tracker.NewScheduler(t, cfg.Schedule).Run(ctx)
}

func printStatus(ctx context.Context, source *meta.Client, cfg *config.Config) error {
	campaign, err := source.ResolveCampaign(ctx, cfg.Tracker.CampaignName)
	if err != nil {
		return err
	}
	adSets, err := source.ListAdSets(ctx, campaign.ID)
	if err != nil {
		return err
	}

	out := struct {
		Campaign *meta.Campaign `json:"campaign"`
		AdSets   []meta.AdSet   `json:"ad_sets"`
	}{campaign, adSets}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
