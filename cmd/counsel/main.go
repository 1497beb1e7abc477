package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/counsel/internal/api"
	"github.com/matheus3301/counsel/internal/chat"
	"github.com/matheus3301/counsel/internal/config"
	"github.com/matheus3301/counsel/internal/logging"
	"github.com/matheus3301/counsel/internal/metrics"
	"github.com/matheus3301/counsel/internal/profile"
	"github.com/matheus3301/counsel/internal/tui"
	"github.com/matheus3301/counsel/internal/tui/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	metricsFlag := flag.String("metrics-listen", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9465)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateClient(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Client.Token == "" || cfg.Client.UserID == "" {
		fmt.Fprintf(os.Stderr, "error: not signed in; run counselctl login <user>\n")
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs only go to the file.
	logger, err := logging.New(profile.LogPath(profileName, "counsel"), profileName, "counsel",
		logging.Options{Debug: *debugFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	client := api.New(cfg.Client.BaseURL, cfg.Client.RequestTimeout.Duration, logger.Named("api"))
	cred := chat.Credential{Token: cfg.Client.Token, UserID: cfg.Client.UserID}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var exporter *metrics.Exporter
	if *metricsFlag != "" {
		exporter, err = metrics.NewExporter(*metricsFlag, reg, logger.Named("metrics"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		exporter.Start()
	}

	vm := model.NewViewModel(client, cred, chat.SessionOptions{
		Interval: cfg.Client.PollInterval.Duration,
		Metrics:  metrics.NewChat(reg),
	}, logger)

	app := tui.NewApp(vm, tui.Options{
		Profile:         profileName,
		RefreshInterval: cfg.Client.PollInterval.Duration,
		Logger:          logger.Named("tui"),
	})
	logger.Info("counsel started", zap.String("base_url", cfg.Client.BaseURL), zap.String("user", cred.UserID))
	err = app.Run()
	if exporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		exporter.Stop(ctx)
		cancel()
	}
	if err != nil {
		logger.Error("tui exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
