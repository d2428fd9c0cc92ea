/**
 * netsentryd Entry Point.
 *
 * Wires config, resolvers, storage, the scan scheduler, the static-scan
 * orchestrator, and the HTTP API into a running daemon. The "serve"
 * subcommand is the normal mode of operation; "scan" runs one static
 * scan immediately and prints the report to stdout. Grounded on
 * folbricht-routedns/cmd/routedns/main.go's cobra command shape and
 * signal-driven graceful shutdown, combined with
 * KleaSCM-netscope/cmd/netscope/main.go's store-init-then-migrate
 * bootstrap sequencing.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/netsentry/netsentry/internal/analyzer"
	"github.com/netsentry/netsentry/internal/api"
	"github.com/netsentry/netsentry/internal/blacklist"
	"github.com/netsentry/netsentry/internal/capture"
	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/resolver"
	"github.com/netsentry/netsentry/internal/scheduler"
	"github.com/netsentry/netsentry/internal/staticscan"
	"github.com/netsentry/netsentry/internal/staticscan/probes"
	"github.com/netsentry/netsentry/internal/storage"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "netsentryd",
		Short: "LAN security observability daemon",
		Long: `netsentryd captures LAN traffic, annotates it with GeoIP,
reverse-DNS, device, and traffic-anomaly findings, and serves the
results over HTTP and WebSocket. It also runs on-demand static scans
of the local network.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to netsentry config file")

	root.AddCommand(serveCmd(&configPath), scanCmd(&configPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dynamic-scan scheduler and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath)
		},
	}
}

func scanCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one static scan and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnceStaticScan(*configPath)
		},
	}
}

type deps struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *storage.Store
	blacklist *resolver.BlacklistSet
	geoip     *resolver.GeoIPResolver
	dns       *resolver.DNSResolver
	vendor    *resolver.VendorResolver
	updater   *blacklist.Updater
}

func bootstrap(configPath string) (*deps, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("netsentryd: build logger: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("netsentryd: load config: %w", err)
	}

	store, err := storage.Open(cfg.Paths.SQLitePath, 0, log)
	if err != nil {
		return nil, fmt.Errorf("netsentryd: open store: %w", err)
	}

	return &deps{
		cfg:       cfg,
		log:       log,
		store:     store,
		blacklist: resolver.NewBlacklistSet(cfg.Paths.DomainBlacklist),
		geoip:     resolver.NewGeoIPResolver(cfg.Paths.GeoIPDatabasePath, "https://ipapi.co/%s/json/", log),
		dns:       resolver.NewDNSResolver(2*time.Second, time.Hour),
		vendor:    resolver.NewVendorResolver(cfg.Paths.OUITablePath, "", log),
		updater:   blacklist.NewUpdater(log),
	}, nil
}

func (d *deps) newAnalyzer(approvedOverride map[string]struct{}) *analyzer.Analyzer {
	approved := approvedOverride
	if approved == nil {
		approved = config.LoadApprovedMacs(d.cfg.Paths.ApprovedDevices)
	}
	dangerousCC := config.LoadDangerousCountries(d.cfg.Paths.DangerousCountries)

	return analyzer.New(d.store, analyzer.Config{
		GeoIP:        d.geoip,
		DNS:          d.dns,
		Blacklist:    d.blacklist,
		DangerousCC:  dangerousCC,
		ApprovedMacs: approved,
		Schedule:     analyzer.Schedule{Start: d.cfg.BusinessHours.Start, End: d.cfg.BusinessHours.End},
		Thresholds: analyzer.Thresholds{
			ContinuousGap:       time.Duration(d.cfg.Thresholds.ContinuousGapSeconds) * time.Second,
			ContinuousDuration:  time.Duration(d.cfg.Thresholds.ContinuousDurationSeconds) * time.Second,
			SpikeThresholdBytes: d.cfg.Thresholds.SpikeThresholdBytes,
		},
	}, d.log)
}

func (d *deps) newSource(interfaceName string, duration time.Duration) (scheduler.Source, error) {
	cfg := &capture.Config{
		Interface:   interfaceName,
		SnapLen:     d.cfg.Capture.SnapLen,
		Promiscuous: d.cfg.Capture.Promiscuous,
		BPFFilter:   d.cfg.Capture.BPFFilter,
		Duration:    duration,
	}
	if cfg.SnapLen <= 0 {
		cfg.SnapLen = capture.DefaultConfig(interfaceName).SnapLen
	}
	return capture.NewSource(cfg, d.log)
}

func serve(configPath string) error {
	d, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer d.store.Close()
	defer d.log.Sync()
	defer d.geoip.Close()

	sched := scheduler.New(scheduler.Config{
		NewSource:         d.newSource,
		NewAnalyzer:       d.newAnalyzer,
		Updater:           d.updater,
		BlacklistURL:      d.cfg.Blacklist.FeedURL,
		BlacklistPath:     d.cfg.Paths.DomainBlacklist,
		BlacklistInterval: time.Duration(d.cfg.Blacklist.UpdateIntervalHours) * time.Hour,
		ScanInterval:      time.Duration(d.cfg.Scheduler.ScanIntervalSeconds) * time.Second,
		DefaultInterface:  d.cfg.Capture.Interface,
		DefaultDuration:   d.cfg.Capture.Duration,
	}, d.log)

	orch := staticscan.New(probes.Registry(), 0)

	srv := api.New(api.Config{
		Store:        d.store,
		Scheduler:    sched,
		Orchestrator: orch,
		Token:        d.cfg.API.Token,
	}, d.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Run(ctx)

	httpServer := &http.Server{Addr: d.cfg.API.ListenAddress, Handler: srv.Router()}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.log.Error("netsentryd: http server stopped", zap.Error(err))
		}
	}()
	d.log.Info("netsentryd: serving", zap.String("address", d.cfg.API.ListenAddress))

	<-ctx.Done()
	d.log.Info("netsentryd: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	sched.StopJobs()
	sched.Stop()

	return nil
}

func runOnceStaticScan(configPath string) error {
	log, _ := zap.NewDevelopment()

	orch := staticscan.New(probes.Registry(), 0)
	report := orch.Run(context.Background())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("netsentryd: encode report", zap.Error(err))
		return err
	}
	return nil
}
