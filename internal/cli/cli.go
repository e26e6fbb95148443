// Package cli builds the dungeonfinderd command tree: run starts the core
// against a catalog and an admin HTTP surface, catalog validate loads a
// catalog without starting anything, and status queries a running
// instance's admin surface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stonehall/dungeonfinder/internal/adminhttp"
	"github.com/stonehall/dungeonfinder/internal/catalog"
	"github.com/stonehall/dungeonfinder/internal/config"
	"github.com/stonehall/dungeonfinder/internal/core"
	"github.com/stonehall/dungeonfinder/internal/eligibility"
	"github.com/stonehall/dungeonfinder/internal/memhost"
	"github.com/stonehall/dungeonfinder/internal/metrics"
)

var configFile string

// tickInterval is how often the running core's bounded timers advance.
const tickInterval = time.Second

// BuildCLI assembles the root command and its subcommands.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dungeonfinderd",
		Short: "Dungeon-Finder matchmaking core",
		Long: `dungeonfinderd runs the Dungeon-Finder matchmaking core:
- bounded-timeout role checks
- an activity-bucketed queue scheduler
- an admin/metrics HTTP surface`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildCatalogCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func loadCatalog(cfg config.Config, log *slog.Logger) (*catalog.Catalog, func() error, error) {
	sqliteSrc, err := catalog.OpenSQLiteSource(cfg.Catalog.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite catalog store: %w", err)
	}
	if err := sqliteSrc.EnsureSchema(); err != nil {
		sqliteSrc.Close()
		return nil, nil, fmt.Errorf("ensure sqlite catalog schema: %w", err)
	}

	staticSrc, err := catalog.LoadStaticSource(cfg.Catalog.ActivitiesPath)
	if err != nil {
		sqliteSrc.Close()
		return nil, nil, fmt.Errorf("load static activity source: %w", err)
	}

	cat, err := catalog.Load(sqliteSrc, sqliteSrc, staticSrc, staticSrc, memhost.AllowAllPolicy{}, nil, log)
	if err != nil {
		sqliteSrc.Close()
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, sqliteSrc.Close, nil
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the Dungeon-Finder core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystem()
		},
	}
	return cmd
}

func runSystem() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cat, closeCatalog, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}
	defer closeCatalog()

	evaluator := &eligibility.Evaluator{
		Catalog:   cat,
		MapPolicy: memhost.AllowAllPolicy{},
		Access:    memhost.AllowAllPolicy{},
	}

	store := memhost.NewStore()
	collector := metrics.NewCollector()

	logSink := core.NewLogSink(log)
	dispatcher := core.NewDispatcher(logSink, 256, log)
	dispatcher.Start()
	defer dispatcher.Stop()

	now := func() int64 { return time.Now().Unix() }
	sink := core.NewMetricsSink(dispatcher, collector, now)

	mgr := core.New(core.Config{
		Catalog:      cat,
		Eligibility:  evaluator,
		Players:      store,
		Groups:       store,
		Sink:         sink,
		MaxGroupSize: cfg.Queue.MaxGroupSize,
		Now:          now,
		Log:          log,
	})

	shutdown := make(chan struct{})
	go tickLoop(mgr, shutdown)

	var lastDropped int64
	go statsLoop(mgr, collector, dispatcher, &lastDropped, shutdown)

	if cfg.Admin.Enabled {
		router := adminhttp.NewRouter(mgr)
		server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: router}
		go func() {
			log.Info("admin surface listening", "port", cfg.Admin.Port)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("admin surface stopped", "error", err)
			}
		}()
		defer server.Close()
	}

	log.Info("dungeonfinderd started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutdown signal received, stopping")
	close(shutdown)
	return nil
}

func tickLoop(mgr *core.Manager, shutdown <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mgr.Tick(tickInterval.Milliseconds())
		case <-shutdown:
			return
		}
	}
}

func statsLoop(mgr *core.Manager, collector *metrics.Collector, dispatcher *core.Dispatcher, lastDropped *int64, shutdown <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			stats := mgr.Stats()
			collector.SetQueueDepth(stats.QueuedEntries)
			dropped := dispatcher.Dropped()
			for ; *lastDropped < dropped; *lastDropped++ {
				collector.RecordNotificationDropped()
			}
		case <-shutdown:
			return
		}
	}
}

func buildCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Catalog maintenance commands",
	}
	cmd.AddCommand(buildCatalogValidateCommand())
	return cmd
}

func buildCatalogValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the catalog and report how many activities resolved",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateCatalog(cmd.OutOrStdout())
		},
	}
	return cmd
}

func validateCatalog(out io.Writer) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat, closeCatalog, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}
	defer closeCatalog()

	ids := cat.AllIDs()
	fmt.Fprintf(out, "catalog OK: %d activities loaded\n", len(ids))
	return nil
}

func buildStatusCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running instance's admin surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(cmd.OutOrStdout(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8090", "admin surface base address")
	return cmd
}

func showStatus(out io.Writer, addr string) error {
	resp, err := http.Get(addr + "/status")
	if err != nil {
		return fmt.Errorf("query admin surface: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("admin surface returned %s", resp.Status)
	}

	var status map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode status response: %w", err)
	}

	fmt.Fprintln(out, "Dungeon-Finder status:")
	fmt.Fprintf(out, "  active requests:     %d\n", status["active_requests"])
	fmt.Fprintf(out, "  active tickets:      %d\n", status["active_tickets"])
	fmt.Fprintf(out, "  queued entries:      %d\n", status["queued_entries"])
	fmt.Fprintf(out, "  active role checks:  %d\n", status["active_role_checks"])
	return nil
}
