// Package cmd provides the CLI commands for recgo.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/internal/config"
	promcollector "github.com/hupe1980/recgo/metrics/prometheus"
)

// globalOptions holds the persistent flags and the state derived from them.
type globalOptions struct {
	configPath    string
	data          string
	primaryKey    string
	indexed       []string
	format        string
	logLevel      string
	metricsAddr   string
	cacheCapacity int

	cfg       *config.Config
	logger    *recgo.Logger
	collector *promcollector.Collector
	server    *http.Server
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// NewRootCmd creates the root command for the recgo CLI.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "recgo",
		Short: "Query JSON datasets with an in-memory indexed record store",
		Long: `recgo loads a JSON or JSON Lines dataset into an indexed in-memory
store and runs filter, search, sort and pagination queries against it.

Datasets can be local files or objects in S3 (s3://bucket/key) and MinIO
(minio://bucket/key). Files ending in .zst or .lz4 are decompressed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return g.teardown(cmd.Context())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default: "+config.DefaultFile+" if present)")
	pf.StringVar(&g.data, "data", "", "Dataset path or s3://, minio:// location")
	pf.StringVar(&g.primaryKey, "pk", "", "Primary key field (default: id)")
	pf.StringSliceVar(&g.indexed, "index", nil, "Fields to index for equality filters")
	pf.StringVar(&g.format, "format", "", "Output format: json, table or auto")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&g.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")
	pf.IntVar(&g.cacheCapacity, "cache-capacity", 0, "Query cache capacity (0 disables the cache)")

	cmd.AddCommand(newQueryCmd(g))
	cmd.AddCommand(newStatsCmd(g))
	cmd.AddCommand(newSampleCmd(g))

	return cmd
}

// setup loads the configuration, applies flag overrides and starts the
// metrics endpoint if one is configured.
func (g *globalOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Dataset.Path = g.data
	}
	if flags.Changed("pk") {
		cfg.Dataset.PrimaryKey = g.primaryKey
	}
	if flags.Changed("index") {
		cfg.Dataset.IndexedFields = g.indexed
	}
	if flags.Changed("format") {
		cfg.Output.Format = g.format
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = g.metricsAddr
	}
	if flags.Changed("cache-capacity") {
		cfg.Cache.Capacity = g.cacheCapacity
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	g.cfg = cfg

	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	} else {
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}
	g.logger = recgo.NewLogger(handler)

	if cfg.Metrics.Addr != "" {
		if err := g.serveMetrics(cfg.Metrics.Addr); err != nil {
			return err
		}
		g.logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
	}
	return nil
}

func (g *globalOptions) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	g.collector = promcollector.NewCollector(reg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("metrics server", "error", err)
		}
	}()
	g.server = srv
	return nil
}

func (g *globalOptions) teardown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return g.server.Shutdown(ctx)
}
