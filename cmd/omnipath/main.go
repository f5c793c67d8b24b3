// Package main is the omnipath command line client: it downloads tables from
// the OmniPath web service and manages the local cache and configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/omnipath-client/internal/config"
	"github.com/omnipath-client/internal/logging"
	"github.com/omnipath-client/internal/metrics"
	"github.com/omnipath-client/pkg/downloader"
	"github.com/omnipath-client/pkg/omnipath"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "omnipath",
	Short: "Query the OmniPath web service",
	Long: `omnipath downloads interactions, enzyme-substrate relationships, complexes,
annotations and intercellular roles from the OmniPath web service.

Responses are cached, so repeating a query does not hit the network. The
cache, the server URL and its mirrors are set in omnipath.yaml or through
OMNIPATH_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./omnipath.yaml or ~/.config/omnipath/omnipath.yaml)")
	flags.String("url", "", "server URL")
	flags.String("cache", "", "cache selector: memory, none, a directory, sqlite://, redis:// or postgres:// URL")
	flags.String("license", "", "license: academic, commercial, non_profit, for_profit or ignore")
	flags.String("log-level", "", "log level: debug, info, warn or error")
}

// flagOverrides maps persistent flags onto configuration keys
var flagOverrides = map[string]string{
	"url":       "url",
	"cache":     "cache",
	"license":   "license",
	"log-level": "logging.level",
}

// session bundles what every command needs
type session struct {
	manager *config.Manager
	client  *omnipath.Client
	log     *logrus.Logger
	metrics *metrics.Collector
	reg     *prometheus.Registry
}

func (s *session) Close() {
	if err := s.client.Close(); err != nil {
		s.log.WithError(err).Warn("Failed to close cache")
	}
}

// loadManager reads the configuration and applies the command line overrides
func loadManager(cmd *cobra.Command) (*config.Manager, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	m, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	for flag, key := range flagOverrides {
		value, _ := cmd.Flags().GetString(flag)
		if value == "" {
			continue
		}
		if err := m.Override(key, value); err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", flag, err)
		}
	}
	return m, nil
}

func newSession(cmd *cobra.Command) (*session, error) {
	m, err := loadManager(cmd)
	if err != nil {
		return nil, err
	}

	opts := m.Options()
	logger := logging.New(opts.Logging, os.Stderr)
	if path := m.ConfigFileUsed(); path != "" {
		logger.WithField("config", path).Debug("Using config file")
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	client, err := omnipath.NewClient(cmd.Context(), opts,
		omnipath.WithLogger(logger),
		omnipath.WithDownloaderOptions(downloader.WithMetrics(collector)),
	)
	if err != nil {
		return nil, err
	}

	return &session{
		manager: m,
		client:  client,
		log:     logger,
		metrics: collector,
		reg:     reg,
	}, nil
}

// printMetrics writes the non-zero counters gathered during the command
func (s *session) printMetrics() {
	families, err := s.reg.Gather()
	if err != nil {
		s.log.WithError(err).Warn("Failed to gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			fmt.Fprintf(os.Stderr, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "Interrupted, cancelling downloads...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
