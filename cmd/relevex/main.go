package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex"
	"github.com/kailas-cloud/relevex/internal/config"
	logpkg "github.com/kailas-cloud/relevex/internal/logger"
	"github.com/kailas-cloud/relevex/internal/metrics"
	"github.com/kailas-cloud/relevex/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "relevex",
		Short:        "Query understanding and relevance ranking for product search",
		Version:      version.String(),
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("relevex version {{.Version}}\n")
	cmd.AddCommand(newServeCmd(), newExplainCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the search HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting relevex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("index_addrs", cfg.Index.Addresses),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	client, err := relevex.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		logger.Warn("Index not reachable at startup", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      client.Handler(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// clientOptions maps file configuration onto client options.
func clientOptions(cfg config.Config, logger *zap.Logger) []relevex.Option {
	opts := []relevex.Option{
		relevex.WithLogger(logger),
		relevex.WithElasticsearch(cfg.Index.Addresses...),
		relevex.WithElasticsearchAuth(cfg.Index.Username, cfg.Index.Password),
		relevex.WithIndexName(cfg.Index.Products),
		relevex.WithRequestTimeout(time.Duration(cfg.Index.RequestTimeoutSec) * time.Second),
		relevex.WithRedis(cfg.Database.Addrs, cfg.Database.Password),
		relevex.WithPreferences(cfg.Preferences.KeyPrefix, cfg.Preferences.CacheSize,
			time.Duration(cfg.Preferences.CacheTTLSec)*time.Second),
		relevex.WithDefaultProfile(cfg.Scoring.DefaultProfile),
		relevex.WithDefaultLimit(cfg.Pagination.DefaultLimit),
		relevex.WithIntentThreshold(cfg.NLP.IntentThreshold),
		relevex.WithExperiments(experiments(cfg.Experiments)...),
	}
	if cfg.NLP.RefreshDictionary {
		opts = append(opts, relevex.WithDictionaryRefresh(cfg.NLP.DictionarySize))
	}
	if cfg.NLP.QueryExpansion {
		opts = append(opts, relevex.WithQueryExpansion(cfg.NLP.MaxSynonymsPerTerm, cfg.NLP.MaxExpansionTerms))
	}
	if cfg.Analytics.Enabled {
		opts = append(opts, relevex.WithAnalytics(cfg.Analytics.Stream, cfg.Analytics.PoolSize, cfg.Analytics.MaxLength))
	}
	return opts
}

func experiments(in []config.ExperimentConfig) []relevex.Experiment {
	out := make([]relevex.Experiment, len(in))
	for i, e := range in {
		variants := make([]relevex.Variant, len(e.Variants))
		for j, v := range e.Variants {
			variants[j] = relevex.Variant{ID: v.ID, Algorithm: v.Algorithm, Weight: v.Weight, Params: v.Params}
		}
		out[i] = relevex.Experiment{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Active:      e.Active,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			EventName:   e.EventName,
			Variants:    variants,
		}
	}
	return out
}

func newExplainCmd() *cobra.Command {
	var (
		opts   relevex.SearchOptions
		expand bool
	)

	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Show how a query is understood and the index request it produces",
		Long: `Explain runs query understanding offline: tokens, entities, intent,
synonym expansions, applied filters and the Elasticsearch request body. It needs no index or
Redis connection.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Query = strings.Join(args, " ")

			var clientOpts []relevex.Option
			if expand {
				clientOpts = append(clientOpts, relevex.WithQueryExpansion(0, 0))
			}
			client, err := relevex.New(clientOpts...)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			defer client.Close()

			ex, err := client.Explain(cmd.Context(), opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ex)
		},
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "Scoring profile (standard, popularity, preference, hybrid)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Page size")
	cmd.Flags().StringVar(&opts.UserID, "user", "", "User id for personalization")
	cmd.Flags().StringVar(&opts.SortBy, "sort", "", "Sort field (price, rating, createdAt, popularity, reviewCount, name)")
	cmd.Flags().StringVar(&opts.SortOrder, "order", "", "Sort order (asc, desc)")
	cmd.Flags().BoolVar(&expand, "expand", false, "Add catalog synonyms to the query")
	return cmd
}
