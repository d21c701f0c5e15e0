// Command smderive derives behavioral features from a CSV of social media
// profiles or posts. Rows are processed in fixed-size batches across a
// worker pool; each batch writes its own output CSV, and failed batches are
// recorded in a shared error log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"smderive/pkg/batch"
	"smderive/pkg/bias"
	"smderive/pkg/config"
	"smderive/pkg/dataset"
	"smderive/pkg/feature"
	"smderive/pkg/geocode"
	"smderive/pkg/grammar"
	"smderive/pkg/models"
	"smderive/pkg/names"
	"smderive/pkg/post"
	"smderive/pkg/profile"
	"smderive/pkg/textfeat"
)

var (
	flagInput     string
	flagType      string
	flagFilePath  string
	flagBatchSize int
	flagStartRow  int
	flagVerbose   bool
	flagNProc     int
	flagConfig    string

	logger *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "smderive",
		Short: "Derive behavioral features from social media profiles and posts",
		Long: `smderive reads a CSV of profile or post rows and derives behavioral
features for each row: text statistics, readability, model classifications,
name and location lookups, and media bias matches. Output is written as one
CSV per batch of rows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			zcfg.Encoding = "console"
			zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			if flagVerbose {
				zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			}
			var err error
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: run,
	}

	root.Flags().StringVar(&flagInput, "input", "", "path to the input CSV (required)")
	root.Flags().StringVar(&flagType, "type", "", "row type: profile or tweet (required)")
	root.Flags().StringVar(&flagFilePath, "file_path", "derived_features", "output file prefix")
	root.Flags().IntVar(&flagBatchSize, "batch_size", 10, "rows per batch")
	root.Flags().IntVar(&flagStartRow, "start_row", 0, "first row to process (0-based)")
	root.Flags().BoolVar(&flagVerbose, "verbose", false, "log each batch as it is picked up")
	root.Flags().IntVar(&flagNProc, "nproc", 0, "worker count (default: CPU count minus one)")
	root.Flags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	_ = root.MarkFlagRequired("input")
	_ = root.MarkFlagRequired("type")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "smderive:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rowType := strings.ToLower(flagType)
	if rowType != "profile" && rowType != "tweet" {
		return fmt.Errorf("--type must be profile or tweet, got %q", flagType)
	}
	if flagBatchSize <= 0 {
		return fmt.Errorf("--batch_size must be positive, got %d", flagBatchSize)
	}
	if flagStartRow < 0 {
		return fmt.Errorf("--start_row must not be negative, got %d", flagStartRow)
	}

	cfg := config.Default()
	if flagConfig != "" {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
	}

	ds, err := dataset.Load(flagInput)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded",
		zap.String("input", flagInput),
		zap.String("type", rowType),
		zap.Int("rows", ds.Len()))

	biasTable, err := bias.LoadTable(cfg.BiasTable)
	if err != nil {
		return err
	}
	logger.Debug("bias table loaded", zap.String("path", cfg.BiasTable), zap.Int("domains", biasTable.Len()))

	deps := textfeat.Deps{
		Bias:    biasTable,
		Grammar: grammar.NewHTTPChecker(cfg.Grammar.BaseURL, cfg.Grammar.Timeout.Std()),
	}

	derive, cleanup, err := buildDeriver(rowType, cfg, deps)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := &batch.Runner{
		Workers: flagNProc,
		Loader: models.HTTPLoader(models.HTTPConfig{
			BaseURL: cfg.Inference.BaseURL,
			Timeout: cfg.Inference.Timeout.Std(),
		}),
		Derive:     derive,
		OutPrefix:  flagFilePath,
		ErrLogPath: cfg.ErrorLog,
		Verbose:    flagVerbose,
		Logger:     logger,
	}

	sum, err := runner.Run(ctx, ds, flagStartRow, flagBatchSize)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		logger.Warn("some batches failed",
			zap.Int("failed", sum.Failed),
			zap.String("error_log", cfg.ErrorLog))
	}
	return nil
}

// buildDeriver wires the per-type deriver and returns a cleanup for any
// resources it holds open.
func buildDeriver(rowType string, cfg config.Config, deps textfeat.Deps) (batch.DeriveFunc, func(), error) {
	if rowType == "tweet" {
		d := &post.Deriver{TextDeps: deps}
		fn := func(ctx context.Context, rec feature.Record, bundle *models.Bundle) (*feature.FeatureRecord, bool, error) {
			out := d.Derive(ctx, rec, bundle)
			switch out.Kind {
			case post.Skipped:
				logger.Debug("row skipped",
					zap.Int("row", rec.Index),
					zap.String("reason", out.Reason))
				return nil, true, nil
			case post.Failed:
				return nil, false, out.Err
			}
			return out.Record, false, nil
		}
		return fn, func() {}, nil
	}

	store, err := names.Open(cfg.NamesDB)
	if err != nil {
		return nil, nil, err
	}
	d := &profile.Deriver{
		Names: store,
		Geocoder: geocode.New(geocode.Config{
			BaseURL:           cfg.Geocoder.BaseURL,
			UserAgent:         cfg.Geocoder.UserAgent,
			Timeout:           cfg.Geocoder.Timeout.Std(),
			MaxRetries:        cfg.Geocoder.MaxRetries,
			RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
		}),
		TextDeps: deps,
	}
	fn := func(ctx context.Context, rec feature.Record, bundle *models.Bundle) (*feature.FeatureRecord, bool, error) {
		row, err := d.Derive(ctx, rec, bundle)
		if err != nil {
			return nil, false, err
		}
		return row, false, nil
	}
	return fn, func() { _ = store.Close() }, nil
}
