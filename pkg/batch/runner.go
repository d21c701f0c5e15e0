// Package batch partitions the dataset into row batches and fans them out
// across a fixed pool of workers, each owning one model bundle for its
// lifetime. Batch failures are isolated to a shared error log; the run
// always continues to completion.
package batch

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"smderive/pkg/dataset"
	"smderive/pkg/feature"
	"smderive/pkg/models"
)

// DeriveFunc computes one row's features. skip=true means the row produces
// no output by design; err aborts the whole batch.
type DeriveFunc func(ctx context.Context, rec feature.Record, bundle *models.Bundle) (row *feature.FeatureRecord, skip bool, err error)

// Runner orchestrates a full run.
type Runner struct {
	Workers    int // <=0 means NumCPU-1, minimum 1
	Loader     models.Loader
	Derive     DeriveFunc
	OutPrefix  string
	ErrLogPath string
	Verbose    bool
	Logger     *zap.Logger
}

// Summary reports what happened across all batches.
type Summary struct {
	RunID     string
	Batches   int
	Succeeded int
	Failed    int
}

// DefaultWorkers is available parallelism minus one, minimum one, leaving a
// core for the coordinating process.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Run processes every batch. Only setup failures (error log, worker model
// load) return an error; individual batch failures are logged and counted.
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset, startRow, batchSize int) (Summary, error) {
	runID := uuid.NewString()
	sum := Summary{RunID: runID}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", runID))

	ranges := Plan(ds.Len(), startRow, batchSize)
	sum.Batches = len(ranges)
	if len(ranges) == 0 {
		logger.Info("nothing to process", zap.Int("rows", ds.Len()), zap.Int("start_row", startRow))
		return sum, nil
	}

	errLog, err := openErrorLog(r.ErrLogPath)
	if err != nil {
		return sum, err
	}
	defer errLog.Close()

	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	logger.Info("dispatching batches",
		zap.Int("batches", len(ranges)),
		zap.Int("workers", workers),
		zap.Int("batch_size", batchSize))

	jobs := make(chan Range)
	type result struct {
		rng Range
		err error
	}
	results := make(chan result, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		worker := w
		g.Go(func() error {
			// one-time model load per worker, before any batch
			bundle, err := r.Loader(gctx)
			if err != nil {
				return fmt.Errorf("worker %d: load models: %w", worker, err)
			}
			if err := bundle.Validate(); err != nil {
				return fmt.Errorf("worker %d: %w", worker, err)
			}
			for rng := range jobs {
				err := r.processBatch(gctx, ds, rng, bundle, logger)
				select {
				case results <- result{rng, err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		defer close(jobs)
		for _, rng := range ranges {
			select {
			case jobs <- rng:
			case <-gctx.Done():
				return
			}
		}
	}()

	// results arrive in completion order, not submission order
	var collectWG sync.WaitGroup
	collectWG.Add(1)
	go func() {
		defer collectWG.Done()
		bar := progressbar.Default(int64(len(ranges)), "Processing batches")
		for res := range results {
			_ = bar.Add(1)
			if res.err == nil {
				sum.Succeeded++
				continue
			}
			sum.Failed++
			logger.Warn("batch failed",
				zap.String("rows", res.rng.String()),
				zap.Error(res.err))
			if lerr := errLog.Append(res.rng, res.err); lerr != nil {
				logger.Error("error log append failed", zap.Error(lerr))
			}
		}
	}()

	werr := g.Wait()
	close(results)
	collectWG.Wait()
	if werr != nil {
		return sum, werr
	}

	logger.Info("run complete",
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed))
	return sum, nil
}

// processBatch derives every row of the batch in order, then writes the
// output file. All rows are derived before anything is written, so a failed
// batch leaves no partial file.
func (r *Runner) processBatch(ctx context.Context, ds *dataset.Dataset, rng Range, bundle *models.Bundle, logger *zap.Logger) error {
	if r.Verbose {
		logger.Info("processing rows", zap.Int("start", rng.Start), zap.Int("end", rng.End))
	}

	rows := ds.Slice(rng.Start, rng.End+1)
	var derived []*feature.FeatureRecord
	for _, rec := range rows {
		row, skip, err := r.Derive(ctx, rec, bundle)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		derived = append(derived, row)
	}

	path := r.OutPrefix + rng.FileSuffix()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := feature.WriteCSV(f, derived); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
