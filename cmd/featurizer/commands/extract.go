/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extract.go
Description: Extract command implementation for the Akaylee Featurizer. Walks a
directory recursively, runs the full extraction pipeline over every file with a
pool of parallel workers, and writes one CSV row per file plus a JSON run
summary. Per-file failures are isolated; schema mismatches abort the run.
*/

package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/akaylee-featurizer/pkg/features"
	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
	"github.com/kleascm/akaylee-featurizer/pkg/utils"
)

// RunExtract executes the batch feature extraction
func RunExtract(cmd *cobra.Command, args []string) error {
	fmt.Println("🌸 Akaylee Featurizer - Starting Extraction Session")
	fmt.Println("===================================================")
	fmt.Println()

	// Load configuration first
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logging
	if err := SetupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	inputDir := viper.GetString("input_dir")
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("input directory not found: %s", inputDir)
	}
	outputDir := viper.GetString("output_dir")

	// Load the feature schema
	schema, err := features.LoadSchema(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("failed to load feature schema: %w", err)
	}
	if len(schema.Columns) == 0 {
		return fmt.Errorf("feature schema declares no columns")
	}

	workers := viper.GetInt("workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sessionID := uuid.New().String()
	startedAt := time.Now()

	Log().WithFields(logrus.Fields{
		"session_id": sessionID,
		"input_dir":  inputDir,
		"output_dir": outputDir,
		"columns":    len(schema.Columns),
		"workers":    workers,
	}).Info("Extraction session starting")

	// Collect the file list up front so output rows keep walk order
	var paths []string
	err = filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			Log().WithFields(logrus.Fields{
				"path":  path,
				"error": walkErr.Error(),
			}).Warning("Skipping unreadable path")
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk input directory: %w", err)
	}

	ctx := features.NewExtractContext(schema, SnifferConfigFromViper(), Log())

	results, failed, err := extractAll(ctx, paths, workers)
	if err != nil {
		return err
	}

	// Write the CSV in walk order
	outCSV := filepath.Join(outputDir, "features.csv")
	writer, err := utils.NewFeatureWriter(outCSV, schema.Names())
	if err != nil {
		return err
	}
	for idx, record := range results {
		if record == nil {
			continue
		}
		rel, relErr := filepath.Rel(inputDir, paths[idx])
		if relErr != nil {
			rel = paths[idx]
		}
		if err := writer.WriteRecord(rel, record); err != nil {
			writer.Close()
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	elapsed := time.Since(startedAt)
	summary := &utils.RunSummary{
		SessionID: sessionID,
		InputDir:  inputDir,
		OutputCSV: outCSV,
		Processed: writer.Rows(),
		Failed:    int(failed),
		StartedAt: startedAt,
		Duration:  elapsed.String(),
	}
	if _, err := utils.WriteRunSummary(outputDir, summary); err != nil {
		Log().WithField("error", err.Error()).Warning("Failed to write run summary")
	}

	appLogger.LogBatchStats(summary.Processed, summary.Failed, elapsed)
	Log().WithFields(logrus.Fields{
		"session_id": sessionID,
		"processed":  summary.Processed,
		"failed":     summary.Failed,
		"elapsed":    elapsed,
	}).Info("Extraction session complete")

	fmt.Printf("\n✅ Wrote %d rows to %s (%d files skipped)\n", summary.Processed, outCSV, summary.Failed)
	return nil
}

// fileExtractor runs the full per-file pipeline. Satisfied by
// features.ExtractContext.
type fileExtractor interface {
	Extract(path string) (*interfaces.Record, error)
}

// extractAll fans paths out to a pool of workers; results land in their slot
// so the CSV preserves the walk order. Ordinary per-file failures are counted
// and skipped. A schema mismatch closes done, which stops the dispatcher and
// makes workers drop already-queued paths, so the run aborts without touching
// the remaining files.
func extractAll(ex fileExtractor, paths []string, workers int) ([]*interfaces.Record, int64, error) {
	results := make([]*interfaces.Record, len(paths))
	jobs := make(chan int)
	done := make(chan struct{})
	var closeDone sync.Once
	var failed int64
	var mismatchMu sync.Mutex
	var mismatchErr error

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-done:
					continue
				default:
				}
				record, exErr := ex.Extract(paths[idx])
				if exErr != nil {
					var mismatch *features.SchemaMismatchError
					if errors.As(exErr, &mismatch) {
						// Configuration-level failure, abort the whole run
						mismatchMu.Lock()
						if mismatchErr == nil {
							mismatchErr = exErr
						}
						mismatchMu.Unlock()
						closeDone.Do(func() { close(done) })
						continue
					}
					atomic.AddInt64(&failed, 1)
					if appLogger != nil {
						appLogger.LogFileFailed(paths[idx], exErr)
					}
					continue
				}
				results[idx] = record
			}
		}()
	}

dispatch:
	for idx := range paths {
		select {
		case jobs <- idx:
		case <-done:
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if mismatchErr != nil {
		return nil, failed, mismatchErr
	}
	return results, failed, nil
}
