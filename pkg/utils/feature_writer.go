/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: feature_writer.go
Description: Utility for writing extracted feature records to CSV and batch run
summaries to the metrics directory. The CSV carries a leading path column
followed by every schema column in declaration order; null values are written
as empty cells.
*/

package utils

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

// FeatureWriter streams feature records into a CSV file
type FeatureWriter struct {
	file    *os.File
	writer  *csv.Writer
	columns []string
	rows    int
}

// NewFeatureWriter creates the output CSV and writes the header row
func NewFeatureWriter(path string, columns []string) (*FeatureWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	w := &FeatureWriter{
		file:    file,
		writer:  csv.NewWriter(file),
		columns: columns,
	}

	header := append([]string{"path"}, columns...)
	if err := w.writer.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return w, nil
}

// WriteRecord writes one feature record under the given relative path
func (w *FeatureWriter) WriteRecord(relPath string, record *interfaces.Record) error {
	row := make([]string, 0, len(w.columns)+1)
	row = append(row, filepath.ToSlash(relPath))
	for _, name := range w.columns {
		v, _ := record.Get(name)
		row = append(row, FormatValue(v))
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row for %s: %w", relPath, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written so far
func (w *FeatureWriter) Rows() int { return w.rows }

// Close flushes and closes the CSV file
func (w *FeatureWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return w.file.Close()
}

// FormatValue renders a feature value as a CSV cell. Null is an empty cell.
func FormatValue(v interfaces.FeatureValue) string {
	switch v.Kind {
	case interfaces.KindBool:
		return strconv.FormatBool(v.Bool)
	case interfaces.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case interfaces.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case interfaces.KindString:
		return v.Str
	default:
		return ""
	}
}

// RunSummary captures the outcome of one batch extraction run
type RunSummary struct {
	SessionID string    `json:"session_id"`
	InputDir  string    `json:"input_dir"`
	OutputCSV string    `json:"output_csv"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

// WriteRunSummary writes a run summary to the metrics directory with a
// timestamped filename
func WriteRunSummary(outputDir string, summary *RunSummary) (string, error) {
	metricsDir := filepath.Join(outputDir, "metrics")
	if err := os.MkdirAll(metricsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create metrics directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_extract_%s.json", timestamp, summary.SessionID)
	filePath := filepath.Join(metricsDir, filename)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run summary: %w", err)
	}
	return filePath, nil
}
