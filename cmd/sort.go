// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/secsort/config"
	"github.com/cardinalhq/secsort/internal/compositekey"
	"github.com/cardinalhq/secsort/internal/csvinput"
	"github.com/cardinalhq/secsort/internal/handlers"
	"github.com/cardinalhq/secsort/internal/idgen"
	"github.com/cardinalhq/secsort/internal/logctx"
	"github.com/cardinalhq/secsort/internal/output"
	"github.com/cardinalhq/secsort/internal/shuffle"
)

const (
	formatText    = "text"
	formatParquet = "parquet"
)

// sortJob is one run of the sort command.
type sortJob struct {
	Job      config.JobConfig
	Handlers config.HandlersConfig
	Format   string
}

// sortResult summarizes a finished job.
type sortResult struct {
	JobID   string
	Rows    int64
	Spilled int
	Stats   map[int]output.PartitionStats
}

func init() {
	var (
		inputPath  string
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Secondary sort a group,sort,value CSV file",
		Long: `Reads "group,sort,value" lines, partitions them by group key, sorts each
partition by (group, sort) and writes every group in order.`,
		RunE: func(c *cobra.Command, _ []string) error {
			doneCtx, doneFx, err := setupTelemetry("secsort-sort")
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				if err := doneFx(); err != nil {
					slog.Error("Error shutting down telemetry", slog.Any("error", err))
				}
			}()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			job := sortJob{Job: cfg.Job, Handlers: cfg.Handlers, Format: format}
			if err := applySortFlags(c, &job); err != nil {
				return err
			}

			in, err := openInput(inputPath)
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := createOutput(outputPath)
			if err != nil {
				return err
			}

			_, err = runSortJob(doneCtx, job, in, out)
			if closeErr := out.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close output: %w", closeErr)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "-", "Input CSV file, - for stdin")
	flags.StringVarP(&outputPath, "output", "o", "-", "Output file, - for stdout")
	flags.StringVar(&format, "format", formatText, "Output format: text or parquet")
	addJobFlags(cmd)

	rootCmd.AddCommand(cmd)
}

// addJobFlags defines the flags that override job configuration.
func addJobFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("order", "", "Sort order within a group: natural or reverse")
	flags.Int("partitions", 0, "Number of partitions")
	flags.String("group-type", "", "Group key type")
	flags.String("sort-type", "", "Sort key type")
	flags.Int("spill-threshold", 0, "Records buffered per partition before spilling")
	flags.Int("workers", 0, "Partitions reduced concurrently")
	flags.Int("batch-size", 0, "Records read per batch when merging runs")
	flags.String("temp-dir", "", "Directory for spill files")
	flags.String("skip", "", "Comma separated output handlers to skip")
}

// applySortFlags overrides configuration with flags the user actually set.
func applySortFlags(c *cobra.Command, job *sortJob) error {
	flags := c.Flags()
	var errs []error
	stringFlag := func(name string, dst *string) {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	intFlag := func(name string, dst *int) {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	stringFlag("order", &job.Job.Order)
	stringFlag("group-type", &job.Job.GroupType)
	stringFlag("sort-type", &job.Job.SortType)
	stringFlag("temp-dir", &job.Job.TempDir)
	stringFlag("skip", &job.Handlers.Skip)
	intFlag("partitions", &job.Job.NumPartitions)
	intFlag("spill-threshold", &job.Job.SpillThreshold)
	intFlag("workers", &job.Job.Workers)
	intFlag("batch-size", &job.Job.BatchSize)
	return errors.Join(errs...)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func createOutput(path string) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, nil
}

// newSinks builds the output sinks for format, plus the summary sink.
func newSinks(format string, w io.Writer, binding *compositekey.Binding) ([]output.Sink, *output.SummarySink, error) {
	summary := output.NewSummarySink()
	switch format {
	case formatText:
		return []output.Sink{summary, output.NewTextSink(w, binding)}, summary, nil
	case formatParquet:
		return []output.Sink{summary, output.NewParquetSink(w, binding)}, summary, nil
	default:
		return nil, nil, compositekey.ConfigurationError{Reason: fmt.Sprintf("unknown output format %q", format)}
	}
}

// runSortJob reads every record from in, shuffles them and writes the
// reduced groups to out.
func runSortJob(ctx context.Context, job sortJob, in io.Reader, out io.Writer) (result sortResult, err error) {
	result.JobID = idgen.NewJobID()
	ctx = logctx.WithAttrs(ctx, slog.String("jobID", result.JobID))
	ll := logctx.FromContext(ctx)
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		attrs := metric.WithAttributeSet(attribute.NewSet(
			append(commonAttributes.ToSlice(), attribute.String("status", status))...,
		))
		jobsCounter.Add(ctx, 1, attrs)
		jobDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	opts, err := job.Job.ShuffleOptions()
	if err != nil {
		return result, fmt.Errorf("invalid job configuration: %w", err)
	}
	binding, err := job.Job.Binding(compositekey.NewRegistry())
	if err != nil {
		return result, fmt.Errorf("invalid job configuration: %w", err)
	}
	sinks, summary, err := newSinks(job.Format, out, binding)
	if err != nil {
		return result, err
	}
	pipeline := output.NewPipeline(sinks, handlers.ParseSkipList(job.Handlers.Skip))

	s, err := shuffle.NewShuffle(binding, opts)
	if err != nil {
		return result, err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			ll.Error("Failed to remove spill files", slog.Any("error", closeErr))
			if err == nil {
				err = closeErr
			}
		}
	}()

	ll.Info("Starting sort job",
		slog.String("binding", binding.String()),
		slog.String("order", opts.SortPolicy.Name()),
		slog.Int("partitions", opts.NumPartitions))

	reader := csvinput.NewReader(in, binding)
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key, value, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, err
		}
		if err := s.Emit(ctx, key, value); err != nil {
			return result, fmt.Errorf("line %d: %w", reader.Line(), err)
		}
		result.Rows++
	}
	inputRowsCounter.Add(ctx, result.Rows, metric.WithAttributeSet(commonAttributes))
	result.Spilled = s.Spilled()

	runErr := s.Run(ctx, pipeline)
	closeErr := pipeline.Close(ctx)
	if runErr != nil {
		return result, runErr
	}
	if closeErr != nil {
		return result, closeErr
	}
	result.Stats = summary.Stats()

	ll.Info("Sort job finished",
		slog.Int64("rows", result.Rows),
		slog.Int("spilledRuns", result.Spilled),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}
