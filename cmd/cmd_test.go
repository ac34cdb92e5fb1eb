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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/secsort/config"
	"github.com/cardinalhq/secsort/internal/compositekey"
	"github.com/cardinalhq/secsort/internal/output"
)

// interleavedInput builds 300 lines for groups A and B in the order the
// reducer must undo.
func interleavedInput() string {
	const offset = 50
	var sb strings.Builder
	for i := range offset {
		i2 := i + offset
		i3 := i + offset*2
		fmt.Fprintf(&sb, "B,%d,B%d\n", i3, i3)
		fmt.Fprintf(&sb, "B,%d,B%d\n", i, i)
		fmt.Fprintf(&sb, "A,%d,A%d\n", i2, i2)
		fmt.Fprintf(&sb, "A,%d,A%d\n", i, i)
		fmt.Fprintf(&sb, "A,%d,A%d\n", i3, i3)
		fmt.Fprintf(&sb, "B,%d,B%d\n", i2, i2)
	}
	return sb.String()
}

func testJob(t *testing.T, order string) sortJob {
	job := config.DefaultJobConfig()
	job.Order = order
	job.NumPartitions = 1
	job.SpillThreshold = 16
	job.Workers = 1
	job.TempDir = t.TempDir()
	return sortJob{Job: job, Format: formatText}
}

func expectedLines(reverse bool) string {
	var sb strings.Builder
	for _, g := range []string{"A", "B"} {
		for i := range 150 {
			n := i
			if reverse {
				n = 149 - i
			}
			fmt.Fprintf(&sb, "%s\t%d\t%s%d\n", g, n, g, n)
		}
	}
	return sb.String()
}

func TestRunSortJob_Text(t *testing.T) {
	tests := []struct {
		order   string
		reverse bool
	}{
		{"natural", false},
		{"reverse", true},
	}
	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			job := testJob(t, tt.order)
			var out bytes.Buffer
			result, err := runSortJob(context.Background(), job, strings.NewReader(interleavedInput()), &out)
			require.NoError(t, err)

			assert.Equal(t, int64(300), result.Rows)
			assert.Positive(t, result.Spilled)
			assert.NotEmpty(t, result.JobID)
			assert.Equal(t, map[int]output.PartitionStats{0: {Groups: 2, Records: 300}}, result.Stats)
			assert.Equal(t, expectedLines(tt.reverse), out.String())

			entries, err := os.ReadDir(job.Job.TempDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "spill files are removed")
		})
	}
}

func TestRunSortJob_ManyPartitions(t *testing.T) {
	job := testJob(t, "natural")
	job.Job.NumPartitions = 8
	job.Job.Workers = 4

	var out bytes.Buffer
	result, err := runSortJob(context.Background(), job, strings.NewReader(interleavedInput()), &out)
	require.NoError(t, err)

	// Groups may arrive in any partition order, but each is contiguous.
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 300)
	first := lines[0][:1]
	for i, line := range lines {
		group := line[:1]
		if i < 150 {
			assert.Equal(t, first, group, "line %d", i)
		} else {
			assert.NotEqual(t, first, group, "line %d", i)
		}
	}

	var groups int64
	for _, st := range result.Stats {
		groups += st.Groups
	}
	assert.Equal(t, int64(2), groups)
}

func TestRunSortJob_Parquet(t *testing.T) {
	job := testJob(t, "reverse")
	job.Format = formatParquet

	var out bytes.Buffer
	_, err := runSortJob(context.Background(), job, strings.NewReader("A,1,x\nA,3,y\nA,2,z\n"), &out)
	require.NoError(t, err)

	reader := parquet.NewGenericReader[output.OutputRow](bytes.NewReader(out.Bytes()))
	defer reader.Close()
	rows := make([]output.OutputRow, 5)
	n, err := reader.Read(rows)
	if err != nil {
		require.ErrorIs(t, err, io.EOF)
	}
	require.Equal(t, 3, n)
	assert.Equal(t, []string{"3", "2", "1"}, []string{rows[0].Sort, rows[1].Sort, rows[2].Sort})
	assert.Equal(t, "y", string(rows[0].Value))
}

func TestRunSortJob_SkipHandlers(t *testing.T) {
	job := testJob(t, "natural")
	job.Handlers.Skip = "text, summary"

	var out bytes.Buffer
	result, err := runSortJob(context.Background(), job, strings.NewReader("A,1,x\n"), &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Empty(t, result.Stats)
}

func TestRunSortJob_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*sortJob)
		input  string
		check  func(t *testing.T, err error)
	}{
		{"bad order", func(j *sortJob) { j.Job.Order = "grouping" }, "", func(t *testing.T, err error) {
			var cfgErr compositekey.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		}},
		{"bad partitions", func(j *sortJob) { j.Job.NumPartitions = 0 }, "", func(t *testing.T, err error) {
			var countErr compositekey.InvalidPartitionCountError
			assert.True(t, errors.As(err, &countErr))
		}},
		{"unknown type", func(j *sortJob) { j.Job.SortType = "uuid" }, "", func(t *testing.T, err error) {
			var cfgErr compositekey.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		}},
		{"bad format", func(j *sortJob) { j.Format = "json" }, "", nil},
		{"bad row", func(*sortJob) {}, "A,1,x\nB,two,y\n", func(t *testing.T, err error) {
			assert.Contains(t, err.Error(), "line 2")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := testJob(t, "natural")
			tt.modify(&job)
			_, err := runSortJob(context.Background(), job, strings.NewReader(tt.input), io.Discard)
			require.Error(t, err)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestRunSortJob_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runSortJob(ctx, testJob(t, "natural"), strings.NewReader("A,1,x\n"), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplySortFlags(t *testing.T) {
	c := &cobra.Command{}
	addJobFlags(c)
	require.NoError(t, c.Flags().Parse([]string{
		"--batch-size", "64",
		"--workers", "3",
		"--order", "reverse",
		"--skip", "summary",
	}))

	job := sortJob{Job: config.DefaultJobConfig()}
	require.NoError(t, applySortFlags(c, &job))

	defaults := config.DefaultJobConfig()
	assert.Equal(t, 64, job.Job.BatchSize)
	assert.Equal(t, 3, job.Job.Workers)
	assert.Equal(t, "reverse", job.Job.Order)
	assert.Equal(t, "summary", job.Handlers.Skip)
	assert.Equal(t, defaults.NumPartitions, job.Job.NumPartitions, "unset flags keep config values")
	assert.Equal(t, defaults.SpillThreshold, job.Job.SpillThreshold, "unset flags keep config values")

	opts, err := job.Job.ShuffleOptions()
	require.NoError(t, err)
	assert.Equal(t, 64, opts.BatchSize)
}

func TestPrintPartition(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printPartition(&out, compositekey.NewRegistry(), compositekey.TypeText, "A", 10))

	expected, err := compositekey.Partition(compositekey.NewText("A"), 10)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", expected), out.String())

	out.Reset()
	require.NoError(t, printPartition(&out, compositekey.NewRegistry(), compositekey.TypeInt32, "13", 10))
	assert.Equal(t, "3\n", out.String())

	assert.Error(t, printPartition(io.Discard, compositekey.NewRegistry(), compositekey.TypeInt32, "x", 10))
	assert.Error(t, printPartition(io.Discard, compositekey.NewRegistry(), compositekey.TypeText, "A", 0))
	assert.Error(t, printPartition(io.Discard, compositekey.NewRegistry(), "nope", "A", 3))
}
