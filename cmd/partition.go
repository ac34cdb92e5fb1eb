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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/secsort/internal/compositekey"
)

func init() {
	var (
		group         string
		groupType     string
		numPartitions int
	)

	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Print the partition a group key is assigned to",
		RunE: func(c *cobra.Command, _ []string) error {
			return printPartition(c.OutOrStdout(), compositekey.NewRegistry(), groupType, group, numPartitions)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&group, "group", "", "Group key, in the text form of its type")
	flags.StringVar(&groupType, "group-type", compositekey.TypeText, "Group key type")
	flags.IntVar(&numPartitions, "partitions", 4, "Number of partitions")
	_ = cmd.MarkFlagRequired("group")

	rootCmd.AddCommand(cmd)
}

func printPartition(w io.Writer, reg *compositekey.Registry, groupType, group string, numPartitions int) error {
	// The sort type does not affect partitioning; any registered type works.
	binding, err := compositekey.Configure(reg, groupType, compositekey.TypeInt32)
	if err != nil {
		return err
	}
	field := binding.NewGroup()
	if err := compositekey.ParseField(field, group); err != nil {
		return err
	}
	partition, err := compositekey.Partition(field, numPartitions)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, partition)
	return err
}
