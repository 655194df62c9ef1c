package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ctbench/dudect"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		file    string
		records int
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print per-class timing statistics of a trace file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cli []dudect.Option
			if cmd.Flags().Changed("records") {
				cli = append(cli, dudect.WithExpectedRecords(records))
			}
			opts, err := a.options(cli...)
			if err != nil {
				return err
			}
			src, err := dudect.OpenRecordFile(file, opts...)
			if err != nil {
				return err
			}
			defer src.Close()
			samples, err := src.Samples()
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), dudect.Summarize(samples))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "trace file")
	cmd.Flags().IntVarP(&records, "records", "n", 0, "number of records in the trace file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func writeSummary(w io.Writer, sums [2]dudect.ClassSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "class\tcount\tdiscarded\tmean\tstddev\tmin\tmedian\tp99\tmax\t")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\t%.1f\t%.0f\t%.0f\t%.0f\t%.0f\t\n",
			s.Class, s.Count, s.Discarded, s.Mean, s.StdDev, s.Min, s.Median, s.P99, s.Max)
	}
	return tw.Flush()
}
