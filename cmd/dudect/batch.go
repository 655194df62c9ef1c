package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ctbench/dudect"
)

var batchHeader = []string{"file", "records", "state", "severity", "test", "max_t", "max_tau", "measurements", "error"}

type batchFlags struct {
	records  int
	parallel int
	output   string
}

type batchResult struct {
	file    string
	records int
	verdict dudect.Verdict
	err     error
}

func newBatchCmd(a *app) *cobra.Command {
	var f batchFlags
	cmd := &cobra.Command{
		Use:   "batch [flags] trace...",
		Short: "Run many trace files and write a verdict table",
		Long: `Run every trace file through its own session and write one
";"-separated row per file. With --records 0 the record count of each file
is taken to be its line count.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if f.output != "" {
				file, err := os.Create(f.output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			results, err := a.batch(cmd.Context(), args, f)
			if err != nil {
				return err
			}
			if err := writeVerdicts(out, results); err != nil {
				return err
			}
			return a.batchExit(results)
		},
	}
	cmd.Flags().IntVarP(&f.records, "records", "n", 0, "records per file (0 counts the lines of each file)")
	cmd.Flags().IntVarP(&f.parallel, "parallel", "j", runtime.GOMAXPROCS(0), "files processed concurrently")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the verdict table here instead of stdout")
	return cmd
}

// batch runs every file. Per-file failures are reported in the results;
// only cancellation stops the batch.
func (a *app) batch(ctx context.Context, files []string, f batchFlags) ([]batchResult, error) {
	if f.parallel < 1 {
		return nil, fmt.Errorf("%w: parallel must be at least 1", dudect.ErrInvalidConfig)
	}
	base, err := a.options()
	if err != nil {
		return nil, err
	}

	results := make([]batchResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallel)
	for i, file := range files {
		g.Go(func() error {
			res := batchResult{file: file, records: f.records}
			if res.records == 0 {
				res.records, res.err = countLines(file)
			}
			if res.err == nil {
				opts := append(base[:len(base):len(base)], dudect.WithExpectedRecords(res.records))
				res.verdict, res.err = dudect.RunFile(ctx, file, opts...)
			}
			if res.err != nil {
				a.log.WithError(res.err).WithField("file", file).Warn("trace failed")
			}
			results[i] = res
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// batchExit reports leakage in any file with the leak exit code, and
// fails when any file could not be processed.
func (a *app) batchExit(results []batchResult) error {
	failed := 0
	a.exitCode = dudect.DataExhausted.ExitCode()
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		if r.verdict.IsLeak() {
			a.exitCode = dudect.LeakageFound.ExitCode()
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d traces failed", failed, len(results))
	}
	return nil
}

func writeVerdicts(w io.Writer, results []batchResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(batchHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{r.file, strconv.Itoa(r.records), "", "", "", "", "", "", ""}
		if r.err != nil {
			row[8] = r.err.Error()
		} else {
			v := r.verdict
			row[2] = v.State.String()
			row[3] = v.Severity.String()
			row[4] = v.TestName()
			row[5] = strconv.FormatFloat(v.MaxT, 'f', 2, 64)
			row[6] = strconv.FormatFloat(v.MaxTau, 'g', 4, 64)
			row[7] = strconv.FormatFloat(v.Measurements, 'f', 0, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: %w: empty trace", path, dudect.ErrTruncatedSource)
	}
	return n, nil
}
