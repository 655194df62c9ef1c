package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ctbench/dudect"
)

type runFlags struct {
	file        string
	records     int
	chunkSize   int
	metricsAddr string
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "trace file (<label>;<cycles> per line)")
	cmd.Flags().IntVarP(&f.records, "records", "n", 0, "number of records in the trace file")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", dudect.DefaultChunkSize, "samples consumed per round")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, f runFlags) error {
	var cli []dudect.Option
	if cmd.Flags().Changed("records") {
		cli = append(cli, dudect.WithExpectedRecords(f.records))
	}
	if cmd.Flags().Changed("chunk-size") {
		cli = append(cli, dudect.WithChunkSize(f.chunkSize))
	}
	if f.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		cli = append(cli, dudect.WithMetrics(dudect.NewMetrics(reg)))
		stop := a.serveMetrics(f.metricsAddr, reg)
		defer stop()
	}
	opts, err := a.options(cli...)
	if err != nil {
		return err
	}

	src, err := dudect.OpenRecordFile(f.file, opts...)
	if err != nil {
		return err
	}
	defer src.Close()
	if err := src.Load(); err != nil {
		return err
	}
	a.log.Infof("%d lines found", src.Len())

	sess, err := dudect.NewSession(src, opts...)
	if err != nil {
		return err
	}
	v, err := sess.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.String())
	a.exitCode = v.State.ExitCode()
	return nil
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Warn("metrics server stopped")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
