// Command dudect replays recorded timing traces through the leakage
// detector.
//
// Usage:
//
//	dudect -f <trace.csv> -n <expected_line_count>
//	dudect batch -n <count> -o verdicts.csv trace1.csv trace2.csv ...
//	dudect inspect -f <trace.csv> -n <count>
//
// Trace lines have the form "<label>;<cycles>"; labels starting with 'X'
// are the baseline class. The exit status is 11 when leakage is found,
// 10 when no leakage evidence was found before the data ran out, and 1 on
// any error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ctbench/dudect"
)

const exitFailure = 1

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type app struct {
	logLevel   string
	configPath string
	log        *logrus.Logger
	exitCode   int
}

func main() {
	a := &app{log: logrus.New()}
	a.log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := a.rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
	os.Exit(a.exitCode)
}

func (a *app) rootCmd() *cobra.Command {
	root := newRunCmd(a)
	root.Use = "dudect"
	root.Short = "Detect timing leakage in recorded measurement traces"
	root.Version = version
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(a.logLevel)
		if err != nil {
			return err
		}
		a.log.SetLevel(level)
		a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return nil
	}

	root.AddCommand(newBatchCmd(a), newInspectCmd(a), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and timer in use",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dudect %s (timer %s, %.2f ns/tick)\n",
				version, dudect.TimerName(), dudect.TimerResolutionNs())
		},
	}
}

// options builds session options from the config file (if any) and the
// command line, the latter taking precedence.
func (a *app) options(cli ...dudect.Option) ([]dudect.Option, error) {
	var opts []dudect.Option
	if a.configPath != "" {
		fc, err := dudect.LoadFileConfig(a.configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fc.Options()...)
	}
	opts = append(opts, cli...)
	return append(opts, dudect.WithLogger(a.log)), nil
}
