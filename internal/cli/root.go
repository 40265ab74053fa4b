// Package cli implements the feasibility command line.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexshd/feasibility"
	"github.com/alexshd/feasibility/internal/logging"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// app carries the state shared by all commands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
	styles styles
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree writing results to out and logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{v: newViper(), out: out, errOut: errOut, logger: logging.Discard()}
	var cfgFile string

	root := &cobra.Command{
		Use:   "feasibility",
		Short: "Fixed-priority schedulability analysis for periodic task sets",
		Long: `feasibility decides whether a set of periodic tasks meets all deadlines
under preemptive fixed-priority scheduling on one processor.

It runs two exact tests, the completion-time (response-time) test and the
scheduling-point test, and can simulate the schedule from the critical
instant over one hyperperiod.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cfgFile)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (YAML)")
	pf.String("policy", "", "priority policy: rm, dm or explicit (default: the file's, else rm)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.Bool("no-color", false, "disable colored output")
	_ = a.v.BindPFlag("policy", pf.Lookup("policy"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("no-color", pf.Lookup("no-color"))

	root.AddCommand(
		newCheckCommand(a),
		newSimulateCommand(a),
		newServeCommand(a),
		newVersionCommand(a),
	)
	return root
}

func (a *app) init(cfgFile string) error {
	cfg, err := loadConfig(a.v, cfgFile)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return err
	}
	logger, err := logging.New(a.errOut, logging.Options{
		Level:   cfg.Log.Level,
		Format:  format,
		NoColor: cfg.NoColor,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.styles = newStyles(a.out, cfg.NoColor)
	return nil
}

// policy resolves the priority policy: flag, env or config first, then the
// task file's own, then rate-monotonic.
func (a *app) policy(filePolicy string) (feasibility.Policy, error) {
	name := a.cfg.Policy
	if name == "" {
		name = filePolicy
	}
	return feasibility.ParsePolicy(name)
}
