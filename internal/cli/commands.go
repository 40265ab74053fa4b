package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/alexshd/feasibility"
	"github.com/alexshd/feasibility/internal/exitcode"
	"github.com/alexshd/feasibility/internal/server"
	"github.com/alexshd/feasibility/internal/taskfile"
)

type runOptions struct {
	verbose bool
	sort    bool
	json    bool
}

func newCheckCommand(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Run the completion-time and scheduling-point tests",
		Long: `Run both exact feasibility tests on every task set in the given files.

Exits 0 when every set is feasible, 3 when at least one is not and 2 when
a set is malformed or not in the policy's priority order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(args, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "show per-task completion times and scheduling points")
	cmd.Flags().BoolVar(&opts.sort, "sort", false, "sort each set into the policy's priority order first")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output reports as JSON")
	return cmd
}

func (a *app) check(paths []string, opts runOptions) error {
	var total, infeasible int
	all := make(map[string][]namedReport, len(paths))

	for i, path := range paths {
		sets, policy, err := a.load(path, opts.sort)
		if err != nil {
			return err
		}

		analyzer := feasibility.NewAnalyzer(feasibility.Config{Policy: policy})
		reports := make([]namedReport, 0, len(sets))
		for _, set := range sets {
			r, err := analyzer.Analyze(set.Tasks)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", path, set.Name, err)
			}
			total++
			if !r.Feasible() {
				infeasible++
			}
			a.logger.Debug("analyzed",
				"file", path,
				"set", set.Name,
				"utilization", r.Utilization,
				"verdict", r.Verdict)
			reports = append(reports, namedReport{Name: set.Name, Summary: set.Tasks.Summary(), Report: r})
		}

		if opts.json {
			all[path] = reports
			continue
		}
		if len(paths) > 1 {
			if i > 0 {
				fmt.Fprintln(a.out)
			}
			fmt.Fprintln(a.out, a.styles.muted.Render("==> "+path+" <=="))
		}
		a.printCheck(reports, opts.verbose)
	}

	if opts.json {
		if err := writeJSON(a, all); err != nil {
			return err
		}
	}

	a.logger.Info("check complete", "sets", total, "infeasible", infeasible)
	if infeasible > 0 {
		return fmt.Errorf("%d of %d task sets: %w", infeasible, total, exitcode.ErrInfeasible)
	}
	return nil
}

func newSimulateCommand(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "simulate FILE...",
		Short: "Simulate the fixed-priority schedule over one hyperperiod",
		Long: `Simulate every task set from the critical instant, one tick at a time, and
report released, completed and missed jobs with response-time statistics.

Sets whose hyperperiod plus largest deadline exceeds --max-horizon ticks are
rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var total, missed int
			all := make(map[string][]namedSimulation, len(args))

			for _, path := range args {
				sets, policy, err := a.load(path, opts.sort)
				if err != nil {
					return err
				}
				cfg := feasibility.SimulationConfig{Policy: policy, MaxHorizon: a.cfg.Simulate.MaxHorizon}

				for _, set := range sets {
					sim, err := feasibility.Simulate(ctx, set.Tasks, cfg)
					if err != nil {
						return fmt.Errorf("%s: %s: %w", path, set.Name, err)
					}
					total++
					if !sim.Feasible() {
						missed++
					}
					a.logger.Debug("simulated",
						"file", path,
						"set", set.Name,
						"hyperperiod", sim.Hyperperiod,
						"ticks", sim.Ticks)

					ns := namedSimulation{
						Name:       set.Name,
						Summary:    set.Tasks.Summary(),
						Feasible:   sim.Feasible(),
						Simulation: sim,
					}
					if opts.json {
						all[path] = append(all[path], ns)
						continue
					}
					a.printSimulation(ns)
				}
			}

			if opts.json {
				if err := writeJSON(a, all); err != nil {
					return err
				}
			}

			a.logger.Info("simulation complete", "sets", total, "with_misses", missed)
			if missed > 0 {
				return fmt.Errorf("%d of %d task sets missed deadlines: %w", missed, total, exitcode.ErrInfeasible)
			}
			return nil
		},
	}
	cmd.Flags().Int64("max-horizon", feasibility.DefaultSimulationConfig().MaxHorizon, "largest number of ticks to simulate")
	cmd.Flags().BoolVar(&opts.sort, "sort", false, "sort each set into the policy's priority order first")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output simulations as JSON")
	_ = a.v.BindPFlag("simulate.max-horizon", cmd.Flags().Lookup("max-horizon"))
	return cmd
}

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := a.policy("")
			if err != nil {
				return err
			}
			srv := server.New(a.logger, server.Config{
				Policy:      policy,
				MaxHorizon:  a.cfg.Simulate.MaxHorizon,
				MaxWorkload: a.cfg.Serve.MaxWorkload,
			})
			return srv.ListenAndServe(cmd.Context(), a.cfg.Serve.Addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Int64("max-workload", server.DefaultConfig().MaxWorkload, "largest analysis workload accepted per task set")
	_ = a.v.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	_ = a.v.BindPFlag("serve.max-workload", cmd.Flags().Lookup("max-workload"))
	return cmd
}

func newVersionCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return writeJSON(a, map[string]string{
					"version":  Version,
					"go":       runtime.Version(),
					"platform": runtime.GOOS + "/" + runtime.GOARCH,
				})
			}
			fmt.Fprintf(a.out, "feasibility %s\n", Version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output version information as JSON")
	return cmd
}

// load reads a task file, resolves its policy and optionally sorts each set.
func (a *app) load(path string, sort bool) ([]taskfile.Set, feasibility.Policy, error) {
	f, err := taskfile.Load(path)
	if err != nil {
		return nil, "", err
	}
	policy, err := a.policy(f.Policy)
	if err != nil {
		return nil, "", err
	}
	if sort {
		for i := range f.Sets {
			f.Sets[i].Tasks = f.Sets[i].Tasks.Sorted(policy)
		}
	}
	return f.Sets, policy, nil
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
