package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"sigsim/adapters/scenario"
	"sigsim/domain/sim"
	"sigsim/internal/config"
	"sigsim/internal/container"
	"sigsim/internal/errors"
	"sigsim/internal/report"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.IsAppError(err) {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// app is built once per invocation, before any subcommand runs
type app struct {
	envFile   string
	container *container.Container
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "sigsim",
		Short:         "Monte Carlo simulation of significance-test error rates and power",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			a.container, err = container.New(cfg)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Optional .env file with SIM_* and LOG_LEVEL settings")

	rootCmd.AddCommand(
		newRunCmd(a),
		newSweepCmd(a),
		newFamiliesCmd(a),
	)
	return rootCmd
}

func newRunCmd(a *app) *cobra.Command {
	var flags scenarioFlags
	var format, xlsxPath, savePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one scenario and report its rejection rate",
		Long: `Simulate one scenario and report the empirical rejection rate with its
confidence interval and the p-value distribution.

With an effect size of zero the rejection rate estimates the Type I error
rate; otherwise it estimates power.

Examples:
  sigsim run -t welch_t -n 30,30 -e 0.5 --trials 10000 --seed 42
  sigsim run -f scenario.yaml --format markdown
  sigsim run -t mann_whitney_u -n 8,8 --dist lognormal:mu=0,sigma=1 --procedure retest --xlsx run.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return errors.FromDomain(err)
			}
			cfg, err := flags.config(cmd, a.container.ScenarioDefaults())
			if err != nil {
				return errors.FromDomain(err)
			}

			run, err := a.container.Service.Simulate(cmd.Context(), cfg)
			if err != nil {
				return errors.FromDomain(err)
			}
			if err := report.WriteRun(cmd.OutOrStdout(), run, f); err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := writeFile(xlsxPath, func(w io.Writer) error {
					return a.container.Workbook.WriteRun(w, run)
				}); err != nil {
					return err
				}
			}
			if savePath != "" {
				// the recorded config carries the resolved seed, so the saved file replays the run
				if err := saveScenario(savePath, scenario.FromConfig(run.Result.Config)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "table", "Output format: "+report.FormatList())
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write an XLSX workbook to this path")
	cmd.Flags().StringVar(&savePath, "save-scenario", "", "Write the resolved scenario (with seed) to this .yaml or .json path")
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	var flags scenarioFlags
	var effects []float64
	var format, xlsxPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Trace a power curve over effect sizes",
		Long: `Run the same scenario at each effect size and report the rejection rate per
point next to the closed-form normal approximation, where the test has one.
All points share one seed.

Example:
  sigsim sweep -t welch_t -n 30,30 --effects 0,0.2,0.5,0.8 --trials 5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return errors.FromDomain(err)
			}
			if len(effects) == 0 {
				return errors.InvalidInput("--effects needs at least one effect size")
			}
			cfg, err := flags.config(cmd, a.container.ScenarioDefaults())
			if err != nil {
				return errors.FromDomain(err)
			}

			res, err := a.container.Service.Sweep(cmd.Context(), cfg, effects)
			if err != nil {
				return errors.FromDomain(err)
			}
			if err := report.WriteSweep(cmd.OutOrStdout(), res, f); err != nil {
				return err
			}
			if xlsxPath != "" {
				return writeFile(xlsxPath, func(w io.Writer) error {
					return a.container.Workbook.WriteSweep(w, res)
				})
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().Float64SliceVar(&effects, "effects", nil, "Effect sizes, e.g. --effects 0,0.2,0.5")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: "+report.FormatList())
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write an XLSX workbook to this path")
	return cmd
}

func newFamiliesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "List the supported test families and distributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FAMILY\tGROUPS\tMIN N\tDESCRIPTION")
			for _, f := range a.container.Service.Families() {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", f, f.GroupCount(), f.MinGroupSize(), f.Description())
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "DISTRIBUTION\tPARAMETERS")
			for _, d := range sim.DistributionFamilies() {
				fmt.Fprintf(tw, "%s\t%s\n", d, strings.Join(d.ParamNames(), ", "))
			}
			return tw.Flush()
		},
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := write(out); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return out.Close()
}

func saveScenario(path string, s *scenario.Scenario) error {
	format, err := scenario.FormatFromPath(path)
	if err != nil {
		return errors.FromDomain(err)
	}
	data, err := s.Encode(format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
