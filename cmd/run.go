package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giantswarm/cts/internal/config"
	"github.com/giantswarm/cts/internal/reporter"
	"github.com/giantswarm/cts/internal/runner"
	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/logging"
)

type runOptions struct {
	*globalOptions
	concurrency int
	report      string
	exclude     []string
	noColor     bool
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{globalOptions: global}
	cmd := &cobra.Command{
		Use:   "run [filter...]",
		Short: "Run the cases selected by the filters",
		Long: `Run every case selected by any of the filters, or every case of every
suite when no filter is given. Cases run concurrently.

Examples:
  cts run unittests
  cts run 'unittests:logger:'
  cts run 'demos:params:combined~{"shape":"circle"}'
  cts run demos --exclude demos:lifecycle --report out/report.yaml`,
		ValidArgsFunction: completeSuites,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "Maximum number of cases running at once (0 is unbounded)")
	cmd.Flags().StringVar(&opts.report, "report", "", "Write the result document to this .json, .yaml or .yml file")
	cmd.Flags().StringArrayVar(&opts.exclude, "exclude", nil, "Drop the cases matched by this filter (repeatable)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	return cmd
}

func runTests(cmd *cobra.Command, opts *runOptions, args []string) error {
	cfg, err := loadConfig(cmd, opts.globalOptions, args)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, opts, &cfg)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	entries, err := loadEntries(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rep := reporter.New(reporter.Options{
		Out:         out,
		ProgressOut: cmd.ErrOrStderr(),
		Verbose:     cfg.Verbose,
		Progress:    isTerminal(cmd.ErrOrStderr()),
		Color:       isTerminal(out) && !opts.noColor,
	})
	defer rep.Stop()

	log := logger.New(logger.WithVersion(version))
	summary, err := runner.New(
		runner.WithConcurrency(cfg.Concurrency),
		runner.WithObserver(rep),
	).Run(ctx, log, entries)
	if err != nil {
		return err
	}
	rep.Report(summary)

	if cfg.Report != "" {
		if err := reporter.WriteDocument(cfg.Report, log); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", cfg.Report)
	}
	if ctx.Err() != nil {
		logging.Warn("Run", "run %s was interrupted", summary.RunID)
	}

	if !summary.OK() {
		return ErrTestsFailed
	}
	return nil
}

// applyRunFlags lets explicitly set flags override the configuration file.
func applyRunFlags(cmd *cobra.Command, opts *runOptions, cfg *config.RunConfig) {
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if flags.Changed("report") {
		cfg.Report = opts.report
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	}
}
