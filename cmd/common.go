package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/giantswarm/cts/internal/config"
	"github.com/giantswarm/cts/internal/loader"
	"github.com/giantswarm/cts/internal/reporter"
	"github.com/giantswarm/cts/internal/suites"
	"github.com/giantswarm/cts/pkg/logging"
)

// logLevelEnv overrides the log level derived from --verbose and --debug.
const logLevelEnv = "CTS_LOG_LEVEL"

// loadConfig reads the configuration file and applies the global flags and
// positional filters on top of it. Logging is set up from the flags before
// the file is read and again once the file's verbose and debug are known.
func loadConfig(cmd *cobra.Command, opts *globalOptions, args []string) (config.RunConfig, error) {
	flags := cmd.Flags()
	if err := initLogging(cmd, flags.Changed("verbose") && opts.verbose, flags.Changed("debug") && opts.debug); err != nil {
		return config.RunConfig{}, err
	}

	path, explicit := opts.configPath, opts.configPath != ""
	if !explicit {
		path = config.DefaultConfigFile
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return config.RunConfig{}, err
	}

	if len(args) > 0 {
		cfg.Filters = args
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if err := initLogging(cmd, cfg.Verbose, cfg.Debug); err != nil {
		return config.RunConfig{}, err
	}
	return cfg, nil
}

// initLogging sets the log level from the verbosity settings, unless
// CTS_LOG_LEVEL names one.
func initLogging(cmd *cobra.Command, verbose, debug bool) error {
	level := logging.LevelFromFlags(verbose, debug)
	if s := os.Getenv(logLevelEnv); s != "" {
		var err error
		if level, err = logging.ParseLevel(s); err != nil {
			return &config.ConfigurationError{
				Field:     logLevelEnv,
				ErrorType: "validation",
				Message:   err.Error(),
				Err:       err,
			}
		}
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

// loadEntries resolves the configured filters against the built-in suites.
func loadEntries(ctx context.Context, cfg config.RunConfig) ([]loader.Entry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	filters, err := cfg.ParsedFilters()
	if err != nil {
		return nil, err
	}
	exclude, err := cfg.ParsedExclude()
	if err != nil {
		return nil, err
	}

	registry, err := suites.Registry()
	if err != nil {
		return nil, err
	}
	entries, err := loader.New(registry).Load(ctx, filters)
	if err != nil {
		return nil, err
	}
	return loader.Exclude(entries, exclude), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && reporter.IsTerminal(f)
}

// completeSuites offers the names of the built-in suites for the first part
// of a filter.
func completeSuites(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	registry, err := suites.Registry()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names, err := registry.Suites(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
