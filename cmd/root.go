package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/giantswarm/cts/internal/config"
	"github.com/giantswarm/cts/internal/loader"
	"github.com/giantswarm/cts/internal/runner"
	"github.com/giantswarm/cts/pkg/query"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates every selected case passed without warnings.
	ExitCodeSuccess = 0
	// ExitCodeTestsFailed indicates at least one case warned or failed.
	ExitCodeTestsFailed = 1
	// ExitCodeConfigError indicates nothing ran: bad configuration, a
	// malformed filter, a broken test group or an empty selection.
	ExitCodeConfigError = 2
)

// ErrTestsFailed is returned by run when a case warned or failed. The
// results have already been printed.
var ErrTestsFailed = errors.New("some tests failed or warned")

type globalOptions struct {
	configPath string
	verbose    bool
	debug      bool
}

var (
	version = "dev"
	rootCmd = newRootCmd()
)

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "cts",
		Short: "Run parameterized conformance test suites",
		Long: `cts runs the test suites compiled into it. Each suite is a tree of test
groups, each group a set of tests expanded over parameter combinations.

Cases are selected with filters of the form

  suite[:group[:test[:{"param":value}]]]

where a trailing ':' makes the preceding part exact and '~' in place of the
last ':' matches params that contain the given ones.`,
		Version: version,
		// Results and errors are printed by the commands themselves.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(`{{printf "cts version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", fmt.Sprintf("Configuration file (default %s if present)", config.DefaultConfigFile))
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print every case as it finishes")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// SetVersion sets the version reported by the binary and written into
// result documents.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return version
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, ErrTestsFailed) {
		fmt.Fprintln(os.Stderr, errorMessage(err))
	}
	os.Exit(getExitCode(err))
}

func errorMessage(err error) string {
	var ce *config.ConfigurationError
	if errors.As(err, &ce) {
		return "Error: " + ce.DetailedError()
	}
	return "Error: " + err.Error()
}

// getExitCode maps an error to the exit code documented above.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	if errors.Is(err, ErrTestsFailed) {
		return ExitCodeTestsFailed
	}

	var ce *config.ConfigurationError
	var re *runner.RegistrationError
	switch {
	case errors.As(err, &ce), errors.As(err, &re),
		errors.Is(err, query.ErrMalformedFilter),
		errors.Is(err, runner.ErrNoCases),
		errors.Is(err, loader.ErrSuiteNotFound),
		errors.Is(err, loader.ErrGroupNotFound),
		errors.Is(err, loader.ErrNoTestGroup):
		return ExitCodeConfigError
	}
	return ExitCodeTestsFailed
}
