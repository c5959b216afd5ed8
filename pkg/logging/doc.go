// Package logging is the harness' own diagnostic log: loading, filtering,
// scheduling and configuration events, tagged with the subsystem that
// emitted them.
//
// It is unrelated to test results. Case output goes through pkg/logger and
// ends up in the result document; this package writes slog text lines to
// stderr (or any writer given to InitForCLI).
//
//	logging.InitForCLI(logging.LevelFromFlags(verbose, debug), os.Stderr)
//	logging.Info("Loader", "loaded %d groups", n)
//	logging.Error("Runner", err, "run aborted")
//
// Levels are Debug, Info, Warn and Error. Until InitForCLI is called only
// warnings and errors are written, to stderr.
package logging
