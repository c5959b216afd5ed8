package cmd

import (
	"github.com/spf13/cobra"

	"github.com/giantswarm/cts/internal/reporter"
	"github.com/giantswarm/cts/pkg/logging"
)

func newListCmd(global *globalOptions) *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:               "list [filter...]",
		Short:             "List the groups and case counts selected by the filters",
		ValidArgsFunction: completeSuites,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, args)
			if err != nil {
				return err
			}
			entries, err := loadEntries(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			groups := make([]reporter.GroupInfo, 0, len(entries))
			for _, e := range entries {
				info := reporter.GroupInfo{
					Suite:       e.Suite,
					Path:        e.Path,
					Description: e.Node.Description,
				}
				if g := e.Node.Group; g != nil {
					info.HasTests = true
					info.Tests = len(g.Tests())
					for range g.Cases() {
						info.Cases++
					}
				}
				groups = append(groups, info)
			}
			logging.Debug("List", "listing %d groups", len(groups))

			out := cmd.OutOrStdout()
			reporter.New(reporter.Options{Out: out, Color: isTerminal(out) && !noColor}).List(groups)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	return cmd
}
