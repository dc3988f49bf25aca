package cmd

import (
	"github.com/spf13/cobra"

	"weave.dev/pkg/weave/internal/domain"
	m "weave.dev/pkg/weave/internal/model"
)

// renderCmd represents the render command.
var renderCmd = newRenderCmd()

func newRenderCmd() *cobra.Command {
	var (
		diffPath    string
		lineNumbers bool
	)

	cmd := &cobra.Command{
		Use:   "render <blueprint>",
		Short: "Print the source a blueprint synthesizes",
		Long: `Render the source unit a blueprint describes without compiling it.
With --diff the unit is compared against an existing file instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Render(cmd.Context(), domain.RenderArgs{
				Blueprint:   m.Path(args[0]),
				Diff:        m.Path(diffPath),
				LineNumbers: lineNumbers,
			})
		},
	}

	cmd.Flags().StringVar(&diffPath, diffFlagName, "", "show a unified diff against this file")
	cmd.Flags().BoolVarP(&lineNumbers, numbersFlagName, "n", false, "prefix source lines with their number")

	return cmd
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
