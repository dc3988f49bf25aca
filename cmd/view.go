package cmd

import (
	"github.com/spf13/cobra"

	"weave.dev/pkg/weave/internal/domain"
	m "weave.dev/pkg/weave/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <blueprint>",
		Short: "Browse the source a blueprint synthesizes",
		Long: `Open the synthesized source in a scrollable, line-numbered viewer.
Without a terminal the source is printed like render -n does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Render(cmd.Context(), domain.RenderArgs{Blueprint: m.Path(args[0]), LineNumbers: true})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
