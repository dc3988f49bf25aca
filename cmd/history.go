package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"weave.dev/pkg/weave/internal/domain"
)

// historyCmd represents the history command.
var historyCmd = newHistoryCmd()

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the compile journal",
		Long:  "Show every compile recorded in the journal, oldest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.History(cmd.Context(), domain.HistoryArgs{Journal: viper.GetString(journalFlagName)})
		},
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
