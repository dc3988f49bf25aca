package cmd

import (
	"github.com/spf13/cobra"

	"weave.dev/pkg/weave/internal/domain"
	m "weave.dev/pkg/weave/internal/model"
)

// membersCmd represents the members command.
var membersCmd = newMembersCmd()

func newMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <file.go> <Type>",
		Short: "List the operations a subclass of a base type can override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Members(cmd.Context(), domain.MembersArgs{File: m.Path(args[0]), Type: args[1]})
		},
	}
}

func init() {
	rootCmd.AddCommand(membersCmd)
}
