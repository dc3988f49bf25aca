package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"weave.dev/pkg/weave/internal/domain"
)

// compileCmd represents the compile command.
var compileCmd = newCompileCmd()

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [paths...]",
		Short: "Compile blueprints and record the results",
		Long:  compileLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := workflow.Compile(cmd.Context(), domain.CompileArgs{
				Paths:   parsePaths(args),
				Journal: viper.GetString(journalFlagName),
				Threads: viper.GetInt(parallelConfigKey),
			})

			return err
		},
	}

	cmd.Flags().IntP(parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of blueprints compiled in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)

	cmd.Flags().Bool("warnings-as-errors", viper.GetBool(treatWarningsAsErrorsKey), "fail units that only have warnings")
	bindFlagToConfig(cmd.Flags().Lookup("warnings-as-errors"), treatWarningsAsErrorsKey)

	cmd.Flags().Int("warning-level", viper.GetInt(warningLevelKey), "warning level from 0 (none) to 4 (all)")
	bindFlagToConfig(cmd.Flags().Lookup("warning-level"), warningLevelKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
