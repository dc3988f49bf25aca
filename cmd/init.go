package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const starterBlueprintName = "greeter.yaml"

const starterBlueprint = `# Blueprint read by "weave render" and "weave compile".
package: greeter
name: Greeter
fields:
  - Name string
methods:
  - |
    // Greet says hello.
    func (g *Greeter) Greet() string {
        return "hello, " + g.Name
    }
`

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	var withBlueprint bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default weave.yaml configuration file",
		Long: `Create a weave.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually. With --blueprint a starter
blueprint is written next to it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			err := viper.SafeWriteConfigAs(targetPath)
			if err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("wrote %s\n", targetPath)

			if !withBlueprint {
				return nil
			}

			blueprintPath := filepath.Join(configFolderPath, starterBlueprintName)

			if _, err := os.Stat(blueprintPath); err == nil {
				return fmt.Errorf("failed to write blueprint: %w", os.ErrExist)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to write blueprint: %w", err)
			}

			if err := os.WriteFile(blueprintPath, []byte(starterBlueprint), 0o600); err != nil {
				return fmt.Errorf("failed to write blueprint: %w", err)
			}

			cmd.Printf("wrote %s\n", blueprintPath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&withBlueprint, "blueprint", false, "also write a starter blueprint")

	return cmd
}

func init() {
	rootCmd.AddCommand(initCmd)
}
