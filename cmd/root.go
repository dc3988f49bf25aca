// Package cmd provides the root command and CLI setup for weave.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"weave.dev/pkg/weave/internal/adapter"
	"weave.dev/pkg/weave/internal/controller"
	"weave.dev/pkg/weave/internal/domain"
	m "weave.dev/pkg/weave/internal/model"
)

var sourceStore adapter.SourceStore
var sourceMetadata adapter.SourceMetadata
var bridge adapter.Bridge
var workflow domain.Workflow
var ui controller.UI

// outputDirFlag is a root-level flag naming where synthesized units are dumped.
var outputDirFlag string

// journalFlag is a root-level flag naming the compile journal.
var journalFlag string

// logFileFlag and verboseFlag configure the log sink.
var logFileFlag string
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	sourceStore = adapter.NewLocalSourceStore()
	sourceMetadata = adapter.NewLocalSourceMetadata(sourceStore)
	bridge = newBridge(sourceStore)
	workflow = domain.NewWorkflow(sourceStore, sourceMetadata, ui, bridge, compileOptions)
}

func newBridge(store adapter.SourceStore) adapter.Bridge {
	opts := []adapter.BridgeOption{adapter.WithSourceStore(store, m.Path(viper.GetString(outputFlagName)))}

	if vet := adapter.NewLocalVetRunner(); vet.Available() {
		opts = append(opts, adapter.WithVetRunner(vet))
	}

	return adapter.NewInterpreterBridge(opts...)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...          recursively scan current directory
  - ./blueprints   scan one directory
  - a.yaml b.toml  compile single blueprints`

const rootLongDescription = `Weave synthesizes Go types from member fragments described in blueprints,
loads them at runtime and attaches behaviors to their notification points.

Blueprints are YAML or TOML files listing fields, methods and overrides of
an optional base type.

` + pathPatternsHelp

const compileLongDescription = `Compile every blueprint under the given paths (default: current directory)
and record the outcome in the compile journal.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weave",
		Short: "Go type synthesis and behavior weaving tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd returns a fresh root command with the persistent flags wired.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&outputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"directory synthesized units are written to",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVar(&journalFlag, journalFlagName, viper.GetString(journalFlagName), "compile journal file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(journalFlagName), journalFlagName)

	cmd.PersistentFlags().StringVar(&logFileFlag, "log", viper.GetString(logFilenameKey), "log file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log"), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
