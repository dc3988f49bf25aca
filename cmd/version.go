package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// interpreterModule is reported because it decides which Go a unit may use.
const interpreterModule = "github.com/traefik/yaegi"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, the Go version and the interpreter version units are loaded with.",
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok {
				cmd.Println("version: unknown")
				return
			}

			cmd.Println("weave version\t", moduleVersion(info.Main.Version))
			cmd.Println("go version\t", info.GoVersion)
			cmd.Println("interpreter\t", interpreterVersion(info))
		},
	}
}

func moduleVersion(v string) string {
	if v == "" {
		return "(devel)"
	}

	return v
}

func interpreterVersion(info *debug.BuildInfo) string {
	for _, dep := range info.Deps {
		if dep.Path != interpreterModule {
			continue
		}

		if dep.Replace != nil {
			return dep.Path + " " + dep.Replace.Version
		}

		return dep.Path + " " + dep.Version
	}

	return "unknown"
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
