package main

import (
	"github.com/spf13/cobra"

	"github.com/mountfs/mount/version"
)

var (
	workspacePath string
	showVersion   bool
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&workspacePath, "path", "p", ".", "workspace directory")
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")

	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(AddCmd)
	RootCmd.AddCommand(PullCmd)
	RootCmd.AddCommand(PushCmd)
	RootCmd.AddCommand(StatCmd)
}

// RootCmd is the main command for the 'mount' binary.
var RootCmd = &cobra.Command{
	Use:   "mount",
	Short: "`mount` tracks a working directory against a mount daemon",
	Long:  "`mount` tracks a working directory against a mount daemon.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			version.PrintVersion()
			return
		}
		// nolint:errcheck
		cmd.Usage()
	},
}
