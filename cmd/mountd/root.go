package main

import (
	"github.com/spf13/cobra"

	"github.com/mountfs/mount/version"
)

var showVersion bool

func init() {
	RootCmd.AddCommand(ServeCmd)
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")
}

// RootCmd is the main command for the 'mountd' binary.
var RootCmd = &cobra.Command{
	Use:   "mountd",
	Short: "`mountd` serves the mount engine's HTTP surface",
	Long:  "`mountd` serves the mount engine's HTTP surface.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			version.PrintVersion()
			return
		}
		// nolint:errcheck
		cmd.Usage()
	},
}
