package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgsync/pgsync/internal/version"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of pgsync",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pgsync v%s@%s %s %s\n", version.Version(), version.GitCommit, version.Platform(), version.BuildDate)
	},
}
