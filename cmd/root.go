package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgsync/pgsync/cmd/gen"
	synccmd "github.com/pgsync/pgsync/cmd/sync"
	"github.com/pgsync/pgsync/internal/logger"
	"github.com/pgsync/pgsync/internal/version"
)

var (
	debug      bool
	configPath string
)

var RootCmd = &cobra.Command{
	Use:   "pgsync",
	Short: "PostgreSQL schema diff and sync script generator",
	Long: fmt.Sprintf(`pgsync compares two PostgreSQL schemas and emits the SQL script that
reshapes the target into the source. It never executes the script.

Version: %s@%s %s %s

Commands:
  sync     Diff two schemas and emit the sync script
  gen      Generate definition files from a live schema
  version  Show version information

Use "pgsync [command] --help" for more information about a command.`,
		version.Version(), version.GitCommit, version.Platform(), version.BuildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(debug)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the ignore file (default .pgsyncignore in the working directory)")
	RootCmd.AddCommand(synccmd.SyncCmd)
	RootCmd.AddCommand(gen.GenCmd)
	RootCmd.AddCommand(VersionCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
