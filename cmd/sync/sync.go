package sync

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgsync/pgsync/cmd/util"
	"github.com/pgsync/pgsync/internal/color"
	"github.com/pgsync/pgsync/internal/engine"
	"github.com/pgsync/pgsync/internal/errs"
	"github.com/pgsync/pgsync/internal/inspect"
)

var (
	sourceHost     string
	sourcePort     int
	sourceDB       string
	sourceUser     string
	sourcePassword string
	sourceSchema   string
	sourceDir      string

	targetHost     string
	targetPort     int
	targetDB       string
	targetUser     string
	targetPassword string
	targetSchema   string
	targetDir      string

	outputFile      string
	applicationName string
	promptPassword  bool
	noColor         bool
)

var SyncCmd = &cobra.Command{
	Use:          "sync",
	Short:        "Diff two schemas and emit the sync script",
	Long:         "Compare a source schema against a target schema and emit the SQL script that reshapes the target to match the source. Each side is either a live database connection or a directory of definition files produced by gen. The script goes to stdout (or --file) and is never executed.",
	RunE:         runSync,
	SilenceUsage: true,
	PreRunE:      preRunSync,
}

func init() {
	SyncCmd.Flags().StringVar(&sourceHost, "source-host", "localhost", "Source database server host (env: SOURCE_HOST, PGHOST)")
	SyncCmd.Flags().IntVar(&sourcePort, "source-port", 5432, "Source database server port (env: SOURCE_PORT, PGPORT)")
	SyncCmd.Flags().StringVar(&sourceDB, "source-db", "", "Source database name (env: SOURCE_DB, PGDATABASE)")
	SyncCmd.Flags().StringVar(&sourceUser, "source-user", "", "Source database user name (env: SOURCE_USER, PGUSER)")
	SyncCmd.Flags().StringVar(&sourcePassword, "source-password", "", "Source database password (optional, can also use SOURCE_PASSWORD or PGPASSWORD env var)")
	SyncCmd.Flags().StringVar(&sourceSchema, "source-schema", "public", "Source schema name")
	SyncCmd.Flags().StringVar(&sourceDir, "source-dir", "", "Directory of definition files to use as the source instead of a live connection")

	SyncCmd.Flags().StringVar(&targetHost, "target-host", "localhost", "Target database server host (env: TARGET_HOST, PGHOST)")
	SyncCmd.Flags().IntVar(&targetPort, "target-port", 5432, "Target database server port (env: TARGET_PORT, PGPORT)")
	SyncCmd.Flags().StringVar(&targetDB, "target-db", "", "Target database name (env: TARGET_DB, PGDATABASE)")
	SyncCmd.Flags().StringVar(&targetUser, "target-user", "", "Target database user name (env: TARGET_USER, PGUSER)")
	SyncCmd.Flags().StringVar(&targetPassword, "target-password", "", "Target database password (optional, can also use TARGET_PASSWORD or PGPASSWORD env var)")
	SyncCmd.Flags().StringVar(&targetSchema, "target-schema", "public", "Target schema name")
	SyncCmd.Flags().StringVar(&targetDir, "target-dir", "", "Directory of definition files to use as the target instead of a live connection")

	SyncCmd.Flags().StringVar(&outputFile, "file", "", "Write the sync script to this path instead of stdout")
	SyncCmd.Flags().StringVar(&applicationName, "application-name", "pgsync", "Application name for database connections (visible in pg_stat_activity)")
	SyncCmd.Flags().BoolVarP(&promptPassword, "password-prompt", "W", false, "Prompt for connection passwords")
	SyncCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func preRunSync(cmd *cobra.Command, args []string) error {
	util.ApplyAppNameEnv(cmd, &applicationName)
	if err := resolveSide(cmd, "source-", "SOURCE_", sourceDir, &sourceHost, &sourcePort, &sourceDB, &sourceUser, &sourcePassword); err != nil {
		return err
	}
	return resolveSide(cmd, "target-", "TARGET_", targetDir, &targetHost, &targetPort, &targetDB, &targetUser, &targetPassword)
}

// resolveSide applies environment fallbacks for one side unless that side
// reads from a directory, in which case its connection flags must be
// absent.
func resolveSide(cmd *cobra.Command, flagPrefix, envPrefix, dir string, hostPtr *string, portPtr *int, dbPtr, userPtr, passwordPtr *string) error {
	if dir != "" {
		for _, field := range []string{"host", "port", "db", "user", "password"} {
			if cmd.Flags().Changed(flagPrefix + field) {
				return errs.Newf(errs.KindValidation, "--%sdir cannot be combined with --%s%s", flagPrefix, flagPrefix, field)
			}
		}
		return nil
	}
	util.ApplyConnectionEnvVars(cmd, flagPrefix, envPrefix, hostPtr, portPtr, dbPtr, userPtr, passwordPtr)
	return util.ValidateConnectionFlags(flagPrefix, envPrefix, *dbPtr, *userPtr)
}

func runSync(cmd *cobra.Command, args []string) error {
	if promptPassword {
		if sourceDir == "" {
			pass, err := util.ReadPassword("Source Password")
			if err != nil {
				return err
			}
			sourcePassword = pass
		}
		if targetDir == "" {
			pass, err := util.ReadPassword("Target Password")
			if err != nil {
				return err
			}
			targetPassword = pass
		}
	}

	ignoreCfg, err := util.LoadIgnoreForCommand(cmd)
	if err != nil {
		return err
	}

	source, err := openSide(sourceDir, sourceSchema, &util.ConnectionConfig{
		Host:            sourceHost,
		Port:            sourcePort,
		Database:        sourceDB,
		User:            sourceUser,
		Password:        sourcePassword,
		SSLMode:         "prefer",
		ApplicationName: applicationName,
	})
	if err != nil {
		return err
	}

	target, err := openSide(targetDir, targetSchema, &util.ConnectionConfig{
		Host:            targetHost,
		Port:            targetPort,
		Database:        targetDB,
		User:            targetUser,
		Password:        targetPassword,
		SSLMode:         "prefer",
		ApplicationName: applicationName,
	})
	if err != nil {
		source.Close()
		return err
	}

	result, err := engine.Sync(context.Background(), source, target, engine.Options{Ignore: ignoreCfg})
	if err != nil {
		return err
	}

	if err := util.WriteOutput(outputFile, result.Script); err != nil {
		return err
	}

	c := color.New(!noColor)
	if result.Statements == 0 {
		fmt.Fprintln(os.Stderr, c.Add("No changes detected; schemas are in sync."))
		return nil
	}
	fmt.Fprintln(os.Stderr, c.Bold(fmt.Sprintf("Sync script contains %d statement(s).", result.Statements)))
	if result.Todos > 0 {
		fmt.Fprintln(os.Stderr, c.Change(fmt.Sprintf("%d TODO comment(s) need manual review before the script is applied.", result.Todos)))
	}
	if result.Drops > 0 {
		fmt.Fprintln(os.Stderr, c.Destroy(fmt.Sprintf("%d statement(s) drop triggers or indexes outright.", result.Drops)))
	}
	return nil
}

// openSide builds one side of the run: a file set when dir is given, a
// live connection otherwise.
func openSide(dir, schema string, config *util.ConnectionConfig) (inspect.Source, error) {
	if dir != "" {
		return inspect.NewFiles(dir, schema)
	}
	conn, err := util.Connect(config)
	if err != nil {
		return nil, err
	}
	return inspect.NewDB(conn, schema, config.Label(schema)), nil
}

// ResetFlags resets all global flag variables to their default values for testing
func ResetFlags() {
	sourceHost = "localhost"
	sourcePort = 5432
	sourceDB = ""
	sourceUser = ""
	sourcePassword = ""
	sourceSchema = "public"
	sourceDir = ""
	targetHost = "localhost"
	targetPort = 5432
	targetDB = ""
	targetUser = ""
	targetPassword = ""
	targetSchema = "public"
	targetDir = ""
	outputFile = ""
	applicationName = "pgsync"
	promptPassword = false
	noColor = false
}
