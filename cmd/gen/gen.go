package gen

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgsync/pgsync/cmd/util"
	"github.com/pgsync/pgsync/internal/color"
	"github.com/pgsync/pgsync/internal/engine"
	"github.com/pgsync/pgsync/internal/inspect"
)

var (
	host     string
	port     int
	db       string
	user     string
	password string
	schema   string

	outDir          string
	toStdout        bool
	applicationName string
	promptPassword  bool
	noColor         bool
)

var GenCmd = &cobra.Command{
	Use:          "gen",
	Short:        "Generate definition files from a live schema",
	Long:         "Connect to a database and write the schema, routine, and trigger definition files for one schema. A generated file set can stand in for a live connection on either side of a sync run.",
	RunE:         runGen,
	SilenceUsage: true,
	PreRunE:      util.PreRunEWithEnvVars(&host, &port, &db, &user, &password, &applicationName),
}

func init() {
	GenCmd.Flags().StringVar(&host, "host", "localhost", "Database server host (env: PGHOST)")
	GenCmd.Flags().IntVar(&port, "port", 5432, "Database server port (env: PGPORT)")
	GenCmd.Flags().StringVar(&db, "db", "", "Database name (required) (env: PGDATABASE)")
	GenCmd.Flags().StringVar(&user, "user", "", "Database user name (required) (env: PGUSER)")
	GenCmd.Flags().StringVar(&password, "password", "", "Database password (optional, can also use PGPASSWORD env var)")
	GenCmd.Flags().StringVar(&schema, "schema", "public", "Schema name")
	GenCmd.Flags().StringVar(&outDir, "out", ".", "Directory the definition files are written to")
	GenCmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the definition files to stdout instead of writing them")
	GenCmd.Flags().StringVar(&applicationName, "application-name", "pgsync", "Application name for the database connection (visible in pg_stat_activity)")
	GenCmd.Flags().BoolVarP(&promptPassword, "password-prompt", "W", false, "Prompt for the database password")
	GenCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func runGen(cmd *cobra.Command, args []string) error {
	if toStdout && cmd.Flags().Changed("out") {
		fmt.Fprintf(os.Stderr, "Warning: --out is ignored when --stdout is set.\n")
	}

	if promptPassword {
		pass, err := util.ReadPassword("Enter Password")
		if err != nil {
			return err
		}
		password = pass
	}

	ignoreCfg, err := util.LoadIgnoreForCommand(cmd)
	if err != nil {
		return err
	}

	config := &util.ConnectionConfig{
		Host:            host,
		Port:            port,
		Database:        db,
		User:            user,
		Password:        password,
		SSLMode:         "prefer",
		ApplicationName: applicationName,
	}
	conn, err := util.Connect(config)
	if err != nil {
		return err
	}

	source := inspect.NewDB(conn, schema, config.Label(schema))
	result, err := engine.Generate(context.Background(), source, engine.Options{Ignore: ignoreCfg})
	if err != nil {
		return err
	}

	if toStdout {
		fmt.Print(result.Schema)
		fmt.Print("\n" + result.Routines)
		fmt.Print("\n" + result.Triggers)
	} else if err := result.WriteFiles(outDir); err != nil {
		return err
	}

	c := color.New(!noColor)
	summary := fmt.Sprintf("Generated %d tables, %d sequences, %d routines, %d triggers", result.TableCount, result.SequenceCount, result.RoutineCount, result.TriggerCount)
	if !toStdout {
		summary += " in " + outDir
	}
	fmt.Fprintln(os.Stderr, c.Bold(summary))
	return nil
}

// ResetFlags resets all global flag variables to their default values for testing
func ResetFlags() {
	host = "localhost"
	port = 5432
	db = ""
	user = ""
	password = ""
	schema = "public"
	outDir = "."
	toStdout = false
	applicationName = "pgsync"
	promptPassword = false
	noColor = false
}
