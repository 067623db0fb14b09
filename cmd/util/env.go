package util

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgsync/pgsync/internal/errs"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// libpqEnv maps the generic connection fields to the libpq variable family
// shared by every connection.
var libpqEnv = map[string]string{
	"host":     "PGHOST",
	"port":     "PGPORT",
	"db":       "PGDATABASE",
	"user":     "PGUSER",
	"password": "PGPASSWORD",
}

// connEnv returns the environment value for one connection field. A
// variable with the connection's own prefix (SOURCE_HOST, TARGET_DB, ...)
// wins over the libpq fallback.
func connEnv(envPrefix, field string) string {
	if envPrefix != "" {
		if value := os.Getenv(envPrefix + strings.ToUpper(field)); value != "" {
			return value
		}
	}
	return os.Getenv(libpqEnv[field])
}

// envHint names the variable an error message should point the user at.
func envHint(envPrefix, field string) string {
	if envPrefix != "" {
		return envPrefix + strings.ToUpper(field)
	}
	return libpqEnv[field]
}

// ApplyConnectionEnvVars fills unset connection flags from the environment.
// A flag the user set explicitly always wins. Flag names are built from
// flagPrefix ("source-", "target-", or empty), variable names from
// envPrefix with the libpq family as the shared fallback.
func ApplyConnectionEnvVars(cmd *cobra.Command, flagPrefix, envPrefix string, hostPtr *string, portPtr *int, dbPtr, userPtr, passwordPtr *string) {
	changed := func(field string) bool {
		return cmd.Flags().Changed(flagPrefix + field)
	}

	if value := connEnv(envPrefix, "host"); value != "" && !changed("host") {
		*hostPtr = value
	}
	if value := connEnv(envPrefix, "port"); value != "" && !changed("port") {
		if port, err := strconv.Atoi(value); err == nil {
			*portPtr = port
		}
	}
	if value := connEnv(envPrefix, "db"); value != "" && !changed("db") {
		*dbPtr = value
	}
	if value := connEnv(envPrefix, "user"); value != "" && !changed("user") {
		*userPtr = value
	}
	if value := connEnv(envPrefix, "password"); value != "" && !changed("password") {
		*passwordPtr = value
	}
}

// ApplyAppNameEnv fills the application name from PGAPPNAME unless the flag
// was set explicitly. Commands register one application-name flag shared by
// every connection they open, so the fallback applies once, not per side.
func ApplyAppNameEnv(cmd *cobra.Command, appNamePtr *string) {
	if appNamePtr == nil {
		return
	}
	if value := os.Getenv("PGAPPNAME"); value != "" && !cmd.Flags().Changed("application-name") {
		*appNamePtr = value
	}
}

// ValidateConnectionFlags confirms the required connection values are
// present once the environment has been applied.
func ValidateConnectionFlags(flagPrefix, envPrefix, db, user string) error {
	if db == "" {
		return errs.Newf(errs.KindConfig, "database name is required (use --%sdb flag or %s environment variable)", flagPrefix, envHint(envPrefix, "db"))
	}
	if user == "" {
		return errs.Newf(errs.KindConfig, "database user is required (use --%suser flag or %s environment variable)", flagPrefix, envHint(envPrefix, "user"))
	}
	return nil
}

// PreRunEWithEnvVars creates a PreRunE function for commands with a single
// unprefixed connection flag group, resolved against the libpq variables.
// A nil appNamePtr skips the PGAPPNAME fallback.
func PreRunEWithEnvVars(hostPtr *string, portPtr *int, dbPtr, userPtr, passwordPtr, appNamePtr *string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ApplyConnectionEnvVars(cmd, "", "", hostPtr, portPtr, dbPtr, userPtr, passwordPtr)
		ApplyAppNameEnv(cmd, appNamePtr)
		return ValidateConnectionFlags("", "", *dbPtr, *userPtr)
	}
}
