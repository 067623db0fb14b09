// Package pgsync provides a programmatic API for PostgreSQL schema
// synchronization. It compares two schemas, live connections or generated
// definition files, and produces the SQL script that reshapes the target
// into the source. The script is returned, never executed.
package pgsync

import (
	"context"

	"github.com/pgsync/pgsync/cmd/util"
	"github.com/pgsync/pgsync/internal/engine"
	"github.com/pgsync/pgsync/internal/ignore"
	"github.com/pgsync/pgsync/internal/inspect"
)

// DatabaseConfig holds connection details for a PostgreSQL database.
type DatabaseConfig struct {
	Host     string // Database server host
	Port     int    // Database server port
	Database string // Database name
	User     string // Database user
	Password string // Database password (optional)
	Schema   string // Schema name (default: "public")
}

// Endpoint is one side of a sync run: a live database schema, or a
// directory of definition files produced by Generate when Dir is set.
type Endpoint struct {
	DatabaseConfig
	Dir string // definition file directory; replaces the connection fields
}

// SyncOptions configures how the sync script is produced.
type SyncOptions struct {
	Source          Endpoint
	Target          Endpoint
	IgnorePath      string // optional path to an ignore file
	ApplicationName string // application name for database connections (default: "pgsync")
}

// GenerateOptions configures definition file generation.
type GenerateOptions struct {
	DatabaseConfig
	OutDir          string // when set, the files are also written here
	IgnorePath      string // optional path to an ignore file
	ApplicationName string // application name for the database connection (default: "pgsync")
}

// Client provides the main interface for pgsync operations.
type Client struct {
	defaultDB  DatabaseConfig
	defaultApp string
}

// NewClient creates a new pgsync client with default database configuration.
// Endpoints that leave Host empty inherit this configuration, so two
// schemas of the same database can be compared by setting only Schema on
// each endpoint.
func NewClient(dbConfig DatabaseConfig) *Client {
	if dbConfig.Schema == "" {
		dbConfig.Schema = "public"
	}
	return &Client{
		defaultDB:  dbConfig,
		defaultApp: "pgsync",
	}
}

// Sync compares the source endpoint against the target endpoint and
// returns the sync script along with its statement counts.
func (c *Client) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	ignoreCfg, err := loadIgnore(opts.IgnorePath)
	if err != nil {
		return nil, err
	}

	appName := opts.ApplicationName
	if appName == "" {
		appName = c.defaultApp
	}

	source, err := c.open(opts.Source, appName)
	if err != nil {
		return nil, err
	}
	target, err := c.open(opts.Target, appName)
	if err != nil {
		source.Close()
		return nil, err
	}

	return engine.Sync(ctx, source, target, engine.Options{Ignore: ignoreCfg})
}

// Generate introspects one schema and renders its definition files. When
// OutDir is set the files are written there as well as returned.
func (c *Client) Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	ignoreCfg, err := loadIgnore(opts.IgnorePath)
	if err != nil {
		return nil, err
	}

	if opts.Host == "" {
		schema := opts.Schema
		opts.DatabaseConfig = c.defaultDB
		if schema != "" {
			opts.Schema = schema
		}
	}
	if opts.Schema == "" {
		opts.Schema = "public"
	}
	if opts.ApplicationName == "" {
		opts.ApplicationName = c.defaultApp
	}

	source, err := connect(opts.DatabaseConfig, opts.ApplicationName)
	if err != nil {
		return nil, err
	}

	result, err := engine.Generate(ctx, source, engine.Options{Ignore: ignoreCfg})
	if err != nil {
		return nil, err
	}
	if opts.OutDir != "" {
		if err := result.WriteFiles(opts.OutDir); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// open builds one side of a sync run. An endpoint with a directory reads
// definition files; otherwise it connects, inheriting the client defaults
// when no host is given. An endpoint-level Schema survives the fallback so
// cross-schema runs against the default database work.
func (c *Client) open(e Endpoint, appName string) (inspect.Source, error) {
	schema := e.Schema
	if e.Dir != "" {
		if schema == "" {
			schema = "public"
		}
		return inspect.NewFiles(e.Dir, schema)
	}

	db := e.DatabaseConfig
	if db.Host == "" {
		db = c.defaultDB
		if schema != "" {
			db.Schema = schema
		}
	}
	if db.Schema == "" {
		db.Schema = "public"
	}
	return connect(db, appName)
}

func connect(db DatabaseConfig, appName string) (inspect.Source, error) {
	config := &util.ConnectionConfig{
		Host:            db.Host,
		Port:            db.Port,
		Database:        db.Database,
		User:            db.User,
		Password:        db.Password,
		SSLMode:         "prefer",
		ApplicationName: appName,
	}
	conn, err := util.Connect(config)
	if err != nil {
		return nil, err
	}
	return inspect.NewDB(conn, db.Schema, config.Label(db.Schema)), nil
}

// loadIgnore reads the ignore file when a path is given. The library never
// picks up a working-directory file implicitly; that is CLI behavior.
func loadIgnore(path string) (*ignore.Config, error) {
	if path == "" {
		return nil, nil
	}
	return util.LoadIgnoreFile(path)
}
