package pgsync

import (
	"context"

	"github.com/pgsync/pgsync/internal/script"
)

// SyncSchemas is a convenience function to diff two live schemas and return the sync script.
func SyncSchemas(ctx context.Context, source, target DatabaseConfig) (*SyncResult, error) {
	client := NewClient(source)
	return client.Sync(ctx, SyncOptions{
		Source: Endpoint{DatabaseConfig: source},
		Target: Endpoint{DatabaseConfig: target},
	})
}

// SyncSchemasToFile runs SyncSchemas and writes the script to a file.
func SyncSchemasToFile(ctx context.Context, source, target DatabaseConfig, path string) error {
	result, err := SyncSchemas(ctx, source, target)
	if err != nil {
		return err
	}
	return script.Save(path, result.Script)
}

// SyncSchemasInDatabase is a convenience function to diff two schemas of
// the same database.
func SyncSchemasInDatabase(ctx context.Context, dbConfig DatabaseConfig, sourceSchema, targetSchema string) (*SyncResult, error) {
	client := NewClient(dbConfig)
	return client.Sync(ctx, SyncOptions{
		Source: Endpoint{DatabaseConfig: DatabaseConfig{Schema: sourceSchema}},
		Target: Endpoint{DatabaseConfig: DatabaseConfig{Schema: targetSchema}},
	})
}

// SyncDirs is a convenience function to diff two definition file
// directories, for example two checked-in file sets from different
// releases.
func SyncDirs(ctx context.Context, sourceDir, targetDir, schema string) (*SyncResult, error) {
	client := NewClient(DatabaseConfig{Schema: schema})
	return client.Sync(ctx, SyncOptions{
		Source: Endpoint{Dir: sourceDir, DatabaseConfig: DatabaseConfig{Schema: schema}},
		Target: Endpoint{Dir: targetDir, DatabaseConfig: DatabaseConfig{Schema: schema}},
	})
}

// GenerateFiles is a convenience function to write the definition files
// for one schema into a directory.
func GenerateFiles(ctx context.Context, dbConfig DatabaseConfig, outDir string) error {
	client := NewClient(dbConfig)
	_, err := client.Generate(ctx, GenerateOptions{OutDir: outDir})
	return err
}
