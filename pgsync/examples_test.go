package pgsync_test

import (
	"context"
	"fmt"
	"log"

	"github.com/pgsync/pgsync/pgsync"
)

// ExampleSyncSchemas demonstrates diffing two live schemas.
func ExampleSyncSchemas() {
	ctx := context.Background()

	source := pgsync.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "myapp",
		User:     "postgres",
		Password: "password",
		Schema:   "public",
	}
	target := pgsync.DatabaseConfig{
		Host:     "replica.internal",
		Port:     5432,
		Database: "myapp",
		User:     "postgres",
		Password: "password",
		Schema:   "public",
	}

	result, err := pgsync.SyncSchemas(ctx, source, target)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(result.Script)
	fmt.Printf("%d statements, %d follow-ups\n", result.Statements, result.Todos)
}

// ExampleSyncSchemasInDatabase demonstrates diffing two schemas of the
// same database.
func ExampleSyncSchemasInDatabase() {
	ctx := context.Background()

	dbConfig := pgsync.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "myapp",
		User:     "postgres",
		Password: "password",
	}

	result, err := pgsync.SyncSchemasInDatabase(ctx, dbConfig, "blue", "green")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(result.Script)
}

// ExampleGenerateFiles demonstrates writing the definition files for a
// schema.
func ExampleGenerateFiles() {
	ctx := context.Background()

	dbConfig := pgsync.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "myapp",
		User:     "postgres",
		Password: "password",
		Schema:   "public",
	}

	if err := pgsync.GenerateFiles(ctx, dbConfig, "schemas/myapp"); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Definition files written to schemas/myapp")
}

// ExampleSyncDirs demonstrates diffing two checked-in definition file
// sets, as a release pipeline would.
func ExampleSyncDirs() {
	ctx := context.Background()

	result, err := pgsync.SyncDirs(ctx, "schemas/v2", "schemas/v1", "public")
	if err != nil {
		log.Fatal(err)
	}

	if result.Statements == 0 {
		fmt.Println("Releases carry identical schemas")
		return
	}
	fmt.Println(result.Script)
}

// ExampleClient demonstrates the Client API for more control.
func ExampleClient() {
	ctx := context.Background()

	client := pgsync.NewClient(pgsync.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "myapp",
		User:     "postgres",
		Password: "password",
	})

	// Generate the definition files for the live schema.
	gen, err := client.Generate(ctx, pgsync.GenerateOptions{
		OutDir:          "schemas/current",
		ApplicationName: "my-release-tool",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Captured %d tables\n", gen.TableCount)

	// Later: diff the captured files against the live schema to spot
	// drift, ignoring scratch tables.
	result, err := client.Sync(ctx, pgsync.SyncOptions{
		Source:     pgsync.Endpoint{Dir: "schemas/current"},
		Target:     pgsync.Endpoint{},
		IgnorePath: ".pgsyncignore",
	})
	if err != nil {
		log.Fatal(err)
	}

	if result.Statements > 0 {
		fmt.Println("Schema drift detected:")
		fmt.Println(result.Script)
	}
}
