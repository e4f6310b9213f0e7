package database

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/texgraph/helper"
	"github.com/siherrmann/texgraph/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

const testEmbeddingDim = 4

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	database := helper.NewTestDatabase(dbConfig)

	err = sql.Init(database.Instance)
	require.NoError(t, err)

	return database
}

// initHandlers creates handlers in dependency order and clears leftovers
// from earlier tests so counts start at zero.
func initHandlers(t *testing.T, database *helper.Database) (*DocumentsDBHandler, *SectionsDBHandler, *ChunksDBHandler) {
	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	sectionsDbHandler, err := NewSectionsDBHandler(database, true)
	require.NoError(t, err, "Expected NewSectionsDBHandler to not return an error")

	chunksDbHandler, err := NewChunksDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")

	err = chunksDbHandler.ClearAllData(context.Background())
	require.NoError(t, err, "Expected ClearAllData to not return an error")

	return documentsDbHandler, sectionsDbHandler, chunksDbHandler
}
