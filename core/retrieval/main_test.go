package retrieval

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/texgraph/database"
	"github.com/siherrmann/texgraph/helper"
	loadSql "github.com/siherrmann/texgraph/sql"
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
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

func initHandlers(t *testing.T) (*database.DocumentsDBHandler, *database.SectionsDBHandler, *database.ChunksDBHandler) {
	db := initDB(t)

	// Handlers are created in dependency order because of the foreign keys.
	documents, err := database.NewDocumentsDBHandler(db, true)
	require.NoError(t, err)

	sections, err := database.NewSectionsDBHandler(db, true)
	require.NoError(t, err)

	chunks, err := database.NewChunksDBHandler(db, testEmbeddingDim, true)
	require.NoError(t, err)

	err = chunks.ClearAllData(context.Background())
	require.NoError(t, err)

	return documents, sections, chunks
}
