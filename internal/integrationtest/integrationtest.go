// Package integrationtest provides a disposable postgres and seed helpers for integration tests.
package integrationtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/go-petr/fx-ledger/cmd/httpserver"
	"github.com/go-petr/fx-ledger/pkg/configpkg"
	"github.com/go-petr/fx-ledger/pkg/dbpkg"

	// Postgres driver.
	_ "github.com/lib/pq"
)

const tokenSymmetricKey = "12345678901234567890123456789012"

var (
	startOnce sync.Once
	dsn       string
	startErr  error
)

// MigrationURL returns the file source url of the repository migrations.
func MigrationURL() string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "..", "..")

	return "file://" + filepath.ToSlash(filepath.Join(root, "migrations"))
}

// startPostgres runs one migrated postgres container per test binary.
//
// The container is removed by the testcontainers reaper when the binary exits.
func startPostgres() (string, error) {
	startOnce.Do(func() {
		ctx := context.Background()

		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("fx_ledger"),
			tcpostgres.WithUsername("root"),
			tcpostgres.WithPassword("secret"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			startErr = err
			return
		}

		dsn, startErr = container.ConnectionString(ctx, "sslmode=disable")
		if startErr != nil {
			return
		}

		db, err := dbpkg.Setup("postgres", dsn)
		if err != nil {
			startErr = err
			return
		}
		defer db.Close()

		startErr = dbpkg.Migrate(db, MigrationURL())
	})

	return dsn, startErr
}

// SetupDB returns a connection to the migrated test database. All tables are truncated
// when the test finishes.
func SetupDB(t *testing.T) *sql.DB {
	t.Helper()

	source, err := startPostgres()
	if err != nil {
		t.Fatalf("postgres container failed to start. err: %v", err)
	}

	db, err := dbpkg.Setup("postgres", source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// SetupServer returns test server backed by the test database.
func SetupServer(t *testing.T, opts ...httpserver.Option) *httpserver.Server {
	t.Helper()

	db := SetupDB(t)

	config := configpkg.Config{
		DBDriver:          "postgres",
		TokenSymmetricKey: tokenSymmetricKey,
		TokenType:         "paseto",
		IdempotencyTTL:    time.Hour,
	}

	gin.SetMode(gin.ReleaseMode)

	server, err := httpserver.New(db, zerolog.Nop(), config, opts...)
	if err != nil {
		t.Fatalf(`httpserver.New(db, logger, config) returned error: %v`, err)
	}

	return server
}

// Flush flushes all db tables without droping.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	var tables string

	const query = `
	SELECT string_agg(table_name, ', ')
	FROM information_schema.tables
	WHERE table_schema='public' AND table_name <> 'schema_migrations';`

	row := db.QueryRow(query)

	err := row.Scan(&tables)
	if err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}

	if _, err := db.Exec(`TRUNCATE TABLE ` + tables + " RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}
