// SPDX-License-Identifier: Apache-2.0

// Package testutils bootstraps a real Postgres container for integration
// tests that exercise pkg/gateway's lib/pq-backed Executor and
// CacheProvider against an actual server instead of a fake.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// The version of postgres against which the tests are run
// if the POSTGRES_VERSION environment variable is not set.
const defaultPostgresVersion = "15.3"

// tConnStr holds the connection string to the test container created in TestMain.
var tConnStr string

// SharedTestMain starts a postgres container to be used by all tests in a
// package. Each test then connects to the container and creates a new
// database via setupTestDatabase.
func SharedTestMain(m *testing.M) {
	ctx := context.Background()

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(5 * time.Second)

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		os.Exit(1)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate container: %v", err)
	}

	os.Exit(exitCode)
}

// WithConnectionToContainer hands fn a fresh, empty database in the shared
// container plus its connection string, for tests that need to seed their
// own schema and data.
func WithConnectionToContainer(t *testing.T, fn func(db *sql.DB, connStr string)) {
	t.Helper()

	db, connStr, _ := setupTestDatabase(t)
	fn(db, connStr)
}

// usersFixtureSchema is the table shape pkg/gateway's integration tests
// validate an Executor and a CacheProvider against: a handful of rows a
// byIds lookup and a filtered scan can both exercise.
const usersFixtureSchema = `
CREATE TABLE users (
	id    uuid PRIMARY KEY,
	email text NOT NULL,
	plan  text NOT NULL
);
INSERT INTO users (id, email, plan) VALUES
	('11111111-1111-1111-1111-111111111111', 'jane@example.com', 'pro'),
	('22222222-2222-2222-2222-222222222222', 'bob@example.com', 'free');
`

// WithUsersFixture hands fn a database in the shared container pre-seeded
// with usersFixtureSchema.
func WithUsersFixture(t *testing.T, fn func(db *sql.DB, connStr string)) {
	t.Helper()
	ctx := context.Background()

	db, connStr, _ := setupTestDatabase(t)
	if _, err := db.ExecContext(ctx, usersFixtureSchema); err != nil {
		t.Fatal(err)
	}

	fn(db, connStr)
}

// setupTestDatabase creates a new database in the test container and returns:
// - a connection to the new database
// - the connection string to the new database
// - the name of the new database
func setupTestDatabase(t *testing.T) (*sql.DB, string, string) {
	t.Helper()
	ctx := context.Background()

	tDB, err := sql.Open("postgres", tConnStr)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := tDB.Close(); err != nil {
			t.Fatalf("Failed to close database connection: %v", err)
		}
	})

	dbName := randomDBName()

	_, err = tDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(tConnStr)
	if err != nil {
		t.Fatal(err)
	}

	u.Path = "/" + dbName
	connStr := u.String()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("Failed to close database connection: %v", err)
		}
	})

	return db, connStr, dbName
}
