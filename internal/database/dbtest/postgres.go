//go:build container
// +build container

// Package dbtest starts a throwaway Postgres for integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"event-registration-platform/internal/database"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres starts a migrated Postgres container and returns an open
// handle and its DSN. The container is removed when the test ends.
func Postgres(t *testing.T) (*sql.DB, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "event_registration_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(90 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/event_registration_test?sslmode=disable", host, port.Port())
	db, err := database.NewConnection(database.Config{URL: dsn})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewMigrator(db.DB).Run(ctx); err != nil {
		t.Fatal(err)
	}

	return db.DB, dsn
}

// SeedEvent inserts a published event and returns its id
func SeedEvent(t *testing.T, db *sql.DB, title string, price int) int {
	t.Helper()

	var id int
	err := db.QueryRow(
		"INSERT INTO events (title, price, status) VALUES ($1, $2, 'published') RETURNING id",
		title, price,
	).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}
