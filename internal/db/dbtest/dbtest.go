// Package dbtest connects integration tests to a real PostgreSQL. Tests using it are skipped
// unless EDUCORE_TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const EnvDatabaseURL = "EDUCORE_TEST_DATABASE_URL"

var migrateOnce sync.Once

// Pool returns a pool on the test database with migrations applied and every table emptied.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := lookupURL()
	if url == "" {
		t.Skipf("%s is not set, skipping integration test", EnvDatabaseURL)
	}

	var migrateErr error
	migrateOnce.Do(func() {
		migrateErr = applyMigrations(url)
	})
	if migrateErr != nil {
		t.Fatalf("Failed to apply migrations: %v", migrateErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	Truncate(t, pool)
	return pool
}

// Truncate empties all application tables.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		TRUNCATE TABLE activities, reviews, enrollments, payment_methods, payments, order_items,
			orders, cart_items, courses, instructors, categories, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// SeedUser inserts a student and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, first_name, last_name, email, password_hash, role) VALUES ($1, 'Test', 'User', $2, 'x', 'student')`,
		id, email)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return id
}

// SeedCourse inserts a course with the given price and returns its id.
func SeedCourse(t *testing.T, pool *pgxpool.Pool, title string, price string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO courses (title, price) VALUES ($1, $2) RETURNING id`,
		title, decimal.RequireFromString(price)).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed course: %v", err)
	}
	return id
}

func lookupURL() string {
	return strings.TrimSpace(os.Getenv(EnvDatabaseURL))
}

func applyMigrations(url string) error {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return errors.New("cannot resolve migrations directory")
	}
	dir := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")

	migrateURL := url
	switch {
	case strings.HasPrefix(url, "postgres://"):
		migrateURL = "pgx5://" + strings.TrimPrefix(url, "postgres://")
	case strings.HasPrefix(url, "postgresql://"):
		migrateURL = "pgx5://" + strings.TrimPrefix(url, "postgresql://")
	}

	m, err := migrate.New("file://"+dir, migrateURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
