package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup holds the connection shared by repository tests
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies migrations.
// Tests are skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping repository test")
	}

	require.NoError(t, database.RunMigrations(dsn))

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(context.Background()))
	t.Cleanup(func() {
		_ = setup.TruncateAllTables(context.Background())
		setup.Close()
	})
	return setup
}

// TruncateAllTables removes all rows from every application table
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"notifications",
		"notification_preferences",
		"chat_messages",
		"chat_sessions",
		"approval_requests",
		"incident_reports",
		"attendances",
		"refresh_tokens",
		"users",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// CreateUser inserts a user row with the given role
func (s *TestDatabaseSetup) CreateUser(t *testing.T, email string, role user.Role) user.User {
	t.Helper()

	var u user.User
	err := s.DB.QueryRow(context.Background(), `
		INSERT INTO users (email, name, role)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, role
	`, email, "Test "+string(role), role).Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	require.NoError(t, err)
	return u
}

// Close closes the database connection
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}

func strPtr(s string) *string {
	return &s
}
