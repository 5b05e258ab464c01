package testutil

import (
	"database/sql"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/database"
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The schema is created by the production migrations.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database; Open limits the pool to the one connection holding it.
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	logger, _ := logtest.NewNullLogger()
	if err := database.Migrate(db, logger); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}
