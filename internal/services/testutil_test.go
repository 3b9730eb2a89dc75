package services

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/refprog/backend/internal/config"
	"github.com/refprog/backend/internal/db"
)

const rootToken = "0:test-root-token"

// openTestDB points the global connection at an isolated in-file SQLite
// database in a temp directory and installs test settings.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dir := t.TempDir()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db.SetConnForTest(gdb)
	config.SetForTest(&config.Settings{
		RootToken:       "test-root-token",
		TasksToken:      "test-tasks-token",
		ReferralSiteURL: "https://ref.example",
		ItemsPerPage:    10,
	})
	return gdb
}
