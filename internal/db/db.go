package db

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/refprog/backend/internal/models"
)

var conn *gorm.DB

func Init(path string) error {
	var err error
	conn, err = gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := Migrate(conn); err != nil {
		return err
	}

	log.Println("database ready (sqlite)")
	return nil
}

// Migrate creates all tables plus the composite indexes GORM doesn't derive
// from struct tags. Split out so tests can migrate a throwaway database.
func Migrate(g *gorm.DB) error {
	if err := g.AutoMigrate(
		&models.Account{},
		&models.Role{},
		&models.Permission{},
		&models.AccountRole{},
		&models.RolePermission{},
		&models.Session{},
		&models.Promotion{},
		&models.Partner{},
		&models.Client{},
		&models.Referral{},
		&models.Click{},
		&models.Lead{},
		&models.Action{},
		&models.ActionParameter{},
		&models.Sms{},
	); err != nil {
		return err
	}

	g.Exec("CREATE INDEX IF NOT EXISTS idx_partner_promotion_live ON partners(promotion_id, is_deleted)")
	g.Exec("CREATE INDEX IF NOT EXISTS idx_account_role_live      ON account_roles(account_id, is_deleted)")
	return nil
}

func Conn() *gorm.DB {
	return conn
}

// SetConnForTest swaps the global connection; tests point it at a temp-dir
// database.
func SetConnForTest(g *gorm.DB) {
	conn = g
}
