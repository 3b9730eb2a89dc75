package auth

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/config"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/secrets"
)

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
	config.SetForTest(&config.Settings{RootToken: "test-root-token"})
	return gdb
}

// seedSession inserts an account with one live session and returns the token.
func seedSession(t *testing.T, gdb *gorm.DB) (string, *models.Account) {
	t.Helper()
	account := models.Account{Username: "operator", IsActive: true}
	if err := gdb.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	secret := secrets.NewSecret()
	salt := secrets.NewSalt()
	session := models.Session{
		AccountID: account.ID,
		TokenSalt: salt,
		TokenHash: secrets.Hash(secret, salt),
	}
	if err := gdb.Create(&session).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}
	return "1:" + secret, &account
}

func TestResolve_Root(t *testing.T) {
	openTestDB(t)

	ident, err := Resolve("0:test-root-token")
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}
	if !ident.Root {
		t.Fatal("identity not flagged root")
	}
	if ident.Actor() != "session_0" {
		t.Errorf("root actor %q, want session_0", ident.Actor())
	}

	if _, err := Resolve("0:wrong"); !apperr.IsKind(err, apperr.KindInvalidRootToken) {
		t.Errorf("wrong root secret: expected invalid root token, got %v", err)
	}
	if _, err := Resolve("0:"); !apperr.IsKind(err, apperr.KindInvalidRootToken) {
		t.Errorf("empty root secret: expected invalid root token, got %v", err)
	}
}

func TestResolve_Malformed(t *testing.T) {
	openTestDB(t)
	for _, token := range []string{"", "no-colon", "abc:def"} {
		if _, err := Resolve(token); !apperr.IsKind(err, apperr.KindMalformedToken) {
			t.Errorf("Resolve(%q): expected malformed token, got %v", token, err)
		}
	}
}

func TestResolve_Session(t *testing.T) {
	gdb := openTestDB(t)
	token, account := seedSession(t, gdb)

	ident, err := Resolve(token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident.Root {
		t.Fatal("session identity flagged root")
	}
	if ident.Account.ID != account.ID {
		t.Errorf("resolved account %d, want %d", ident.Account.ID, account.ID)
	}
	if ident.Actor() != "session_1" {
		t.Errorf("actor %q, want session_1", ident.Actor())
	}

	if _, err := Resolve("1:wrong-secret"); !apperr.IsKind(err, apperr.KindInvalidToken) {
		t.Errorf("wrong secret: expected invalid token, got %v", err)
	}
	if _, err := Resolve("999:whatever"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown session: expected not found, got %v", err)
	}
}

func TestResolve_DeletedSession(t *testing.T) {
	gdb := openTestDB(t)
	token, _ := seedSession(t, gdb)

	gdb.Model(&models.Session{}).Where("id = ?", 1).Update("is_deleted", true)
	if _, err := Resolve(token); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("deleted session: expected not found, got %v", err)
	}
}

// TestGuard_RootBypass: AllowRoot admits root with no permission rows at all,
// but a guard without the flag keeps even root out.
func TestGuard_RootBypass(t *testing.T) {
	openTestDB(t)

	open := Guard{Permissions: []string{"partners"}, AllowRoot: true}
	if _, err := open.Authorize("0:test-root-token"); err != nil {
		t.Fatalf("root through AllowRoot guard: %v", err)
	}

	closed := Guard{Permissions: []string{"partners"}}
	_, err := closed.Authorize("0:test-root-token")
	if !apperr.IsKind(err, apperr.KindMissingPermission) {
		t.Fatalf("root through session-only guard: expected missing permission, got %v", err)
	}
}

// TestGuard_PermissionUnion walks the account -> role -> permission chain and
// checks that soft-deleting any link breaks it.
func TestGuard_PermissionUnion(t *testing.T) {
	gdb := openTestDB(t)
	token, account := seedSession(t, gdb)

	permission := models.Permission{IDStr: "partners", Name: "Manage partners"}
	role := models.Role{Name: "support"}
	gdb.Create(&permission)
	gdb.Create(&role)
	link := models.RolePermission{RoleID: role.ID, PermissionID: permission.ID}
	gdb.Create(&link)
	attach := models.AccountRole{AccountID: account.ID, RoleID: role.ID}
	gdb.Create(&attach)

	guard := Guard{Permissions: []string{"partners"}}
	if _, err := guard.Authorize(token); err != nil {
		t.Fatalf("granted chain: %v", err)
	}

	gdb.Model(&attach).Update("is_deleted", true)
	_, err := guard.Authorize(token)
	if !apperr.IsKind(err, apperr.KindMissingPermission) {
		t.Fatalf("detached role: expected missing permission, got %v", err)
	}
}
