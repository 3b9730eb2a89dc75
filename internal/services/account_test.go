package services

import (
	"strings"
	"testing"

	"github.com/refprog/backend/internal/apperr"
)

// TestSessionLifecycle: register, log in, use the token, log out, and watch
// the token die.
func TestSessionLifecycle(t *testing.T) {
	openTestDB(t)

	if _, err := AccountCreate(rootToken, "operator", "hunter2", 0); err != nil {
		t.Fatalf("create account: %v", err)
	}

	token, err := SessionCreate("operator", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(token, ":") {
		t.Fatalf("token %q not in id:secret form", token)
	}

	me, err := AccountGetSelf(token)
	if err != nil {
		t.Fatalf("get self: %v", err)
	}
	if me["username"] != "operator" {
		t.Errorf("self username %v, want operator", me["username"])
	}

	if err := SessionDelete(token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := AccountGetSelf(token); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("token after logout: expected not found, got %v", err)
	}
}

func TestSessionCreate_WrongPassword(t *testing.T) {
	openTestDB(t)

	if _, err := AccountCreate(rootToken, "operator", "hunter2", 0); err != nil {
		t.Fatalf("create account: %v", err)
	}
	_, err := SessionCreate("operator", "wrong")
	if !apperr.IsKind(err, apperr.KindWrongPassword) {
		t.Fatalf("expected wrong password, got %v", err)
	}
	_, err = SessionCreate("ghost", "hunter2")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown username: expected not found, got %v", err)
	}
}

// TestAccountPermissionGating: a fresh session holds no permissions; granting
// one through a role opens exactly that door.
func TestAccountPermissionGating(t *testing.T) {
	openTestDB(t)
	if err := SeedPermissions(); err != nil {
		t.Fatalf("seed permissions: %v", err)
	}

	accountID, err := AccountCreate(rootToken, "operator", "hunter2", 0)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	token, err := SessionCreate("operator", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = ClientList(token, 0)
	if !apperr.IsKind(err, apperr.KindMissingPermission) {
		t.Fatalf("ungranted call: expected missing permission, got %v", err)
	}

	roleID, err := RoleCreate(rootToken, "support")
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := RolePermissionAttach(rootToken, roleID, "clients"); err != nil {
		t.Fatalf("attach permission: %v", err)
	}
	if _, err := AccountRoleAttach(rootToken, accountID, roleID); err != nil {
		t.Fatalf("attach role: %v", err)
	}

	if _, err := ClientList(token, 0); err != nil {
		t.Fatalf("granted call: %v", err)
	}
	// The grant is narrow: other permissions stay closed.
	_, err = RoleList(token)
	if !apperr.IsKind(err, apperr.KindMissingPermission) {
		t.Errorf("other permission: expected missing permission, got %v", err)
	}
}

// TestAccountRoleAttach_RequiresAccountsPermission: attaching a role hands
// out its permissions, so a session without "accounts" must not be able to
// grant one, least of all to itself.
func TestAccountRoleAttach_RequiresAccountsPermission(t *testing.T) {
	openTestDB(t)
	if err := SeedPermissions(); err != nil {
		t.Fatalf("seed permissions: %v", err)
	}

	accountID, err := AccountCreate(rootToken, "operator", "hunter2", 0)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	roleID, err := RoleCreate(rootToken, "admins")
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := RolePermissionAttach(rootToken, roleID, "accounts"); err != nil {
		t.Fatalf("attach permission: %v", err)
	}

	token, err := SessionCreate("operator", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	_, err = AccountRoleAttach(token, accountID, roleID)
	if !apperr.IsKind(err, apperr.KindMissingPermission) {
		t.Fatalf("self-grant without accounts permission: expected missing permission, got %v", err)
	}

	// Root attaches it; from then on the session passes the same gate.
	if _, err := AccountRoleAttach(rootToken, accountID, roleID); err != nil {
		t.Fatalf("root attach: %v", err)
	}
	otherID, err := AccountCreate(rootToken, "second", "pw", 0)
	if err != nil {
		t.Fatalf("create second account: %v", err)
	}
	if _, err := AccountRoleAttach(token, otherID, roleID); err != nil {
		t.Fatalf("granted attach: %v", err)
	}
}

// TestAccountUpdate_UsernameConflict: a rename onto a live username collides;
// an empty patch is rejected outright.
func TestAccountUpdate_UsernameConflict(t *testing.T) {
	openTestDB(t)
	if err := SeedPermissions(); err != nil {
		t.Fatalf("seed permissions: %v", err)
	}

	if _, err := AccountCreate(rootToken, "first", "pw", 0); err != nil {
		t.Fatalf("create first: %v", err)
	}
	secondID, err := AccountCreate(rootToken, "second", "pw", 0)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	roleID, _ := RoleCreate(rootToken, "admins")
	if _, err := RolePermissionAttach(rootToken, roleID, "accounts"); err != nil {
		t.Fatalf("attach permission: %v", err)
	}
	if _, err := AccountRoleAttach(rootToken, secondID, roleID); err != nil {
		t.Fatalf("attach role: %v", err)
	}
	token, err := SessionCreate("second", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	name := "first"
	err = AccountUpdate(token, secondID, AccountPatch{Username: &name})
	if !apperr.IsKind(err, apperr.KindAlreadyExists) {
		t.Fatalf("rename onto live username: expected already exists, got %v", err)
	}

	err = AccountUpdate(token, secondID, AccountPatch{})
	if !apperr.IsKind(err, apperr.KindMissingRequiredParam) {
		t.Fatalf("empty patch: expected missing required parameters, got %v", err)
	}
}
