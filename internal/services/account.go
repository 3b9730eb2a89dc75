package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/auth"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/secrets"
	"github.com/refprog/backend/internal/store"
)

var (
	accountCreateGuard = auth.Guard{AllowRoot: true}
	accountGuard       = auth.Guard{Permissions: []string{"accounts"}}
	accountRolesGuard  = auth.Guard{Permissions: []string{"accounts"}, AllowRoot: true}
	sessionOnlyGuard   = auth.Guard{}
)

// AccountCreate registers a new admin account, optionally attaching an
// initial role.
func AccountCreate(token, username, password string, roleID uint) (uint, error) {
	ident, err := accountCreateGuard.Authorize(token)
	if err != nil {
		return 0, err
	}

	if err := checkUsernameFree(username); err != nil {
		return 0, err
	}

	salt := secrets.NewSalt()
	account := models.Account{
		Username:     username,
		PasswordSalt: salt,
		PasswordHash: secrets.Hash(password, salt),
	}
	if err := db.Conn().Create(&account).Error; err != nil {
		return 0, err
	}

	if roleID != 0 {
		if _, err := attachRole(ident.Actor(), account.ID, roleID); err != nil {
			return 0, err
		}
	}

	recordAction("account", account.ID, "create", map[string]any{
		"creator":  ident.Actor(),
		"username": username,
	})
	return account.ID, nil
}

// AccountPatch names the fields an update may change. Nil pointers are left
// untouched; a patch with nothing set is rejected.
type AccountPatch struct {
	Username *string
	Password *string
	IsActive *bool
}

func (p AccountPatch) empty() bool {
	return p.Username == nil && p.Password == nil && p.IsActive == nil
}

// AccountUpdate applies a patch to the given account, or to the caller's own
// account when id is 0.
func AccountUpdate(token string, id uint, patch AccountPatch) error {
	ident, err := accountGuard.Authorize(token)
	if err != nil {
		return err
	}
	if patch.empty() {
		return apperr.MissingRequiredParameter("username", "password", "is_active")
	}

	var account models.Account
	if id != 0 {
		if err := store.FirstActive(&account, "Account", "id", id, "id = ?", id); err != nil {
			return err
		}
	} else {
		if ident.Root {
			return apperr.NotFound("Account", "id", 0)
		}
		account = *ident.Account
	}

	updates := map[string]any{}
	params := map[string]any{"updater": ident.Actor()}

	if patch.Username != nil && *patch.Username != account.Username {
		if err := checkUsernameFree(*patch.Username); err != nil {
			return err
		}
		updates["username"] = *patch.Username
		params["username"] = *patch.Username
	}
	if patch.Password != nil {
		salt := secrets.NewSalt()
		updates["password_salt"] = salt
		updates["password_hash"] = secrets.Hash(*patch.Password, salt)
		params["password"] = "updated"
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
		params["is_active"] = *patch.IsActive
	}

	if len(updates) > 0 {
		if err := db.Conn().Model(&account).Updates(updates).Error; err != nil {
			return err
		}
	}
	recordAction("account", account.ID, "update", params)
	return nil
}

func AccountDelete(token string, id uint) error {
	ident, err := sessionOnlyGuard.Authorize(token)
	if err != nil {
		return err
	}

	var account models.Account
	if err := store.FirstActive(&account, "Account", "id", id, "id = ?", id); err != nil {
		return err
	}
	if err := store.SoftDelete(&account); err != nil {
		return err
	}
	recordAction("account", account.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}

func AccountGet(token string, id uint) (map[string]any, error) {
	if _, err := accountGuard.Authorize(token); err != nil {
		return nil, err
	}
	var account models.Account
	if err := store.FirstActive(&account, "Account", "id", id, "id = ?", id); err != nil {
		return nil, err
	}
	return accountDict(&account, false)
}

// AccountGetSelf returns the caller's own account with its resolved
// permission set.
func AccountGetSelf(token string) (map[string]any, error) {
	ident, err := sessionOnlyGuard.Authorize(token)
	if err != nil {
		return nil, err
	}
	if ident.Root {
		return map[string]any{"id": 0, "username": "root", "is_active": true}, nil
	}
	return accountDict(ident.Account, true)
}

func AccountList(token string, page int) ([]map[string]any, error) {
	if _, err := sessionOnlyGuard.Authorize(token); err != nil {
		return nil, err
	}

	var accounts []models.Account
	q := db.Conn().Where("is_deleted = ?", false).Order("id")
	if page > 0 {
		per := configItemsPerPage()
		q = q.Offset((page - 1) * per).Limit(per)
	}
	if err := q.Find(&accounts).Error; err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(accounts))
	for i := range accounts {
		d, err := accountDict(&accounts[i], false)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// AccountRoleAttach links a role to an account. Attaching a role hands out
// every permission it carries, so this is gated the same as account edits.
func AccountRoleAttach(token string, accountID, roleID uint) (uint, error) {
	ident, err := accountRolesGuard.Authorize(token)
	if err != nil {
		return 0, err
	}
	return attachRole(ident.Actor(), accountID, roleID)
}

func attachRole(actor string, accountID, roleID uint) (uint, error) {
	var account models.Account
	if err := store.FirstActive(&account, "Account", "id", accountID, "id = ?", accountID); err != nil {
		return 0, err
	}
	var role models.Role
	if err := store.FirstActive(&role, "Role", "id", roleID, "id = ?", roleID); err != nil {
		return 0, err
	}

	var existing models.AccountRole
	err := db.Conn().
		Where("account_id = ? AND role_id = ? AND is_deleted = ?", accountID, roleID, false).
		First(&existing).Error
	if err == nil {
		return 0, apperr.AlreadyExists("AccountRole", "account_id, role_id", []uint{accountID, roleID}, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	link := models.AccountRole{AccountID: accountID, RoleID: roleID}
	if err := db.Conn().Create(&link).Error; err != nil {
		return 0, err
	}
	recordAction("account_role", link.ID, "create", map[string]any{
		"creator": actor,
		"account": accountID,
		"role":    roleID,
	})
	return link.ID, nil
}

func AccountRoleDetach(token string, id uint) error {
	ident, err := accountRolesGuard.Authorize(token)
	if err != nil {
		return err
	}
	var link models.AccountRole
	if err := store.FirstActive(&link, "AccountRole", "id", id, "id = ?", id); err != nil {
		return err
	}
	if err := store.SoftDelete(&link); err != nil {
		return err
	}
	recordAction("account_role", link.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}

func checkUsernameFree(username string) error {
	var existing models.Account
	err := db.Conn().Where("username = ? AND is_deleted = ?", username, false).First(&existing).Error
	if err == nil {
		return apperr.AlreadyExists("Account", "username", username, existing.ID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func accountDict(account *models.Account, withPermissions bool) (map[string]any, error) {
	type roleRow struct {
		ID     uint
		RoleID uint
		Name   string
	}
	var roles []roleRow
	err := db.Conn().Table("account_roles").
		Select("account_roles.id AS id, roles.id AS role_id, roles.name AS name").
		Joins("JOIN roles ON roles.id = account_roles.role_id AND roles.is_deleted = ?", false).
		Where("account_roles.account_id = ? AND account_roles.is_deleted = ?", account.ID, false).
		Scan(&roles).Error
	if err != nil {
		return nil, err
	}

	roleDicts := make([]map[string]any, 0, len(roles))
	for _, r := range roles {
		roleDicts = append(roleDicts, map[string]any{
			"id":      r.ID,
			"role_id": r.RoleID,
			"name":    r.Name,
		})
	}

	d := map[string]any{
		"id":        account.ID,
		"username":  account.Username,
		"roles":     roleDicts,
		"is_active": account.IsActive,
	}
	if withPermissions {
		set, err := auth.PermissionSet(account)
		if err != nil {
			return nil, err
		}
		perms := make([]string, 0, len(set))
		for p := range set {
			perms = append(perms, p)
		}
		d["permissions"] = perms
	}
	return d, nil
}
