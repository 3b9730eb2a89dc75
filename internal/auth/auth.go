// Package auth turns opaque "<session_id>:<secret>" tokens into identities
// and gates operations on permission id_strs. It is the single chokepoint for
// access control: every admin service method goes through a Guard.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/config"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/secrets"
)

// Identity is either the synthetic root (never persisted, session id 0) or a
// resolved session with its owning account.
type Identity struct {
	Root    bool
	Session *models.Session
	Account *models.Account
}

// Actor is the audit-trail name of this identity.
func (id *Identity) Actor() string {
	if id.Root {
		return "session_0"
	}
	return fmt.Sprintf("session_%d", id.Session.ID)
}

// Resolve authenticates a token. It is a pure read: no sliding expiry, no
// last-seen tracking.
func Resolve(token string) (*Identity, error) {
	idStr, secret, found := strings.Cut(token, ":")
	if !found {
		return nil, apperr.MalformedToken()
	}
	sessionID, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return nil, apperr.MalformedToken()
	}

	if sessionID == 0 {
		// Operational bootstrap credential, compared as configured.
		if secret != config.Get().RootToken || secret == "" {
			return nil, apperr.InvalidRootToken()
		}
		return &Identity{
			Root:    true,
			Account: &models.Account{ID: 0, Username: "root", IsActive: true},
		}, nil
	}

	var session models.Session
	err = db.Conn().Preload("Account").
		Where("id = ? AND is_deleted = ?", sessionID, false).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Session", "id", sessionID)
	}
	if err != nil {
		return nil, err
	}

	if session.TokenHash != secrets.Hash(secret, session.TokenSalt) {
		return nil, apperr.InvalidToken()
	}
	return &Identity{Session: &session, Account: &session.Account}, nil
}

// PermissionSet is the deduplicated union of permission id_strs reachable
// through every non-deleted role attached to the account. Root's set is
// empty; the Guard's root bypass is what elevates it.
func PermissionSet(account *models.Account) (map[string]struct{}, error) {
	if account == nil || account.ID == 0 {
		return map[string]struct{}{}, nil
	}

	var idStrs []string
	err := db.Conn().Table("account_roles").
		Select("permissions.id_str").
		Joins("JOIN roles ON roles.id = account_roles.role_id AND roles.is_deleted = ?", false).
		Joins("JOIN role_permissions ON role_permissions.role_id = roles.id AND role_permissions.is_deleted = ?", false).
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("account_roles.account_id = ? AND account_roles.is_deleted = ?", account.ID, false).
		Scan(&idStrs).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(idStrs))
	for _, s := range idStrs {
		set[s] = struct{}{}
	}
	return set, nil
}

// Guard wraps an operation with a declared permission requirement. A zero
// Guard only requires a valid session.
type Guard struct {
	Permissions []string
	AllowRoot   bool
}

// Authorize resolves the token and enforces the guard's requirements,
// returning the identity the operation runs as.
func (g Guard) Authorize(token string) (*Identity, error) {
	ident, err := Resolve(token)
	if err != nil {
		return nil, err
	}

	if ident.Root && g.AllowRoot {
		return ident, nil
	}

	if len(g.Permissions) > 0 {
		held, err := PermissionSet(ident.Account)
		if err != nil {
			return nil, err
		}
		for _, required := range g.Permissions {
			if _, ok := held[required]; !ok {
				return nil, apperr.MissingPermission(required)
			}
		}
	}
	return ident, nil
}
