package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/secrets"
)

// SessionCreate authenticates username/password and issues a new session
// token in the "<id>:<secret>" form. Only the salted hash of the secret is
// stored.
func SessionCreate(username, password string) (string, error) {
	var account models.Account
	err := db.Conn().
		Where("username = ? AND is_deleted = ? AND is_active = ?", username, false, true).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.NotFound("Account", "username", username)
	}
	if err != nil {
		return "", err
	}

	if account.PasswordHash != secrets.Hash(password, account.PasswordSalt) {
		return "", apperr.WrongPassword()
	}

	secret := secrets.NewSecret()
	salt := secrets.NewSalt()
	session := models.Session{
		AccountID: account.ID,
		TokenSalt: salt,
		TokenHash: secrets.Hash(secret, salt),
	}
	if err := db.Conn().Create(&session).Error; err != nil {
		return "", err
	}

	recordAction("session", session.ID, "create", map[string]any{
		"account": account.ID,
	})
	return fmt.Sprintf("%d:%s", session.ID, secret), nil
}

// SessionDelete logs the caller out by soft-deleting their own session. The
// root identity has no persisted session to delete.
func SessionDelete(token string) error {
	ident, err := sessionOnlyGuard.Authorize(token)
	if err != nil {
		return err
	}
	if ident.Root {
		return nil
	}

	if err := db.Conn().Model(ident.Session).Update("is_deleted", true).Error; err != nil {
		return err
	}
	recordAction("session", ident.Session.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}
