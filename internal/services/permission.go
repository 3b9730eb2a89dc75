package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/auth"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
)

var permissionGuard = auth.Guard{Permissions: []string{"permissions"}, AllowRoot: true}

func PermissionCreate(token, idStr, name string) (uint, error) {
	ident, err := permissionGuard.Authorize(token)
	if err != nil {
		return 0, err
	}

	var existing models.Permission
	err = db.Conn().Where("id_str = ?", idStr).First(&existing).Error
	if err == nil {
		return 0, apperr.AlreadyExists("Permission", "id_str", idStr, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	permission := models.Permission{IDStr: idStr, Name: name}
	if err := db.Conn().Create(&permission).Error; err != nil {
		return 0, err
	}
	recordAction("permission", permission.ID, "create", map[string]any{
		"creator": ident.Actor(),
		"id_str":  idStr,
		"name":    name,
	})
	return permission.ID, nil
}

// PermissionDelete removes the permission row outright; permissions carry no
// deleted flag.
func PermissionDelete(token, idStr string) error {
	ident, err := permissionGuard.Authorize(token)
	if err != nil {
		return err
	}
	permission, err := permissionByIDStr(idStr)
	if err != nil {
		return err
	}
	if err := db.Conn().Delete(permission).Error; err != nil {
		return err
	}
	recordAction("permission", permission.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
		"id_str":  idStr,
	})
	return nil
}

func PermissionList(token string) ([]map[string]any, error) {
	if _, err := permissionGuard.Authorize(token); err != nil {
		return nil, err
	}
	var permissions []models.Permission
	if err := db.Conn().Order("id").Find(&permissions).Error; err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(permissions))
	for _, p := range permissions {
		out = append(out, map[string]any{
			"id":     p.ID,
			"id_str": p.IDStr,
			"name":   p.Name,
		})
	}
	return out, nil
}

func permissionByIDStr(idStr string) (*models.Permission, error) {
	var permission models.Permission
	err := db.Conn().Where("id_str = ?", idStr).First(&permission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Permission", "id_str", idStr)
	}
	if err != nil {
		return nil, err
	}
	return &permission, nil
}

// builtinPermissions are seeded at startup so role assembly never starts
// from an empty catalog.
var builtinPermissions = map[string]string{
	"accounts":    "Manage accounts",
	"roles":       "Manage roles",
	"permissions": "Manage permissions",
	"promotions":  "Manage promotions",
	"partners":    "Manage partners",
	"clients":     "Manage clients",
	"referrals":   "Manage referrals",
}

// SeedPermissions inserts any missing built-in permission rows.
func SeedPermissions() error {
	for idStr, name := range builtinPermissions {
		var existing models.Permission
		err := db.Conn().Where("id_str = ?", idStr).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Conn().Create(&models.Permission{IDStr: idStr, Name: name}).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
