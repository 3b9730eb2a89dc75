package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/auth"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/store"
)

var roleGuard = auth.Guard{Permissions: []string{"roles"}, AllowRoot: true}

func RoleCreate(token, name string) (uint, error) {
	ident, err := roleGuard.Authorize(token)
	if err != nil {
		return 0, err
	}

	role := models.Role{Name: name}
	if err := db.Conn().Create(&role).Error; err != nil {
		return 0, err
	}
	recordAction("role", role.ID, "create", map[string]any{
		"creator": ident.Actor(),
		"name":    name,
	})
	return role.ID, nil
}

func RoleDelete(token string, id uint) error {
	ident, err := roleGuard.Authorize(token)
	if err != nil {
		return err
	}
	var role models.Role
	if err := store.FirstActive(&role, "Role", "id", id, "id = ?", id); err != nil {
		return err
	}
	if err := store.SoftDelete(&role); err != nil {
		return err
	}
	recordAction("role", role.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}

func RoleGet(token string, id uint) (map[string]any, error) {
	if _, err := roleGuard.Authorize(token); err != nil {
		return nil, err
	}
	var role models.Role
	if err := store.FirstActive(&role, "Role", "id", id, "id = ?", id); err != nil {
		return nil, err
	}
	return roleDict(&role)
}

func RoleList(token string) ([]map[string]any, error) {
	if _, err := roleGuard.Authorize(token); err != nil {
		return nil, err
	}
	var roles []models.Role
	if err := db.Conn().Where("is_deleted = ?", false).Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(roles))
	for i := range roles {
		d, err := roleDict(&roles[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// RolePermissionAttach grants a permission (by id_str) to a role.
func RolePermissionAttach(token string, roleID uint, permissionIDStr string) (uint, error) {
	ident, err := roleGuard.Authorize(token)
	if err != nil {
		return 0, err
	}

	var role models.Role
	if err := store.FirstActive(&role, "Role", "id", roleID, "id = ?", roleID); err != nil {
		return 0, err
	}
	permission, err := permissionByIDStr(permissionIDStr)
	if err != nil {
		return 0, err
	}

	var existing models.RolePermission
	err = db.Conn().
		Where("role_id = ? AND permission_id = ? AND is_deleted = ?", roleID, permission.ID, false).
		First(&existing).Error
	if err == nil {
		return 0, apperr.AlreadyExists("RolePermission", "role_id, permission", []any{roleID, permissionIDStr}, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	link := models.RolePermission{RoleID: roleID, PermissionID: permission.ID}
	if err := db.Conn().Create(&link).Error; err != nil {
		return 0, err
	}
	recordAction("role_permission", link.ID, "create", map[string]any{
		"creator":    ident.Actor(),
		"role":       roleID,
		"permission": permissionIDStr,
	})
	return link.ID, nil
}

func RolePermissionDetach(token string, id uint) error {
	ident, err := roleGuard.Authorize(token)
	if err != nil {
		return err
	}
	var link models.RolePermission
	if err := store.FirstActive(&link, "RolePermission", "id", id, "id = ?", id); err != nil {
		return err
	}
	if err := store.SoftDelete(&link); err != nil {
		return err
	}
	recordAction("role_permission", link.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}

func roleDict(role *models.Role) (map[string]any, error) {
	type permRow struct {
		ID    uint
		IDStr string
		Name  string
	}
	var perms []permRow
	err := db.Conn().Table("role_permissions").
		Select("role_permissions.id AS id, permissions.id_str AS id_str, permissions.name AS name").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id = ? AND role_permissions.is_deleted = ?", role.ID, false).
		Scan(&perms).Error
	if err != nil {
		return nil, err
	}

	permDicts := make([]map[string]any, 0, len(perms))
	for _, p := range perms {
		permDicts = append(permDicts, map[string]any{
			"id":     p.ID,
			"id_str": p.IDStr,
			"name":   p.Name,
		})
	}
	return map[string]any{
		"id":          role.ID,
		"name":        role.Name,
		"permissions": permDicts,
	}, nil
}
