package handlers

import (
	"net/http"

	"github.com/refprog/backend/internal/services"
)

func RoleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.RoleCreate(req.Token, req.Name)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func RoleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.RoleDelete(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func RoleGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	role, err := services.RoleGet(req.Token, req.ID)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"role": role})
}

func RoleList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	roles, err := services.RoleList(req.Token)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"roles": roles})
}

func RolePermissionAttach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token      string `json:"token"`
		Role       uint   `json:"role"`
		Permission string `json:"permission"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.RolePermissionAttach(req.Token, req.Role, req.Permission)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func RolePermissionDetach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.RolePermissionDetach(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func PermissionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		IDStr string `json:"id_str"`
		Name  string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.PermissionCreate(req.Token, req.IDStr, req.Name)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func PermissionDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		IDStr string `json:"id_str"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.PermissionDelete(req.Token, req.IDStr); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func PermissionList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	permissions, err := services.PermissionList(req.Token)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"permissions": permissions})
}
