package handlers

import (
	"net/http"

	"github.com/refprog/backend/internal/services"
)

func AccountCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Username string `json:"username"`
		Password string `json:"password"`
		Role     uint   `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.AccountCreate(req.Token, req.Username, req.Password, req.Role)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func AccountUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string  `json:"token"`
		ID       uint    `json:"id"`
		Username *string `json:"username"`
		Password *string `json:"password"`
		IsActive *bool   `json:"is_active"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	err := services.AccountUpdate(req.Token, req.ID, services.AccountPatch{
		Username: req.Username,
		Password: req.Password,
		IsActive: req.IsActive,
	})
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func AccountDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.AccountDelete(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func AccountGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}

	// id 0 means "me": any live session may read itself.
	var (
		account map[string]any
		err     error
	)
	if req.ID == 0 {
		account, err = services.AccountGetSelf(req.Token)
	} else {
		account, err = services.AccountGet(req.Token, req.ID)
	}
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"account": account})
}

func AccountList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Page  int    `json:"page"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	accounts, err := services.AccountList(req.Token, req.Page)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"accounts": accounts})
}

func AccountRoleAttach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string `json:"token"`
		Account uint   `json:"account"`
		Role    uint   `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.AccountRoleAttach(req.Token, req.Account, req.Role)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func AccountRoleDetach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.AccountRoleDetach(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func SessionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	token, err := services.SessionCreate(req.Username, req.Password)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"token": token})
}

func SessionDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.SessionDelete(req.Token); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}
