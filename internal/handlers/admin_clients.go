package handlers

import (
	"net/http"

	"github.com/refprog/backend/internal/services"
)

func ClientCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token     string `json:"token"`
		UserID    int    `json:"user_id"`
		Fullname  string `json:"fullname"`
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
		Surname   string `json:"surname"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		IsPartner bool   `json:"is_partner"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.ClientCreate(req.Token, services.ClientInput{
		UserID:    req.UserID,
		Fullname:  req.Fullname,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Surname:   req.Surname,
		Email:     req.Email,
		Phone:     req.Phone,
		IsPartner: req.IsPartner,
	})
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func ClientUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token     string  `json:"token"`
		ID        uint    `json:"id"`
		Firstname *string `json:"firstname"`
		Lastname  *string `json:"lastname"`
		Surname   *string `json:"surname"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
		IsPartner *bool   `json:"is_partner"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	err := services.ClientUpdate(req.Token, req.ID, services.ClientPatch{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Surname:   req.Surname,
		Email:     req.Email,
		Phone:     req.Phone,
		IsPartner: req.IsPartner,
	})
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func ClientDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.ClientDelete(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func ClientGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	client, err := services.ClientGet(req.Token, req.ID)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"client": client})
}

func ClientList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Page  int    `json:"page"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	clients, err := services.ClientList(req.Token, req.Page)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"clients": clients})
}

func ClientListPartners(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	clients, err := services.ClientListPartners(req.Token)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"clients": clients})
}
