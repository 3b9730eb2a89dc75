package handlers

import (
	"net/http"

	"github.com/refprog/backend/internal/services"
)

func ReferralCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token  string `json:"token"`
		Code   string `json:"code"`
		Client uint   `json:"client"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.ReferralCreate(req.Token, req.Code, req.Client)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func ReferralAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Code  string `json:"code"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	result, err := services.ReferralAdd(req.Token, req.Code, req.Name, req.Phone)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, result)
}

func ReferralDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.ReferralDelete(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func ReferralGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	referral, err := services.ReferralGet(req.Token, req.ID)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"referral": referral})
}

func ReferralList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string `json:"token"`
		Partner uint   `json:"partner"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	referrals, err := services.ReferralListByPartner(req.Token, req.Partner)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"referrals": referrals})
}

func LeadUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		ID          uint   `json:"id"`
		IsProcessed bool   `json:"is_processed"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.LeadUpdate(req.Token, req.ID, req.IsProcessed); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func LeadList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string `json:"token"`
		Partner uint   `json:"partner"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	leads, err := services.LeadListByPartner(req.Token, req.Partner)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"leads": leads})
}

func ClickDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.ClickDelete(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func ClickList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string `json:"token"`
		Partner uint   `json:"partner"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	clicks, err := services.ClickListByPartner(req.Token, req.Partner)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"clicks": clicks})
}
