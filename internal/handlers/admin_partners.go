package handlers

import (
	"net/http"

	"github.com/refprog/backend/internal/services"
)

func PartnerCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token     string `json:"token"`
		Promotion uint   `json:"promotion"`
		Client    uint   `json:"client"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.PartnerCreate(req.Token, req.Promotion, req.Client)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func PartnerDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.PartnerDelete(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func PartnerDeleteByPhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token     string `json:"token"`
		Phone     string `json:"phone"`
		Promotion uint   `json:"promotion"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.PartnerDeleteByPhone(req.Token, req.Phone, req.Promotion); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func PartnerGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Code  string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	partner, err := services.PartnerGetByCode(req.Token, req.Code)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"partner": partner})
}

func PartnerList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token     string `json:"token"`
		Promotion uint   `json:"promotion"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	partners, err := services.PartnerListByPromotion(req.Token, req.Promotion)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"partners": partners})
}
