package handlers

import (
	"net/http"

	"github.com/refprog/backend/internal/services"
)

func PromotionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token                string  `json:"token"`
		Name                 string  `json:"name"`
		ReferrerBonus        float64 `json:"referrer_bonus"`
		ReferralBonus        float64 `json:"referral_bonus"`
		SmsTextPartnerCreate string  `json:"sms_text_partner_create"`
		SmsTextForReferral   string  `json:"sms_text_for_referral"`
		SmsTextReferralBonus string  `json:"sms_text_referral_bonus"`
		SmsTextReferrerBonus string  `json:"sms_text_referrer_bonus"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.PromotionCreate(req.Token, services.PromotionInput{
		Name:                 req.Name,
		ReferrerBonus:        req.ReferrerBonus,
		ReferralBonus:        req.ReferralBonus,
		SmsTextPartnerCreate: req.SmsTextPartnerCreate,
		SmsTextForReferral:   req.SmsTextForReferral,
		SmsTextReferralBonus: req.SmsTextReferralBonus,
		SmsTextReferrerBonus: req.SmsTextReferrerBonus,
	})
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

func PromotionUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token                string   `json:"token"`
		ID                   uint     `json:"id"`
		ReferrerBonus        *float64 `json:"referrer_bonus"`
		ReferralBonus        *float64 `json:"referral_bonus"`
		SmsTextPartnerCreate *string  `json:"sms_text_partner_create"`
		SmsTextForReferral   *string  `json:"sms_text_for_referral"`
		SmsTextReferralBonus *string  `json:"sms_text_referral_bonus"`
		SmsTextReferrerBonus *string  `json:"sms_text_referrer_bonus"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	err := services.PromotionUpdate(req.Token, req.ID, services.PromotionPatch{
		ReferrerBonus:        req.ReferrerBonus,
		ReferralBonus:        req.ReferralBonus,
		SmsTextPartnerCreate: req.SmsTextPartnerCreate,
		SmsTextForReferral:   req.SmsTextForReferral,
		SmsTextReferralBonus: req.SmsTextReferralBonus,
		SmsTextReferrerBonus: req.SmsTextReferrerBonus,
	})
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func PromotionDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.PromotionDelete(req.Token, req.ID); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func PromotionGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	promotion, err := services.PromotionGet(req.Token, req.ID)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"promotion": promotion})
}

func PromotionList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	promotions, err := services.PromotionList(req.Token)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"promotions": promotions})
}
