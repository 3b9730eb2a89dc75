package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/auth"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/sms"
	"github.com/refprog/backend/internal/store"
)

var (
	referralGuard    = auth.Guard{Permissions: []string{"referrals"}, AllowRoot: true}
	referralAddGuard = auth.Guard{Permissions: []string{"referrals", "partners"}, AllowRoot: true}
)

// ReferralCreate links an existing client to the partner holding code.
func ReferralCreate(token, code string, clientID uint) (uint, error) {
	ident, err := referralGuard.Authorize(token)
	if err != nil {
		return 0, err
	}
	referral, err := createReferral(ident.Actor(), code, clientID)
	if err != nil {
		return 0, err
	}
	return referral.ID, nil
}

func createReferral(actor, code string, clientID uint) (*models.Referral, error) {
	partner, err := partnerByCode(code)
	if err != nil {
		return nil, err
	}
	var client models.Client
	if err := store.FirstActive(&client, "Client", "id", clientID, "id = ?", clientID); err != nil {
		return nil, err
	}

	unlock := createLocks.Lock("referral:" + code)
	defer unlock()

	var existing models.Referral
	err = db.Conn().
		Where("partner_id = ? AND client_id = ?", partner.ID, clientID).
		First(&existing).Error
	if err == nil {
		return nil, apperr.AlreadyExists("Referral", "partner, client", []uint{partner.ID, clientID}, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	referral := models.Referral{PartnerID: partner.ID, ClientID: clientID}
	if err := db.Conn().Create(&referral).Error; err != nil {
		return nil, err
	}
	recordAction("referral", referral.ID, "create", map[string]any{
		"creator": actor,
		"partner": partner.ID,
		"client":  clientID,
	})
	return &referral, nil
}

// ReferralAdd is the one-shot admin flow: register the referred person as a
// client, link them to the partner, and fire both bonus messages.
func ReferralAdd(token, code, name, phone string) (map[string]any, error) {
	ident, err := referralAddGuard.Authorize(token)
	if err != nil {
		return nil, err
	}

	partner, err := partnerByCode(code)
	if err != nil {
		return nil, err
	}
	var promotion models.Promotion
	if err := store.ByIDAnyState(&promotion, "Promotion", partner.PromotionID); err != nil {
		return nil, err
	}

	client, err := createClient(ident.Actor(), ClientInput{Fullname: name, Phone: phone})
	if err != nil {
		return nil, err
	}
	referral, err := createReferral(ident.Actor(), code, client.ID)
	if err != nil {
		return nil, err
	}

	partnerClient := partner.Client
	if promotion.SmsTextReferralBonus != "" {
		msg := sms.Render(promotion.SmsTextReferralBonus, map[string]string{
			"name":           clientFullname(client),
			"referral_bonus": formatBonus(promotion.ReferralBonus),
		})
		sms.Notify("referral", referral.ID, client.Phone, msg)
	}
	if promotion.SmsTextReferrerBonus != "" {
		msg := sms.Render(promotion.SmsTextReferrerBonus, map[string]string{
			"fullname":       clientFullname(&partnerClient),
			"referrer_bonus": formatBonus(promotion.ReferrerBonus),
		})
		sms.Notify("partner", partner.ID, partnerClient.Phone, msg)
	}

	return map[string]any{
		"partner": map[string]any{
			"fullname": clientFullname(&partnerClient),
			"phone":    partnerClient.Phone,
		},
		"promotion": map[string]any{
			"referral_bonus": promotion.ReferralBonus,
			"referrer_bonus": promotion.ReferrerBonus,
		},
	}, nil
}

// ReferralDelete removes the link outright; referrals carry no deleted flag.
func ReferralDelete(token string, id uint) error {
	ident, err := referralGuard.Authorize(token)
	if err != nil {
		return err
	}
	var referral models.Referral
	err = db.Conn().First(&referral, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Referral", "id", id)
	}
	if err != nil {
		return err
	}
	if err := db.Conn().Delete(&referral).Error; err != nil {
		return err
	}
	recordAction("referral", referral.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}

func ReferralGet(token string, id uint) (map[string]any, error) {
	if _, err := referralGuard.Authorize(token); err != nil {
		return nil, err
	}
	var referral models.Referral
	err := db.Conn().First(&referral, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Referral", "id", id)
	}
	if err != nil {
		return nil, err
	}
	return referralDict(&referral), nil
}

func ReferralListByPartner(token string, partnerID uint) ([]map[string]any, error) {
	if _, err := referralGuard.Authorize(token); err != nil {
		return nil, err
	}
	var partner models.Partner
	if err := store.FirstActive(&partner, "Partner", "id", partnerID, "id = ?", partnerID); err != nil {
		return nil, err
	}

	var referrals []models.Referral
	if err := db.Conn().Where("partner_id = ?", partnerID).Find(&referrals).Error; err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(referrals))
	for i := range referrals {
		out = append(out, referralDict(&referrals[i]))
	}
	return out, nil
}

func referralDict(referral *models.Referral) map[string]any {
	return map[string]any{
		"id":         referral.ID,
		"partner":    referral.PartnerID,
		"client":     referral.ClientID,
		"created_at": referral.CreatedAt,
	}
}
