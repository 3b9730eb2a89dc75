package services

import (
	"time"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/auth"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/store"
)

var promotionGuard = auth.Guard{Permissions: []string{"promotions"}, AllowRoot: true}

type PromotionInput struct {
	Name                 string
	ReferrerBonus        float64
	ReferralBonus        float64
	SmsTextPartnerCreate string
	SmsTextForReferral   string
	SmsTextReferralBonus string
	SmsTextReferrerBonus string
}

func PromotionCreate(token string, in PromotionInput) (uint, error) {
	ident, err := promotionGuard.Authorize(token)
	if err != nil {
		return 0, err
	}

	promotion := models.Promotion{
		Name:                 in.Name,
		ReferrerBonus:        in.ReferrerBonus,
		ReferralBonus:        in.ReferralBonus,
		SmsTextPartnerCreate: in.SmsTextPartnerCreate,
		SmsTextForReferral:   in.SmsTextForReferral,
		SmsTextReferralBonus: in.SmsTextReferralBonus,
		SmsTextReferrerBonus: in.SmsTextReferrerBonus,
	}
	if err := db.Conn().Create(&promotion).Error; err != nil {
		return 0, err
	}
	recordAction("promotion", promotion.ID, "create", map[string]any{
		"creator":        ident.Actor(),
		"name":           in.Name,
		"referrer_bonus": in.ReferrerBonus,
		"referral_bonus": in.ReferralBonus,
	})
	return promotion.ID, nil
}

// PromotionPatch carries the optional fields of an update; nil means keep.
type PromotionPatch struct {
	ReferrerBonus        *float64
	ReferralBonus        *float64
	SmsTextPartnerCreate *string
	SmsTextForReferral   *string
	SmsTextReferralBonus *string
	SmsTextReferrerBonus *string
}

func (p PromotionPatch) empty() bool {
	return p.ReferrerBonus == nil && p.ReferralBonus == nil &&
		p.SmsTextPartnerCreate == nil && p.SmsTextForReferral == nil &&
		p.SmsTextReferralBonus == nil && p.SmsTextReferrerBonus == nil
}

func PromotionUpdate(token string, id uint, patch PromotionPatch) error {
	ident, err := promotionGuard.Authorize(token)
	if err != nil {
		return err
	}
	if patch.empty() {
		return apperr.MissingRequiredParameter(
			"referrer_bonus", "referral_bonus",
			"sms_text_partner_create", "sms_text_for_referral",
			"sms_text_referral_bonus", "sms_text_referrer_bonus",
		)
	}

	var promotion models.Promotion
	if err := store.FirstActive(&promotion, "Promotion", "id", id, "id = ?", id); err != nil {
		return err
	}

	updates := map[string]any{}
	params := map[string]any{"updater": ident.Actor()}
	set := func(column string, value any) {
		updates[column] = value
		params[column] = value
	}

	if patch.ReferrerBonus != nil {
		set("referrer_bonus", *patch.ReferrerBonus)
	}
	if patch.ReferralBonus != nil {
		set("referral_bonus", *patch.ReferralBonus)
	}
	if patch.SmsTextPartnerCreate != nil {
		set("sms_text_partner_create", *patch.SmsTextPartnerCreate)
	}
	if patch.SmsTextForReferral != nil {
		set("sms_text_for_referral", *patch.SmsTextForReferral)
	}
	if patch.SmsTextReferralBonus != nil {
		set("sms_text_referral_bonus", *patch.SmsTextReferralBonus)
	}
	if patch.SmsTextReferrerBonus != nil {
		set("sms_text_referrer_bonus", *patch.SmsTextReferrerBonus)
	}

	if err := db.Conn().Model(&promotion).Updates(updates).Error; err != nil {
		return err
	}
	recordAction("promotion", promotion.ID, "update", params)
	return nil
}

func PromotionDelete(token string, id uint) error {
	ident, err := promotionGuard.Authorize(token)
	if err != nil {
		return err
	}
	var promotion models.Promotion
	if err := store.FirstActive(&promotion, "Promotion", "id", id, "id = ?", id); err != nil {
		return err
	}
	if err := store.SoftDelete(&promotion); err != nil {
		return err
	}
	recordAction("promotion", promotion.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}

func PromotionGet(token string, id uint) (map[string]any, error) {
	if _, err := promotionGuard.Authorize(token); err != nil {
		return nil, err
	}
	var promotion models.Promotion
	if err := store.FirstActive(&promotion, "Promotion", "id", id, "id = ?", id); err != nil {
		return nil, err
	}
	return promotionDict(&promotion)
}

func PromotionList(token string) ([]map[string]any, error) {
	if _, err := promotionGuard.Authorize(token); err != nil {
		return nil, err
	}
	var promotions []models.Promotion
	if err := db.Conn().Where("is_deleted = ?", false).Order("id").Find(&promotions).Error; err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(promotions))
	for i := range promotions {
		d, err := promotionDict(&promotions[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// promotionDict bundles the promotion with its live partners and the
// total/week/day attribution counters the dashboard shows.
func promotionDict(promotion *models.Promotion) (map[string]any, error) {
	var partners []models.Partner
	err := db.Conn().Preload("Client").
		Where("promotion_id = ? AND is_deleted = ?", promotion.ID, false).
		Find(&partners).Error
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]uint, 0, len(partners))
	partnerDicts := make([]map[string]any, 0, len(partners))
	for i := range partners {
		partnerIDs = append(partnerIDs, partners[i].ID)
		d, err := partnerDict(&partners[i])
		if err != nil {
			return nil, err
		}
		partnerDicts = append(partnerDicts, d)
	}

	referrals, err := windowedCounts("referrals", partnerIDs)
	if err != nil {
		return nil, err
	}
	clicks, err := windowedCounts("clicks", partnerIDs)
	if err != nil {
		return nil, err
	}
	leads, err := windowedCounts("leads", partnerIDs)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"id":                      promotion.ID,
		"name":                    promotion.Name,
		"referrer_bonus":          promotion.ReferrerBonus,
		"referral_bonus":          promotion.ReferralBonus,
		"sms_text_partner_create": promotion.SmsTextPartnerCreate,
		"sms_text_for_referral":   promotion.SmsTextForReferral,
		"sms_text_referral_bonus": promotion.SmsTextReferralBonus,
		"sms_text_referrer_bonus": promotion.SmsTextReferrerBonus,
		"partners":                partnerDicts,
		"total_referrals":         referrals.total,
		"week_referrals":          referrals.week,
		"day_referrals":           referrals.day,
		"total_clicks":            clicks.total,
		"week_clicks":             clicks.week,
		"day_clicks":              clicks.day,
		"total_leads":             leads.total,
		"week_leads":              leads.week,
		"day_leads":               leads.day,
	}, nil
}

type counts struct {
	total int64
	week  int64
	day   int64
}

// windowedCounts returns total / last-7-days / last-24-hours row counts for
// one attribution table, in a single aggregate query.
func windowedCounts(table string, partnerIDs []uint) (counts, error) {
	var c counts
	if len(partnerIDs) == 0 {
		return c, nil
	}
	now := time.Now().UTC()
	row := struct {
		Total int64
		Week  int64
		Day   int64
	}{}
	err := db.Conn().Table(table).
		Select(`COUNT(*) AS total,
			SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END) AS week,
			SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END) AS day`,
			now.Add(-7*24*time.Hour), now.Add(-24*time.Hour)).
		Where("partner_id IN ?", partnerIDs).
		Scan(&row).Error
	if err != nil {
		return c, err
	}
	return counts{total: row.Total, week: row.Week, day: row.Day}, nil
}
