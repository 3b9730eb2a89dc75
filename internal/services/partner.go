package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/auth"
	"github.com/refprog/backend/internal/config"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/sms"
	"github.com/refprog/backend/internal/store"
)

var partnerGuard = auth.Guard{Permissions: []string{"partners"}, AllowRoot: true}

// codeLetters is the alphabet used for the letter half of referral codes:
// the Russian uppercase alphabet without the easily-confused Й, Ё, Ы, Ъ, Ь.
const codeLetters = "АБВГДЕЖЗИКЛМНОПРСТУФХЦЧШЩЭЮЯ"

const codeMaxAttempts = 10000

// generateReferralCode draws a candidate code: two letters followed by four
// decimal digits.
func generateReferralCode() string {
	letters := []rune(codeLetters)
	var b strings.Builder
	for i := 0; i < 2; i++ {
		b.WriteRune(letters[rand.Intn(len(letters))])
	}
	for i := 0; i < 4; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}

// newUniqueCode retries generation until the candidate collides with no live
// partner. Attempts are bounded so a saturated code space fails loudly
// instead of spinning forever.
func newUniqueCode() (string, error) {
	for i := 0; i < codeMaxAttempts; i++ {
		code := generateReferralCode()
		var existing models.Partner
		err := db.Conn().Where("code = ? AND is_deleted = ?", code, false).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("partner code space exhausted after %d attempts", codeMaxAttempts)
}

// PartnerCreate grants a client a referral code under a promotion and sends
// the two templated notification messages.
func PartnerCreate(token string, promotionID, clientID uint) (uint, error) {
	ident, err := partnerGuard.Authorize(token)
	if err != nil {
		return 0, err
	}
	partner, err := createPartner(ident.Actor(), promotionID, clientID)
	if err != nil {
		return 0, err
	}
	return partner.ID, nil
}

func createPartner(actor string, promotionID, clientID uint) (*models.Partner, error) {
	var promotion models.Promotion
	if err := store.FirstActive(&promotion, "Promotion", "id", promotionID, "id = ?", promotionID); err != nil {
		return nil, err
	}
	var client models.Client
	if err := store.FirstActive(&client, "Client", "id", clientID, "id = ?", clientID); err != nil {
		return nil, err
	}

	// One lock covers both uniqueness checks: the (client, promotion) pair
	// and the generated code.
	unlock := createLocks.Lock("partner")
	defer unlock()

	var existing models.Partner
	err := db.Conn().
		Where("client_id = ? AND promotion_id = ? AND is_deleted = ?", clientID, promotionID, false).
		First(&existing).Error
	if err == nil {
		return nil, apperr.AlreadyExists("Partner", "client_id", clientID, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	code, err := newUniqueCode()
	if err != nil {
		return nil, err
	}

	partner := models.Partner{
		Code:        code,
		PromotionID: promotionID,
		ClientID:    clientID,
	}
	if err := db.Conn().Create(&partner).Error; err != nil {
		return nil, err
	}

	link := referralLink(code)
	fullname := clientFullname(&client)
	sms.Notify("partner", partner.ID, client.Phone, sms.Render(promotion.SmsTextPartnerCreate, map[string]string{
		"fullname":       fullname,
		"link":           link,
		"referrer_bonus": formatBonus(promotion.ReferrerBonus),
		"referral_bonus": formatBonus(promotion.ReferralBonus),
	}))
	sms.Notify("partner", partner.ID, client.Phone, sms.Render(promotion.SmsTextForReferral, map[string]string{
		"link":           link,
		"referral_bonus": formatBonus(promotion.ReferralBonus),
	}))

	recordAction("partner", partner.ID, "create", map[string]any{
		"creator":   actor,
		"client":    clientID,
		"promotion": promotionID,
		"code":      code,
	})
	return &partner, nil
}

func PartnerDelete(token string, id uint) error {
	ident, err := partnerGuard.Authorize(token)
	if err != nil {
		return err
	}
	var partner models.Partner
	if err := store.FirstActive(&partner, "Partner", "id", id, "id = ?", id); err != nil {
		return err
	}
	return deletePartner(ident.Actor(), &partner)
}

// PartnerDeleteByPhone soft-deletes the partner identified by client phone
// within one promotion. The reconciliation job drives expirations through
// this operation.
func PartnerDeleteByPhone(token, phone string, promotionID uint) error {
	ident, err := partnerGuard.Authorize(token)
	if err != nil {
		return err
	}

	normalized, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	var client models.Client
	err = db.Conn().Where("phone = ?", normalized).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Client", "phone", normalized)
	}
	if err != nil {
		return err
	}

	var partner models.Partner
	if err := store.FirstActive(&partner, "Partner", "client_id",
		client.ID, "client_id = ? AND promotion_id = ?", client.ID, promotionID); err != nil {
		return err
	}
	return deletePartner(ident.Actor(), &partner)
}

func deletePartner(actor string, partner *models.Partner) error {
	if err := store.SoftDelete(partner); err != nil {
		return err
	}
	recordAction("partner", partner.ID, "delete", map[string]any{
		"deleter": actor,
	})
	return nil
}

func PartnerGetByCode(token, code string) (map[string]any, error) {
	if _, err := partnerGuard.Authorize(token); err != nil {
		return nil, err
	}
	partner, err := partnerByCode(code)
	if err != nil {
		return nil, err
	}
	return partnerDict(partner)
}

func PartnerListByPromotion(token string, promotionID uint) ([]map[string]any, error) {
	if _, err := partnerGuard.Authorize(token); err != nil {
		return nil, err
	}
	var promotion models.Promotion
	if err := store.FirstActive(&promotion, "Promotion", "id", promotionID, "id = ?", promotionID); err != nil {
		return nil, err
	}

	var partners []models.Partner
	err := db.Conn().Preload("Client").
		Where("promotion_id = ? AND is_deleted = ?", promotionID, false).
		Find(&partners).Error
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(partners))
	for i := range partners {
		d, err := partnerDict(&partners[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// PartnerCheckCode is the public referral-link resolver: it decodes the
// base64 form embedded in shared links and confirms a live partner holds the
// code.
func PartnerCheckCode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperr.InvalidCodeFormat("code")
	}
	code := string(raw)
	if _, err := partnerByCode(code); err != nil {
		return "", err
	}
	return code, nil
}

// PartnerReferralLink returns the shareable link for a live partner's code.
func PartnerReferralLink(code string) (string, error) {
	if _, err := partnerByCode(code); err != nil {
		return "", err
	}
	return referralLink(code), nil
}

func partnerByCode(code string) (*models.Partner, error) {
	var partner models.Partner
	err := db.Conn().Preload("Client").Preload("Promotion").
		Where("code = ? AND is_deleted = ?", code, false).
		First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Partner", "code", code)
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func partnerDict(partner *models.Partner) (map[string]any, error) {
	client := partner.Client
	if client.ID == 0 {
		if err := store.ByIDAnyState(&client, "Client", partner.ClientID); err != nil {
			return nil, err
		}
	}

	var referrals, clicks, leads int64
	if err := db.Conn().Model(&models.Referral{}).Where("partner_id = ?", partner.ID).Count(&referrals).Error; err != nil {
		return nil, err
	}
	if err := db.Conn().Model(&models.Click{}).Where("partner_id = ?", partner.ID).Count(&clicks).Error; err != nil {
		return nil, err
	}
	if err := db.Conn().Model(&models.Lead{}).Where("partner_id = ?", partner.ID).Count(&leads).Error; err != nil {
		return nil, err
	}

	return map[string]any{
		"id":        partner.ID,
		"code":      partner.Code,
		"client":    client.ID,
		"fullname":  clientFullname(&client),
		"email":     client.Email,
		"phone":     client.Phone,
		"referrals": referrals,
		"clicks":    clicks,
		"leads":     leads,
	}, nil
}

// referralLink is the URL a partner shares; the code rides base64-encoded in
// the path so Cyrillic codes survive copy-paste.
func referralLink(code string) string {
	return config.Get().ReferralSiteURL + "/" + base64.StdEncoding.EncodeToString([]byte(code))
}

func clientFullname(c *models.Client) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Lastname, c.Firstname, c.Surname} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func formatBonus(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
