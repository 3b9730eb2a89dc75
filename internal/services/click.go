package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/store"
)

// ClickCreate records a referral-link visit. Deduplication is strict per IP
// ever, not per day.
func ClickCreate(code, ip string) error {
	partner, err := partnerByCode(code)
	if err != nil {
		return err
	}

	unlock := createLocks.Lock("click:" + ip)
	defer unlock()

	var existing models.Click
	err = db.Conn().Where("ip = ?", ip).First(&existing).Error
	if err == nil {
		return apperr.AlreadyExists("Click", "ip", ip, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	click := models.Click{PartnerID: partner.ID, IP: ip}
	if err := db.Conn().Create(&click).Error; err != nil {
		return err
	}
	recordAction("click", click.ID, "create", map[string]any{
		"partner": partner.ID,
	})
	return nil
}

func ClickDelete(token string, id uint) error {
	ident, err := promotionGuard.Authorize(token)
	if err != nil {
		return err
	}
	var click models.Click
	err = db.Conn().First(&click, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Click", "id", id)
	}
	if err != nil {
		return err
	}
	if err := db.Conn().Delete(&click).Error; err != nil {
		return err
	}
	recordAction("click", click.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}

func ClickListByPartner(token string, partnerID uint) ([]map[string]any, error) {
	if _, err := promotionGuard.Authorize(token); err != nil {
		return nil, err
	}
	var partner models.Partner
	if err := store.FirstActive(&partner, "Partner", "id", partnerID, "id = ?", partnerID); err != nil {
		return nil, err
	}

	var clicks []models.Click
	if err := db.Conn().Where("partner_id = ?", partnerID).Order("id").Find(&clicks).Error; err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(clicks))
	for _, c := range clicks {
		out = append(out, map[string]any{
			"id":      c.ID,
			"partner": c.PartnerID,
			"ip":      c.IP,
		})
	}
	return out, nil
}
