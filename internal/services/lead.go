package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/store"
)

// LeadCreate captures a public contact form submission attributed to a
// partner code. Leads deduplicate by phone, across all partners.
func LeadCreate(code, name, phone string) (uint, error) {
	partner, err := partnerByCode(code)
	if err != nil {
		return 0, err
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return 0, err
	}

	unlock := createLocks.Lock("lead:" + normalized)
	defer unlock()

	var existing models.Lead
	err = db.Conn().Where("phone = ?", normalized).First(&existing).Error
	if err == nil {
		return 0, apperr.AlreadyExists("Lead", "phone", normalized, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	lead := models.Lead{
		PartnerID: partner.ID,
		Name:      name,
		Phone:     normalized,
	}
	if err := db.Conn().Create(&lead).Error; err != nil {
		return 0, err
	}
	recordAction("lead", lead.ID, "create", map[string]any{
		"partner": partner.ID,
		"name":    name,
		"phone":   normalized,
	})
	return lead.ID, nil
}

// LeadUpdate flips the processed flag once an operator has handled the lead.
func LeadUpdate(token string, id uint, isProcessed bool) error {
	ident, err := sessionOnlyGuard.Authorize(token)
	if err != nil {
		return err
	}

	var lead models.Lead
	err = db.Conn().First(&lead, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Lead", "id", id)
	}
	if err != nil {
		return err
	}

	if err := db.Conn().Model(&lead).Update("is_processed", isProcessed).Error; err != nil {
		return err
	}
	recordAction("lead", lead.ID, "update", map[string]any{
		"updater":      ident.Actor(),
		"is_processed": isProcessed,
	})
	return nil
}

func LeadListByPartner(token string, partnerID uint) ([]map[string]any, error) {
	if _, err := promotionGuard.Authorize(token); err != nil {
		return nil, err
	}
	var partner models.Partner
	if err := store.FirstActive(&partner, "Partner", "id", partnerID, "id = ?", partnerID); err != nil {
		return nil, err
	}

	var leads []models.Lead
	if err := db.Conn().Where("partner_id = ?", partnerID).Order("id").Find(&leads).Error; err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(leads))
	for _, l := range leads {
		out = append(out, map[string]any{
			"id":           l.ID,
			"partner_id":   l.PartnerID,
			"name":         l.Name,
			"phone":        l.Phone,
			"is_processed": l.IsProcessed,
			"created_at":   l.CreatedAt,
		})
	}
	return out, nil
}
