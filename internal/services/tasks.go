package services

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/config"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/sms"
	"github.com/refprog/backend/internal/store"
)

// TaskClient is one record of the external billing system's bulk export.
type TaskClient struct {
	UserID    int    `json:"user_id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsPartner bool   `json:"is_partner"`
	BonusCode string `json:"bonus_code"`
}

// BonusOperation tells the billing system to accrue a bonus to a client,
// addressed by the billing system's own user id.
type BonusOperation struct {
	UserID    int     `json:"user_id"`
	Operation string  `json:"operation"`
	Amount    float64 `json:"amount"`
}

// TaskClientsSync is the billing-system import: upsert every client, and
// when a record carries a referral code, create the referral and fire the
// bonus messages. Guarded by the shared tasks token, not a session.
func TaskClientsSync(tasksToken string, clients []TaskClient) ([]BonusOperation, error) {
	if tasksToken == "" || tasksToken != config.Get().TasksToken {
		return nil, apperr.InvalidTasksToken()
	}

	const actor = "sync_task"
	var bonuses []BonusOperation

	for _, tc := range clients {
		client, err := taskGetOrCreateClient(actor, tc)
		if err != nil {
			log.Printf("tasks: sync client %s: %v", tc.Phone, err)
			continue
		}
		if tc.BonusCode == "" {
			continue
		}

		referral, err := createReferral(actor, tc.BonusCode, client.ID)
		if err != nil {
			// The referral already being on file is the steady state for
			// repeated exports.
			if !apperr.IsKind(err, apperr.KindAlreadyExists) {
				log.Printf("tasks: referral for %s: %v", tc.Phone, err)
			}
			continue
		}

		var partner models.Partner
		if err := store.ByIDAnyState(&partner, "Partner", referral.PartnerID); err != nil {
			log.Printf("tasks: load partner %d for %s: %v", referral.PartnerID, tc.Phone, err)
			continue
		}
		var partnerClient models.Client
		if err := store.ByIDAnyState(&partnerClient, "Client", partner.ClientID); err != nil {
			log.Printf("tasks: load partner client %d for %s: %v", partner.ClientID, tc.Phone, err)
			continue
		}
		var promotion models.Promotion
		if err := store.ByIDAnyState(&promotion, "Promotion", partner.PromotionID); err != nil {
			log.Printf("tasks: load promotion %d for %s: %v", partner.PromotionID, tc.Phone, err)
			continue
		}

		if promotion.SmsTextReferrerBonus != "" {
			sms.Notify("partner", partner.ID, partnerClient.Phone,
				sms.Render(promotion.SmsTextReferrerBonus, map[string]string{
					"fullname":       clientFullname(client),
					"referrer_bonus": formatBonus(promotion.ReferrerBonus),
				}))
		}
		if promotion.SmsTextReferralBonus != "" {
			sms.Notify("referral", referral.ID, client.Phone,
				sms.Render(promotion.SmsTextReferralBonus, map[string]string{
					"name":           client.Firstname,
					"referral_bonus": formatBonus(promotion.ReferralBonus),
				}))
		}

		bonuses = append(bonuses,
			BonusOperation{UserID: partnerClient.UserID, Operation: "add", Amount: promotion.ReferrerBonus},
			BonusOperation{UserID: client.UserID, Operation: "add", Amount: promotion.ReferralBonus},
		)
	}
	return bonuses, nil
}

// taskGetOrCreateClient finds the client by phone and applies any field
// drift from the export, creating the row when it is new.
func taskGetOrCreateClient(actor string, tc TaskClient) (*models.Client, error) {
	phone, err := NormalizePhone(tc.Phone)
	if err != nil {
		return nil, err
	}

	var client models.Client
	err = db.Conn().Where("phone = ?", phone).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return createClient(actor, ClientInput{
			UserID:    tc.UserID,
			Firstname: tc.Firstname,
			Lastname:  tc.Lastname,
			Surname:   tc.Surname,
			Email:     tc.Email,
			Phone:     phone,
			IsPartner: tc.IsPartner,
		})
	}
	if err != nil {
		return nil, err
	}

	patch := ClientPatch{}
	if tc.Firstname != "" && tc.Firstname != client.Firstname {
		patch.Firstname = &tc.Firstname
	}
	if tc.Lastname != "" && tc.Lastname != client.Lastname {
		patch.Lastname = &tc.Lastname
	}
	if tc.Surname != "" && tc.Surname != client.Surname {
		patch.Surname = &tc.Surname
	}
	if tc.Email != "" && tc.Email != client.Email {
		patch.Email = &tc.Email
	}
	if tc.IsPartner != client.IsPartner {
		patch.IsPartner = &tc.IsPartner
	}
	if !patch.empty() {
		if err := updateClient(actor, client.ID, patch); err != nil {
			return nil, err
		}
		if err := db.Conn().First(&client, client.ID).Error; err != nil {
			return nil, err
		}
	}
	return &client, nil
}
