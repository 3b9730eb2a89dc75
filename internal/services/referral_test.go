package services

import (
	"testing"

	"github.com/refprog/backend/internal/apperr"
)

func seedPartner(t *testing.T) (code string, promotionID uint) {
	t.Helper()
	promotionID, clientID := seedPromotionAndClient(t)
	if _, err := PartnerCreate(rootToken, promotionID, clientID); err != nil {
		t.Fatalf("create partner: %v", err)
	}
	partners, err := PartnerListByPromotion(rootToken, promotionID)
	if err != nil {
		t.Fatalf("list partners: %v", err)
	}
	return partners[0]["code"].(string), promotionID
}

// TestReferralCreate_DuplicatePair: the same client cannot be referred twice
// by the same partner.
func TestReferralCreate_DuplicatePair(t *testing.T) {
	openTestDB(t)
	code, _ := seedPartner(t)

	referredID, err := ClientCreate(rootToken, ClientInput{Firstname: "Olga", Phone: "9031112233"})
	if err != nil {
		t.Fatalf("create referred client: %v", err)
	}

	if _, err := ReferralCreate(rootToken, code, referredID); err != nil {
		t.Fatalf("first referral: %v", err)
	}
	_, err = ReferralCreate(rootToken, code, referredID)
	if !apperr.IsKind(err, apperr.KindAlreadyExists) {
		t.Fatalf("second referral: expected already exists, got %v", err)
	}
}

// TestReferralAdd creates the referred client on the fly and reports the
// partner and bonus details.
func TestReferralAdd(t *testing.T) {
	openTestDB(t)
	code, _ := seedPartner(t)

	result, err := ReferralAdd(rootToken, code, "Сидорова Ольга", "9031112233")
	if err != nil {
		t.Fatalf("referral add: %v", err)
	}
	partner := result["partner"].(map[string]any)
	if partner["phone"] != "+79123456789" {
		t.Errorf("partner phone %v, want +79123456789", partner["phone"])
	}
	promotion := result["promotion"].(map[string]any)
	if promotion["referral_bonus"] != 300.0 {
		t.Errorf("referral bonus %v, want 300", promotion["referral_bonus"])
	}

	// The referred person is now a client, reachable by phone conflict.
	_, err = ClientCreate(rootToken, ClientInput{Firstname: "X", Phone: "9031112233"})
	if !apperr.IsKind(err, apperr.KindAlreadyExists) {
		t.Errorf("referred client missing: %v", err)
	}
}

// TestClickCreate_DedupByIP: one click per address, forever.
func TestClickCreate_DedupByIP(t *testing.T) {
	openTestDB(t)
	code, _ := seedPartner(t)

	if err := ClickCreate(code, "203.0.113.7"); err != nil {
		t.Fatalf("first click: %v", err)
	}
	err := ClickCreate(code, "203.0.113.7")
	if !apperr.IsKind(err, apperr.KindAlreadyExists) {
		t.Fatalf("second click: expected already exists, got %v", err)
	}
	if err := ClickCreate(code, "203.0.113.8"); err != nil {
		t.Errorf("click from a different address: %v", err)
	}
}

// TestLeadCreate_DedupByPhone: leads collide on phone across all partners.
func TestLeadCreate_DedupByPhone(t *testing.T) {
	openTestDB(t)
	code, _ := seedPartner(t)

	first, err := LeadCreate(code, "Ольга", "9031112233")
	if err != nil {
		t.Fatalf("first lead: %v", err)
	}
	_, err = LeadCreate(code, "Ольга снова", "8 903 111-22-33")
	if !apperr.IsKind(err, apperr.KindAlreadyExists) {
		t.Fatalf("second lead: expected already exists, got %v", err)
	}
	e, _ := apperr.As(err)
	if e.Kwargs["model_id"] != first {
		t.Errorf("conflict kwargs name lead %v, want %d", e.Kwargs["model_id"], first)
	}
}
