package services

import (
	"strings"
	"testing"
	"unicode"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/models"
)

// TestGenerateReferralCode_Format checks the two-letters-four-digits shape
// against the restricted alphabet.
func TestGenerateReferralCode_Format(t *testing.T) {
	for i := 0; i < 500; i++ {
		code := generateReferralCode()
		runes := []rune(code)
		if len(runes) != 6 {
			t.Fatalf("code %q has %d runes, want 6", code, len(runes))
		}
		for _, r := range runes[:2] {
			if !strings.ContainsRune(codeLetters, r) {
				t.Fatalf("code %q contains letter %q outside the alphabet", code, r)
			}
		}
		for _, r := range runes[2:] {
			if !unicode.IsDigit(r) {
				t.Fatalf("code %q has non-digit %q in the numeric half", code, r)
			}
		}
	}
}

func seedPromotionAndClient(t *testing.T) (uint, uint) {
	t.Helper()
	promotionID, err := PromotionCreate(rootToken, PromotionInput{
		Name:          "Autumn",
		ReferrerBonus: 500,
		ReferralBonus: 300,
	})
	if err != nil {
		t.Fatalf("create promotion: %v", err)
	}
	clientID, err := ClientCreate(rootToken, ClientInput{
		Firstname: "Ivan",
		Lastname:  "Petrov",
		Phone:     "+79123456789",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return promotionID, clientID
}

// TestPartnerCreate_DuplicatePair verifies that one client cannot hold two
// codes under the same promotion, and that the conflict names the existing
// partner.
func TestPartnerCreate_DuplicatePair(t *testing.T) {
	openTestDB(t)
	promotionID, clientID := seedPromotionAndClient(t)

	first, err := PartnerCreate(rootToken, promotionID, clientID)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err = PartnerCreate(rootToken, promotionID, clientID)
	if !apperr.IsKind(err, apperr.KindAlreadyExists) {
		t.Fatalf("second create: expected already exists, got %v", err)
	}
	e, _ := apperr.As(err)
	if e.Kwargs["model_id"] != first {
		t.Errorf("conflict kwargs name partner %v, want %d", e.Kwargs["model_id"], first)
	}
}

// TestPartnerDeleteByPhone_AllowsReenrollment: expiring a partner by phone
// frees the (client, promotion) pair for a fresh code.
func TestPartnerDeleteByPhone_AllowsReenrollment(t *testing.T) {
	gdb := openTestDB(t)
	promotionID, clientID := seedPromotionAndClient(t)

	firstID, err := PartnerCreate(rootToken, promotionID, clientID)
	if err != nil {
		t.Fatalf("create partner: %v", err)
	}
	if err := PartnerDeleteByPhone(rootToken, "8 912 345-67-89", promotionID); err != nil {
		t.Fatalf("delete by phone: %v", err)
	}

	var expired models.Partner
	if err := gdb.First(&expired, firstID).Error; err != nil {
		t.Fatalf("load expired partner: %v", err)
	}
	if !expired.IsDeleted {
		t.Fatal("expired partner still marked live")
	}

	secondID, err := PartnerCreate(rootToken, promotionID, clientID)
	if err != nil {
		t.Fatalf("re-enroll: %v", err)
	}
	if secondID == firstID {
		t.Fatal("re-enrollment reused the expired row")
	}
}

// TestPartnerCheckCode round-trips the base64 form used in shared links.
func TestPartnerCheckCode(t *testing.T) {
	openTestDB(t)
	promotionID, clientID := seedPromotionAndClient(t)
	if _, err := PartnerCreate(rootToken, promotionID, clientID); err != nil {
		t.Fatalf("create partner: %v", err)
	}

	partners, err := PartnerListByPromotion(rootToken, promotionID)
	if err != nil {
		t.Fatalf("list partners: %v", err)
	}
	if len(partners) != 1 {
		t.Fatalf("got %d partners, want 1", len(partners))
	}
	code := partners[0]["code"].(string)

	link, err := PartnerReferralLink(code)
	if err != nil {
		t.Fatalf("referral link: %v", err)
	}
	encoded := strings.TrimPrefix(link, "https://ref.example/")

	decoded, err := PartnerCheckCode(encoded)
	if err != nil {
		t.Fatalf("check code: %v", err)
	}
	if decoded != code {
		t.Errorf("check code returned %q, want %q", decoded, code)
	}

	if _, err := PartnerCheckCode("%%%not-base64%%%"); !apperr.IsKind(err, apperr.KindInvalidCodeFormat) {
		t.Errorf("undecodable code: expected invalid code format, got %v", err)
	}
}
