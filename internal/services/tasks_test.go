package services

import (
	"testing"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/models"
)

const tasksToken = "test-tasks-token"

func TestTaskClientsSync_RejectsBadToken(t *testing.T) {
	openTestDB(t)
	_, err := TaskClientsSync("nope", nil)
	if !apperr.IsKind(err, apperr.KindInvalidTasksToken) {
		t.Fatalf("expected invalid tasks token, got %v", err)
	}
}

// TestTaskClientsSync_UpsertAndBonus: a record with a bonus code creates the
// client, the referral, and both accrual operations; a second run is a no-op.
func TestTaskClientsSync_UpsertAndBonus(t *testing.T) {
	gdb := openTestDB(t)
	code, _ := seedPartner(t)

	payload := []TaskClient{{
		UserID:    42,
		Firstname: "Ольга",
		Lastname:  "Сидорова",
		Phone:     "8 903 111-22-33",
		BonusCode: code,
	}}

	bonuses, err := TaskClientsSync(tasksToken, payload)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(bonuses) != 2 {
		t.Fatalf("got %d bonus operations, want 2", len(bonuses))
	}
	if bonuses[0].Amount != 500 || bonuses[1].Amount != 300 {
		t.Errorf("bonus amounts %v/%v, want 500/300", bonuses[0].Amount, bonuses[1].Amount)
	}
	if bonuses[1].UserID != 42 {
		t.Errorf("referral bonus addressed to user %d, want 42", bonuses[1].UserID)
	}

	var client models.Client
	if err := gdb.Where("phone = ?", "+79031112233").First(&client).Error; err != nil {
		t.Fatalf("imported client missing: %v", err)
	}
	if client.UserID != 42 || client.Lastname != "Сидорова" {
		t.Errorf("imported client fields: user_id=%d lastname=%q", client.UserID, client.Lastname)
	}

	// Re-running the same export must not duplicate anything or re-accrue.
	bonuses, err = TaskClientsSync(tasksToken, payload)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(bonuses) != 0 {
		t.Errorf("second run accrued %d operations, want 0", len(bonuses))
	}
	var referrals int64
	gdb.Model(&models.Referral{}).Count(&referrals)
	if referrals != 1 {
		t.Errorf("referral count %d, want 1", referrals)
	}
}

// TestTaskClientsSync_UpdatesExisting applies field drift to a client already
// on file instead of failing on the phone conflict.
func TestTaskClientsSync_UpdatesExisting(t *testing.T) {
	gdb := openTestDB(t)

	id, err := ClientCreate(rootToken, ClientInput{Firstname: "Olga", Phone: "9031112233"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = TaskClientsSync(tasksToken, []TaskClient{{
		Firstname: "Ольга",
		Email:     "olga@example.com",
		Phone:     "+79031112233",
		IsPartner: true,
	}})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	var client models.Client
	if err := gdb.First(&client, id).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if client.Firstname != "Ольга" || client.Email != "olga@example.com" || !client.IsPartner {
		t.Errorf("drift not applied: %+v", client)
	}
}
