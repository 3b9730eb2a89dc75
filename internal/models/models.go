package models

import "time"

// Soft deletion is an explicit flag everywhere: rows are never removed, and
// default lookups must filter on is_deleted = false. Audit queries read the
// rows back regardless of the flag.

type Account struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"size:32;index"`
	PasswordSalt string `gorm:"size:64"`
	PasswordHash string `gorm:"size:64"`
	IsActive     bool   `gorm:"default:true"`
	IsDeleted    bool   `gorm:"default:false;index"`
}

type Role struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name      string `gorm:"size:64"`
	IsDeleted bool   `gorm:"default:false"`
}

// Permission is referenced by IDStr ("partners", "promotions", ...) in
// authorization checks, never by numeric id.
type Permission struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	IDStr string `gorm:"size:64;uniqueIndex"`
	Name  string `gorm:"size:128"`
}

type AccountRole struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	AccountID uint `gorm:"index"`
	Account   Account
	RoleID    uint
	Role      Role
	IsDeleted bool `gorm:"default:false"`
}

type RolePermission struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	RoleID       uint `gorm:"index"`
	Role         Role
	PermissionID uint
	Permission   Permission
	IsDeleted    bool `gorm:"default:false"`
}

// Session backs an issued "<id>:<secret>" token. Logout flips IsDeleted; the
// token itself carries no expiry.
type Session struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	AccountID uint `gorm:"index"`
	Account   Account
	TokenSalt string `gorm:"size:64"`
	TokenHash string `gorm:"size:64"`
	IsDeleted bool   `gorm:"default:false"`
}

type Promotion struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name          string `gorm:"size:128"`
	ReferrerBonus float64
	ReferralBonus float64

	// SMS templates with {placeholder} substitution.
	SmsTextPartnerCreate string `gorm:"size:1024"`
	SmsTextForReferral   string `gorm:"size:1024"`
	SmsTextReferralBonus string `gorm:"size:1024"`
	SmsTextReferrerBonus string `gorm:"size:1024"`

	IsDeleted bool `gorm:"default:false"`
}

type Client struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID    int    // external billing-system id, 0 when unknown
	Firstname string `gorm:"size:64"`
	Lastname  string `gorm:"size:64"`
	Surname   string `gorm:"size:64"`
	Email     string `gorm:"size:128"`
	Phone     string `gorm:"size:16;uniqueIndex"` // canonical +7XXXXXXXXXX
	IsPartner bool   `gorm:"default:false"`
	IsDeleted bool   `gorm:"default:false"`
}

// Partner is a Client holding a referral code for one Promotion. Code
// uniqueness is scoped to non-deleted partners, so the column index is not
// unique; creation serializes through a keyed lock instead.
type Partner struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Code        string `gorm:"size:6;index"`
	PromotionID uint   `gorm:"index"`
	Promotion   Promotion
	ClientID    uint
	Client      Client
	IsDeleted   bool `gorm:"default:false"`
}

type Referral struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	PartnerID uint `gorm:"index;uniqueIndex:idx_referral_pair"`
	Partner   Partner
	ClientID  uint `gorm:"uniqueIndex:idx_referral_pair"`
	Client    Client
}

// Click deduplicates by IP for all time, not per day.
type Click struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	PartnerID uint `gorm:"index"`
	Partner   Partner
	IP        string `gorm:"size:64;uniqueIndex"`
}

type Lead struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	PartnerID   uint `gorm:"index"`
	Partner     Partner
	Name        string `gorm:"size:256"`
	Phone       string `gorm:"size:16;uniqueIndex"`
	IsProcessed bool   `gorm:"default:false"`
}

// Action is the append-only audit record attached to every entity mutation.
type Action struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Model   string `gorm:"size:32;index:idx_action_model"`
	ModelID uint   `gorm:"index:idx_action_model"`
	Action  string `gorm:"size:16"` // create | update | delete

	Parameters []ActionParameter
}

type ActionParameter struct {
	ID       uint   `gorm:"primaryKey"`
	ActionID uint   `gorm:"index"`
	Key      string `gorm:"size:64"`
	Value    string `gorm:"size:1024"`
}

// Sms logs an outbound message tied to the entity that triggered it.
type Sms struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Model   string `gorm:"size:32"`
	ModelID uint
	Message string `gorm:"size:1024"`
}
