package models

import "time"

// DealCategory is the closed set of partner product categories.
type DealCategory string

const (
	CategoryHosting       DealCategory = "hosting"
	CategoryAnalytics     DealCategory = "analytics"
	CategoryPayment       DealCategory = "payment"
	CategoryCommunication DealCategory = "communication"
	CategoryProductivity  DealCategory = "productivity"
	CategoryDesign        DealCategory = "design"
	CategoryDevelopment   DealCategory = "development"
	CategoryMarketing     DealCategory = "marketing"
	CategoryOther         DealCategory = "other"
)

// ValidDealCategory reports whether category names a known deal category.
func ValidDealCategory(category string) bool {
	switch DealCategory(category) {
	case CategoryHosting, CategoryAnalytics, CategoryPayment, CategoryCommunication,
		CategoryProductivity, CategoryDesign, CategoryDevelopment, CategoryMarketing,
		CategoryOther:
		return true
	}
	return false
}

// AccessLevel gates who may see and claim a deal.
type AccessLevel string

const (
	AccessPublic   AccessLevel = "public"
	AccessVerified AccessLevel = "verified"
)

// DiscountType distinguishes percentage discounts from flat credits.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// Partner holds the offering company's metadata, embedded into the deal row.
type Partner struct {
	Name        string `gorm:"not null" json:"name"`
	Logo        string `json:"logo"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

// Deal is a partner offer. CurrentClaims only moves up, and never past
// MaxClaims; the claim orchestrator owns that invariant.
type Deal struct {
	Base
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"not null" json:"description"`
	Category    DealCategory `gorm:"index;not null" json:"category"`
	AccessLevel AccessLevel  `gorm:"index;default:'public'" json:"access_level"`

	Discount      float64      `gorm:"not null" json:"discount"`
	DiscountType  DiscountType `gorm:"not null" json:"discount_type"`
	MaxClaims     int          `gorm:"not null" json:"max_claims"`
	CurrentClaims int          `gorm:"default:0" json:"current_claims"`

	Partner Partner `gorm:"embedded;embeddedPrefix:partner_" json:"partner"`

	Terms     string    `json:"terms"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

func (Deal) TableName() string {
	return "deals"
}

// Expired reports whether the deal is past its expiry at the given instant.
func (d *Deal) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Exhausted reports whether the deal has no claim capacity left.
func (d *Deal) Exhausted() bool {
	return d.CurrentClaims >= d.MaxClaims
}
