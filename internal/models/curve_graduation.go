package models

import "time"

const (
	GraduationStatusPending = "pending"
	GraduationStatusSeeded  = "seeded"
)

// CurveGraduation records the one-time liquidity split of a graduated curve.
type CurveGraduation struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	TokenAddress    string     `gorm:"size:42;uniqueIndex;not null" json:"token_address"`
	BNBRaised       Amount     `gorm:"column:bnb_raised;type:numeric(78,0);not null" json:"bnb_raised"`
	SoldSupply      Amount     `gorm:"type:numeric(78,0);not null" json:"sold_supply"`
	LiquidityBNB    Amount     `gorm:"column:liquidity_bnb;type:numeric(78,0);not null" json:"liquidity_bnb"`
	CreatorBNB      Amount     `gorm:"column:creator_bnb;type:numeric(78,0);not null" json:"creator_bnb"`
	PlatformBNB     Amount     `gorm:"column:platform_bnb;type:numeric(78,0);not null" json:"platform_bnb"`
	LiquidityTokens Amount     `gorm:"type:numeric(78,0);not null" json:"liquidity_tokens"`
	ListingPrice    Amount     `gorm:"type:numeric(78,0);not null" json:"listing_price"`
	Status          string     `gorm:"size:16;not null;default:'pending';index" json:"status"`
	SeededAt        *time.Time `json:"seeded_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CurveGraduation) TableName() string {
	return "curve_graduation"
}
