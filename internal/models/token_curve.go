package models

import (
	"time"

	"launchpad/pkg/bondingcurve"
)

// TokenCurve is the persisted bonding-curve state of one token. Version is bumped on
// every trade and guards updates against lost writes.
type TokenCurve struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	TokenAddress   string     `gorm:"size:42;uniqueIndex;not null" json:"token_address"`
	CreatorAddress string     `gorm:"size:42;not null" json:"creator_address"`
	Name           string     `gorm:"size:64;not null" json:"name"`
	Symbol         string     `gorm:"size:16;not null" json:"symbol"`
	InitialPrice   Amount     `gorm:"type:numeric(78,0);not null" json:"initial_price"`
	TotalSupply    Amount     `gorm:"type:numeric(78,0);not null" json:"total_supply"`
	SoldSupply     Amount     `gorm:"type:numeric(78,0);not null;default:0" json:"sold_supply"`
	BNBRaised      Amount     `gorm:"column:bnb_raised;type:numeric(78,0);not null;default:0" json:"bnb_raised"`
	Graduated      bool       `gorm:"not null;default:false;index" json:"graduated"`
	GraduatedAt    *time.Time `json:"graduated_at"`
	Version        uint64     `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (TokenCurve) TableName() string {
	return "token_curve"
}

// State returns the pricing engine view of the row.
func (c *TokenCurve) State() bondingcurve.State {
	return bondingcurve.State{
		SoldSupply:     c.SoldSupply.BigInt(),
		TotalBNBRaised: c.BNBRaised.BigInt(),
		InitialPrice:   c.InitialPrice.BigInt(),
		TotalSupplyCap: c.TotalSupply.BigInt(),
		Graduated:      c.Graduated,
	}
}

// CurveHolder tracks the curve-bought balance of a trader.
type CurveHolder struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	TokenAddress string    `gorm:"size:42;not null;uniqueIndex:uni_curve_holder_token_trader" json:"token_address"`
	Trader       string    `gorm:"size:42;not null;uniqueIndex:uni_curve_holder_token_trader" json:"trader"`
	Balance      Amount    `gorm:"type:numeric(78,0);not null;default:0" json:"balance"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CurveHolder) TableName() string {
	return "curve_holder"
}
