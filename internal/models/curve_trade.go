package models

import "time"

const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// CurveTrade is one executed trade against a curve. BNBAmount is what the trader paid on a
// buy or received on a sell, fees excluded from the latter.
type CurveTrade struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	TradeID         string    `gorm:"size:36;uniqueIndex;not null" json:"trade_id"`
	TokenAddress    string    `gorm:"size:42;not null;index:idx_curve_trade_token_created" json:"token_address"`
	Trader          string    `gorm:"size:42;not null;index" json:"trader"`
	Side            string    `gorm:"size:8;not null" json:"side"`
	BNBAmount       Amount    `gorm:"column:bnb_amount;type:numeric(78,0);not null" json:"bnb_amount"`
	TokenAmount     Amount    `gorm:"type:numeric(78,0);not null" json:"token_amount"`
	PlatformFee     Amount    `gorm:"type:numeric(78,0);not null" json:"platform_fee"`
	CreatorFee      Amount    `gorm:"type:numeric(78,0);not null" json:"creator_fee"`
	PriceAfter      Amount    `gorm:"type:numeric(78,0);not null" json:"price_after"`
	SoldSupplyAfter Amount    `gorm:"type:numeric(78,0);not null" json:"sold_supply_after"`
	BNBRaisedAfter  Amount    `gorm:"column:bnb_raised_after;type:numeric(78,0);not null" json:"bnb_raised_after"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_curve_trade_token_created"`
}

func (CurveTrade) TableName() string {
	return "curve_trade"
}
