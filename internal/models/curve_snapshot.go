package models

import "time"

// CurveSnapshot is a periodic sample of a curve, written by the snapshot schedule.
type CurveSnapshot struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	TokenAddress       string    `gorm:"size:42;not null;index:idx_curve_snapshot_token_time" json:"token_address"`
	SpotPrice          Amount    `gorm:"type:numeric(78,0);not null" json:"spot_price"`
	SoldSupply         Amount    `gorm:"type:numeric(78,0);not null" json:"sold_supply"`
	BNBRaised          Amount    `gorm:"column:bnb_raised;type:numeric(78,0);not null" json:"bnb_raised"`
	Progress           float64   `gorm:"not null" json:"progress"`
	CreatedAtByZeroSec time.Time `gorm:"index:idx_curve_snapshot_token_time" json:"created_at_by_zero_sec"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (CurveSnapshot) TableName() string {
	return "curve_snapshot"
}
