package handlers

import (
	"launchpad/internal/handlers/business"
	"launchpad/internal/models"
	"launchpad/pkg/bondingcurve"
	"launchpad/pkg/utils"
)

// Amounts in responses are decimal strings with 18 decimals, e.g. "0.09875".

// TokenCurveResp 代币曲线响应结构体
type TokenCurveResp struct {
	ID             uint    `json:"id"`
	TokenAddress   string  `json:"token_address"`
	CreatorAddress string  `json:"creator_address"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	InitialPrice   string  `json:"initial_price"`
	TotalSupply    string  `json:"total_supply"`
	SoldSupply     string  `json:"sold_supply"`
	BNBRaised      string  `json:"bnb_raised"`
	SpotPrice      string  `json:"spot_price"`
	Progress       float64 `json:"progress"`
	Graduated      bool    `json:"graduated"`
	GraduatedAt    int64   `json:"graduated_at,omitempty"`
	Version        uint64  `json:"version"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
}

// BuyQuoteResp 买入报价响应结构体
type BuyQuoteResp struct {
	BNBIn          string `json:"bnb_in"`
	NetBNB         string `json:"net_bnb"`
	PlatformFee    string `json:"platform_fee"`
	CreatorFee     string `json:"creator_fee"`
	TokensOut      string `json:"tokens_out"`
	PriceBefore    string `json:"price_before"`
	PriceAfter     string `json:"price_after"`
	SoldSupplyNext string `json:"sold_supply_after"`
	BNBRaisedNext  string `json:"bnb_raised_after"`
}

// SellQuoteResp 卖出报价响应结构体
type SellQuoteResp struct {
	TokensIn       string `json:"tokens_in"`
	GrossBNB       string `json:"gross_bnb"`
	PlatformFee    string `json:"platform_fee"`
	CreatorFee     string `json:"creator_fee"`
	BNBOut         string `json:"bnb_out"`
	PriceBefore    string `json:"price_before"`
	PriceAfter     string `json:"price_after"`
	SoldSupplyNext string `json:"sold_supply_after"`
	BNBRaisedNext  string `json:"bnb_raised_after"`
}

// CostQuoteResp 定量买入报价响应结构体
type CostQuoteResp struct {
	Tokens string `json:"tokens"`
	BNBIn  string `json:"bnb_in"`
}

// HolderResp 持仓响应结构体
type HolderResp struct {
	TokenAddress string `json:"token_address"`
	Trader       string `json:"trader"`
	Balance      string `json:"balance"`
}

// DexQuoteResp DEX 报价响应结构体
type DexQuoteResp struct {
	Side      string `json:"side"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	FeeBps    uint64 `json:"fee_bps"`
}

// CurveTradeResp 曲线交易响应结构体
type CurveTradeResp struct {
	TradeID         string `json:"trade_id"`
	TokenAddress    string `json:"token_address"`
	Trader          string `json:"trader"`
	Side            string `json:"side"`
	BNBAmount       string `json:"bnb_amount"`
	TokenAmount     string `json:"token_amount"`
	PlatformFee     string `json:"platform_fee"`
	CreatorFee      string `json:"creator_fee"`
	PriceAfter      string `json:"price_after"`
	SoldSupplyAfter string `json:"sold_supply_after"`
	BNBRaisedAfter  string `json:"bnb_raised_after"`
	CreatedAt       int64  `json:"created_at"`
}

// TradeResp 成交响应结构体
type TradeResp struct {
	Trade         CurveTradeResp  `json:"trade"`
	Curve         TokenCurveResp  `json:"curve"`
	HolderBalance string          `json:"holder_balance"`
	Graduation    *GraduationResp `json:"graduation,omitempty"`
}

// GraduationResp 毕业记录响应结构体
type GraduationResp struct {
	TokenAddress    string `json:"token_address"`
	BNBRaised       string `json:"bnb_raised"`
	SoldSupply      string `json:"sold_supply"`
	LiquidityBNB    string `json:"liquidity_bnb"`
	CreatorBNB      string `json:"creator_bnb"`
	PlatformBNB     string `json:"platform_bnb"`
	LiquidityTokens string `json:"liquidity_tokens"`
	ListingPrice    string `json:"listing_price"`
	Status          string `json:"status"`
	SeededAt        int64  `json:"seeded_at,omitempty"`
	CreatedAt       int64  `json:"created_at"`
}

func toTokenCurveResp(c *models.TokenCurve, stats business.CurveStats) TokenCurveResp {
	resp := TokenCurveResp{
		ID:             c.ID,
		TokenAddress:   c.TokenAddress,
		CreatorAddress: c.CreatorAddress,
		Name:           c.Name,
		Symbol:         c.Symbol,
		InitialPrice:   utils.FormatAmount(c.InitialPrice.BigInt()),
		TotalSupply:    utils.FormatAmount(c.TotalSupply.BigInt()),
		SoldSupply:     utils.FormatAmount(c.SoldSupply.BigInt()),
		BNBRaised:      utils.FormatAmount(c.BNBRaised.BigInt()),
		SpotPrice:      utils.FormatAmount(stats.SpotPrice),
		Progress:       stats.Progress,
		Graduated:      c.Graduated,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt.Unix(),
		UpdatedAt:      c.UpdatedAt.Unix(),
	}
	if c.GraduatedAt != nil {
		resp.GraduatedAt = c.GraduatedAt.Unix()
	}
	return resp
}

func toBuyQuoteResp(q *bondingcurve.BuyQuote) BuyQuoteResp {
	return BuyQuoteResp{
		BNBIn:          utils.FormatAmount(q.BNBIn),
		NetBNB:         utils.FormatAmount(q.NetBNB),
		PlatformFee:    utils.FormatAmount(q.Fee.Platform),
		CreatorFee:     utils.FormatAmount(q.Fee.Creator),
		TokensOut:      utils.FormatAmount(q.TokensOut),
		PriceBefore:    utils.FormatAmount(q.PriceBefore),
		PriceAfter:     utils.FormatAmount(q.PriceAfter),
		SoldSupplyNext: utils.FormatAmount(q.NewSoldSupply),
		BNBRaisedNext:  utils.FormatAmount(q.NewBNBRaised),
	}
}

func toSellQuoteResp(q *bondingcurve.SellQuote) SellQuoteResp {
	return SellQuoteResp{
		TokensIn:       utils.FormatAmount(q.TokensIn),
		GrossBNB:       utils.FormatAmount(q.GrossBNB),
		PlatformFee:    utils.FormatAmount(q.Fee.Platform),
		CreatorFee:     utils.FormatAmount(q.Fee.Creator),
		BNBOut:         utils.FormatAmount(q.BNBOut),
		PriceBefore:    utils.FormatAmount(q.PriceBefore),
		PriceAfter:     utils.FormatAmount(q.PriceAfter),
		SoldSupplyNext: utils.FormatAmount(q.NewSoldSupply),
		BNBRaisedNext:  utils.FormatAmount(q.NewBNBRaised),
	}
}

func toCurveTradeResp(t *models.CurveTrade) CurveTradeResp {
	return CurveTradeResp{
		TradeID:         t.TradeID,
		TokenAddress:    t.TokenAddress,
		Trader:          t.Trader,
		Side:            t.Side,
		BNBAmount:       utils.FormatAmount(t.BNBAmount.BigInt()),
		TokenAmount:     utils.FormatAmount(t.TokenAmount.BigInt()),
		PlatformFee:     utils.FormatAmount(t.PlatformFee.BigInt()),
		CreatorFee:      utils.FormatAmount(t.CreatorFee.BigInt()),
		PriceAfter:      utils.FormatAmount(t.PriceAfter.BigInt()),
		SoldSupplyAfter: utils.FormatAmount(t.SoldSupplyAfter.BigInt()),
		BNBRaisedAfter:  utils.FormatAmount(t.BNBRaisedAfter.BigInt()),
		CreatedAt:       t.CreatedAt.Unix(),
	}
}

func toGraduationResp(g *models.CurveGraduation) *GraduationResp {
	if g == nil {
		return nil
	}
	resp := &GraduationResp{
		TokenAddress:    g.TokenAddress,
		BNBRaised:       utils.FormatAmount(g.BNBRaised.BigInt()),
		SoldSupply:      utils.FormatAmount(g.SoldSupply.BigInt()),
		LiquidityBNB:    utils.FormatAmount(g.LiquidityBNB.BigInt()),
		CreatorBNB:      utils.FormatAmount(g.CreatorBNB.BigInt()),
		PlatformBNB:     utils.FormatAmount(g.PlatformBNB.BigInt()),
		LiquidityTokens: utils.FormatAmount(g.LiquidityTokens.BigInt()),
		ListingPrice:    utils.FormatAmount(g.ListingPrice.BigInt()),
		Status:          g.Status,
		CreatedAt:       g.CreatedAt.Unix(),
	}
	if g.SeededAt != nil {
		resp.SeededAt = g.SeededAt.Unix()
	}
	return resp
}
