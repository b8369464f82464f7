// Package bondingcurve prices token trades against the exponential launch curve
//
//	P(x) = P0 * e^(k * x / S)
//
// where x is the sold supply, S the token supply cap, k the growth rate and P0 the
// initial price. Trades are priced by integrating P over the traded range:
//
//	C(a, b) = P0 * S / k * (e^(k*b/S) - e^(k*a/S))
//
// All amounts are 18-decimal fixed-point integers. The exponential and logarithm are
// evaluated with 256-bit big.Float arithmetic and every output is floored to whole
// units, so a quote is never more generous than the closed form by more than one unit.
// The engine is pure: it reads a State and returns the state a trade would produce.
package bondingcurve

import (
	"fmt"
	"math/big"
)

// State is the mutable per-token curve record.
type State struct {
	SoldSupply     *big.Int `json:"sold_supply"`
	TotalBNBRaised *big.Int `json:"total_bnb_raised"`
	InitialPrice   *big.Int `json:"initial_price"`
	TotalSupplyCap *big.Int `json:"total_supply_cap"`
	Graduated      bool     `json:"graduated"`
}

// NewState returns the state of a freshly created token.
func NewState(initialPrice, totalSupplyCap *big.Int) State {
	return State{
		SoldSupply:     new(big.Int),
		TotalBNBRaised: new(big.Int),
		InitialPrice:   new(big.Int).Set(initialPrice),
		TotalSupplyCap: new(big.Int).Set(totalSupplyCap),
	}
}

// Validate reports whether s satisfies the curve invariants.
func (s State) Validate() error {
	if s.SoldSupply == nil || s.TotalBNBRaised == nil || s.InitialPrice == nil || s.TotalSupplyCap == nil {
		return fmt.Errorf("%w: incomplete curve state", ErrInvalidInput)
	}
	if s.InitialPrice.Sign() <= 0 {
		return fmt.Errorf("%w: initial price must be positive", ErrInvalidInput)
	}
	if s.TotalSupplyCap.Sign() <= 0 {
		return fmt.Errorf("%w: supply cap must be positive", ErrInvalidInput)
	}
	if s.SoldSupply.Sign() < 0 || s.SoldSupply.Cmp(s.TotalSupplyCap) > 0 {
		return fmt.Errorf("%w: sold supply %s outside [0, %s]", ErrInvalidInput, s.SoldSupply, s.TotalSupplyCap)
	}
	if s.TotalBNBRaised.Sign() < 0 {
		return fmt.Errorf("%w: negative bnb raised", ErrInvalidInput)
	}
	return nil
}

// Fee is the fee split taken from one trade.
type Fee struct {
	Platform *big.Int `json:"platform"`
	Creator  *big.Int `json:"creator"`
}

// Total returns Platform + Creator.
func (f Fee) Total() *big.Int {
	return new(big.Int).Add(f.Platform, f.Creator)
}

// BuyQuote is the result of pricing a buy.
type BuyQuote struct {
	BNBIn         *big.Int `json:"bnb_in"`
	NetBNB        *big.Int `json:"net_bnb"`
	Fee           Fee      `json:"fee"`
	TokensOut     *big.Int `json:"tokens_out"`
	NewSoldSupply *big.Int `json:"new_sold_supply"`
	NewBNBRaised  *big.Int `json:"new_bnb_raised"`
	PriceBefore   *big.Int `json:"price_before"`
	PriceAfter    *big.Int `json:"price_after"`
}

// SellQuote is the result of pricing a sell.
type SellQuote struct {
	TokensIn      *big.Int `json:"tokens_in"`
	GrossBNB      *big.Int `json:"gross_bnb"`
	Fee           Fee      `json:"fee"`
	BNBOut        *big.Int `json:"bnb_out"`
	NewSoldSupply *big.Int `json:"new_sold_supply"`
	NewBNBRaised  *big.Int `json:"new_bnb_raised"`
	PriceBefore   *big.Int `json:"price_before"`
	PriceAfter    *big.Int `json:"price_after"`
}

// LiquiditySplit is the one-time distribution computed when a curve graduates.
type LiquiditySplit struct {
	LiquidityBNB    *big.Int `json:"liquidity_bnb"`
	CreatorBNB      *big.Int `json:"creator_bnb"`
	PlatformBNB     *big.Int `json:"platform_bnb"`
	LiquidityTokens *big.Int `json:"liquidity_tokens"`
	ListingPrice    *big.Int `json:"listing_price"`
}

// Engine prices trades for a fixed set of Params. It holds no per-token state and is
// safe for concurrent use.
type Engine struct {
	params Params
	k      *big.Float
}

// New validates p and returns an Engine.
func New(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		params: p,
		k:      newFloat().SetFloat64(p.GrowthRate),
	}, nil
}

// Params returns the engine configuration.
func (e *Engine) Params() Params {
	return e.params
}

// curve carries the whole-number constants of one state.
type curve struct {
	p0    *big.Float // initial price in units per whole token
	scale *big.Float // S / k
	cost  *big.Float // P0 * S / k
}

func (e *Engine) curveFor(s State) curve {
	p0 := newFloat().SetInt(s.InitialPrice)
	scale := newFloat().Quo(toWhole(s.TotalSupplyCap), e.k)
	return curve{
		p0:    p0,
		scale: scale,
		cost:  newFloat().Mul(toWhole(s.InitialPrice), scale),
	}
}

// growth returns e^(k*x/S) for x in whole tokens.
func (c curve) growth(x *big.Float) *big.Float {
	return exp(newFloat().Quo(x, c.scale))
}

// integral returns C(a, b) in whole BNB.
func (c curve) integral(a, b *big.Float) *big.Float {
	d := newFloat().Sub(c.growth(b), c.growth(a))
	return d.Mul(d, c.cost)
}

// supplyFor returns the supply b with C(a, b) = v.
func (c curve) supplyFor(a, v *big.Float) *big.Float {
	inner := newFloat().Quo(v, c.cost)
	inner.Add(inner, c.growth(a))
	b := ln(inner)
	return b.Mul(b, c.scale)
}

// price returns P(x) in units per whole token, floored.
func (c curve) price(x *big.Float) *big.Int {
	p := newFloat().Mul(c.p0, c.growth(x))
	out, _ := p.Int(nil)
	return out
}

func (e *Engine) fee(amount *big.Int) Fee {
	return Fee{
		Platform: bps(amount, e.params.PlatformFeeBps),
		Creator:  bps(amount, e.params.CreatorFeeBps),
	}
}

func checkTradable(s State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Graduated {
		return ErrGraduated
	}
	return nil
}

// QuoteBuy prices spending bnbIn on the curve. Fees are taken from bnbIn first and the
// remaining net amount is integrated against the curve. minTokensOut may be nil.
func (e *Engine) QuoteBuy(s State, bnbIn, minTokensOut *big.Int) (*BuyQuote, error) {
	if err := checkTradable(s); err != nil {
		return nil, err
	}
	if bnbIn == nil || bnbIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: bnb amount must be positive", ErrInvalidInput)
	}

	fee := e.fee(bnbIn)
	net := new(big.Int).Sub(bnbIn, fee.Total())

	c := e.curveFor(s)
	sold := toWhole(s.SoldSupply)
	after := c.supplyFor(sold, toWhole(net))
	tokensOut := floorUnits(newFloat().Sub(after, sold))

	newSold := new(big.Int).Add(s.SoldSupply, tokensOut)
	if newSold.Cmp(s.TotalSupplyCap) > 0 {
		return nil, fmt.Errorf("%w: buy of %s tokens would move sold supply to %s above cap %s",
			ErrSupplyExceeded, tokensOut, newSold, s.TotalSupplyCap)
	}
	if tokensOut.Sign() == 0 {
		return nil, fmt.Errorf("%w: amount buys no tokens", ErrInsufficientOutput)
	}
	if minTokensOut != nil && tokensOut.Cmp(minTokensOut) < 0 {
		return nil, fmt.Errorf("%w: %s tokens out below minimum %s", ErrInsufficientOutput, tokensOut, minTokensOut)
	}

	return &BuyQuote{
		BNBIn:         new(big.Int).Set(bnbIn),
		NetBNB:        net,
		Fee:           fee,
		TokensOut:     tokensOut,
		NewSoldSupply: newSold,
		NewBNBRaised:  new(big.Int).Add(s.TotalBNBRaised, net),
		PriceBefore:   c.price(sold),
		PriceAfter:    c.price(toWhole(newSold)),
	}, nil
}

// QuoteSell prices returning tokensIn to the curve. The curve pays out the integral over
// the sold range and fees are taken from that gross amount. minBNBOut may be nil.
func (e *Engine) QuoteSell(s State, tokensIn, minBNBOut *big.Int) (*SellQuote, error) {
	if err := checkTradable(s); err != nil {
		return nil, err
	}
	if tokensIn == nil || tokensIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: token amount must be positive", ErrInvalidInput)
	}
	if tokensIn.Cmp(s.SoldSupply) > 0 {
		return nil, fmt.Errorf("%w: selling %s tokens but only %s sold",
			ErrInsufficientBalance, tokensIn, s.SoldSupply)
	}

	c := e.curveFor(s)
	newSold := new(big.Int).Sub(s.SoldSupply, tokensIn)

	var gross *big.Int
	if newSold.Sign() == 0 {
		// the last seller takes whatever the curve holds
		gross = new(big.Int).Set(s.TotalBNBRaised)
	} else {
		gross = floorUnits(c.integral(toWhole(newSold), toWhole(s.SoldSupply)))
		if gross.Cmp(s.TotalBNBRaised) > 0 {
			gross.Set(s.TotalBNBRaised)
		}
	}
	if gross.Sign() == 0 {
		return nil, fmt.Errorf("%w: amount returns no bnb", ErrInsufficientOutput)
	}

	fee := e.fee(gross)
	out := new(big.Int).Sub(gross, fee.Total())
	if minBNBOut != nil && out.Cmp(minBNBOut) < 0 {
		return nil, fmt.Errorf("%w: %s bnb out below minimum %s", ErrInsufficientOutput, out, minBNBOut)
	}

	return &SellQuote{
		TokensIn:      new(big.Int).Set(tokensIn),
		GrossBNB:      gross,
		Fee:           fee,
		BNBOut:        out,
		NewSoldSupply: newSold,
		NewBNBRaised:  new(big.Int).Sub(s.TotalBNBRaised, gross),
		PriceBefore:   c.price(toWhole(s.SoldSupply)),
		PriceAfter:    c.price(toWhole(newSold)),
	}, nil
}

// CostToBuy returns the gross BNB, fees included, needed to buy exactly tokens.
func (e *Engine) CostToBuy(s State, tokens *big.Int) (*big.Int, error) {
	if err := checkTradable(s); err != nil {
		return nil, err
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return nil, fmt.Errorf("%w: token amount must be positive", ErrInvalidInput)
	}
	newSold := new(big.Int).Add(s.SoldSupply, tokens)
	if newSold.Cmp(s.TotalSupplyCap) > 0 {
		return nil, fmt.Errorf("%w: %s tokens would exceed cap %s", ErrSupplyExceeded, newSold, s.TotalSupplyCap)
	}

	c := e.curveFor(s)
	net := ceilUnits(c.integral(toWhole(s.SoldSupply), toWhole(newSold)))

	// gross = ceil(net * 10000 / (10000 - feeBps))
	keep := big.NewInt(int64(BpsDenominator - e.params.TotalFeeBps()))
	gross := new(big.Int).Mul(net, big.NewInt(BpsDenominator))
	gross.Add(gross, new(big.Int).Sub(keep, big.NewInt(1)))
	return gross.Quo(gross, keep), nil
}

// SpotPrice returns the marginal price, in BNB units per whole token, at the current supply.
func (e *Engine) SpotPrice(s State) (*big.Int, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	c := e.curveFor(s)
	return c.price(toWhole(s.SoldSupply)), nil
}

// CheckGraduation reports whether the curve has raised enough to graduate.
func (e *Engine) CheckGraduation(s State) bool {
	if s.TotalBNBRaised == nil {
		return false
	}
	return s.TotalBNBRaised.Cmp(e.params.GraduationThreshold) >= 0
}

// Progress returns raised / threshold, capped at 1.
func (e *Engine) Progress(s State) float64 {
	if s.TotalBNBRaised == nil {
		return 0
	}
	r := new(big.Rat).SetFrac(s.TotalBNBRaised, e.params.GraduationThreshold)
	f, _ := r.Float64()
	if f > 1 {
		return 1
	}
	return f
}

// Graduate computes the liquidity split for a curve that has reached the threshold. The
// caller is responsible for applying it exactly once.
func (e *Engine) Graduate(s State) (*LiquiditySplit, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !e.CheckGraduation(s) {
		return nil, fmt.Errorf("%w: raised %s below graduation threshold %s",
			ErrInvalidInput, s.TotalBNBRaised, e.params.GraduationThreshold)
	}

	raised := s.TotalBNBRaised
	liquidity := bps(raised, e.params.LiquidityBps)
	creator := bps(raised, e.params.CreatorRewardBps)
	platform := new(big.Int).Sub(raised, liquidity)
	platform.Sub(platform, creator)

	tokens := new(big.Int).Sub(s.TotalSupplyCap, s.SoldSupply)
	listing := new(big.Int)
	if tokens.Sign() > 0 {
		listing.Mul(liquidity, Unit())
		listing.Quo(listing, tokens)
	}

	return &LiquiditySplit{
		LiquidityBNB:    liquidity,
		CreatorBNB:      creator,
		PlatformBNB:     platform,
		LiquidityTokens: tokens,
		ListingPrice:    listing,
	}, nil
}

// Apply returns the state after a confirmed buy or sell quote.
func (s State) Apply(newSoldSupply, newBNBRaised *big.Int) State {
	return State{
		SoldSupply:     new(big.Int).Set(newSoldSupply),
		TotalBNBRaised: new(big.Int).Set(newBNBRaised),
		InitialPrice:   s.InitialPrice,
		TotalSupplyCap: s.TotalSupplyCap,
		Graduated:      s.Graduated,
	}
}
