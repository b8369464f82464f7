package business

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"launchpad/internal/models"
	"launchpad/pkg/bondingcurve"
	"launchpad/pkg/utils"
)

const (
	defaultMaxTradeTries = 3
	defaultDexFeeBps     = 25
)

// Config tunes the trading service around the pricing engine.
type Config struct {
	// MaxTradeTries bounds attempts of a trade that loses an optimistic version check.
	MaxTradeTries uint
	// RetryInterval is the first backoff delay between those attempts.
	RetryInterval time.Duration
	// DexFeeBps is the swap fee of the pool a graduated token is listed on.
	DexFeeBps uint64
}

// CurveService executes trades against persisted curves. Every state change of a
// curve goes through Store.WithTokenLock, so trades on one token are applied one at a
// time and in commit order.
type CurveService struct {
	engine    *bondingcurve.Engine
	store     Store
	cfg       Config
	notifier  TradeNotifier
	publisher EventPublisher
	now       func() time.Time
	log       *logrus.Entry
}

// Option configures optional collaborators of a CurveService.
type Option func(*CurveService)

// WithNotifier sets the collaborator that receives committed trades.
func WithNotifier(n TradeNotifier) Option {
	return func(s *CurveService) { s.notifier = n }
}

// WithPublisher sets the queue publisher used for graduation events.
func WithPublisher(p EventPublisher) Option {
	return func(s *CurveService) { s.publisher = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *CurveService) { s.now = now }
}

func NewCurveService(engine *bondingcurve.Engine, store Store, cfg Config, opts ...Option) *CurveService {
	if cfg.MaxTradeTries == 0 {
		cfg.MaxTradeTries = defaultMaxTradeTries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 20 * time.Millisecond
	}
	if cfg.DexFeeBps == 0 {
		cfg.DexFeeBps = defaultDexFeeBps
	}

	s := &CurveService{
		engine: engine,
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		log:    logrus.WithField("component", "curve_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the pricing engine used by the service.
func (s *CurveService) Engine() *bondingcurve.Engine {
	return s.engine
}

// NormalizeAddress validates an EVM address and returns its checksummed form.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address).Hex(), nil
}

// CreateCurveInput describes a new token. Zero InitialPrice / TotalSupply take the
// engine defaults.
type CreateCurveInput struct {
	TokenAddress   string
	CreatorAddress string
	Name           string
	Symbol         string
	InitialPrice   *big.Int
	TotalSupply    *big.Int
}

// CreateCurve registers a token with an empty curve.
func (s *CurveService) CreateCurve(ctx context.Context, in CreateCurveInput) (*models.TokenCurve, error) {
	token, err := NormalizeAddress(in.TokenAddress)
	if err != nil {
		return nil, err
	}
	creator, err := NormalizeAddress(in.CreatorAddress)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Symbol) == "" {
		return nil, fmt.Errorf("%w: name and symbol are required", bondingcurve.ErrInvalidInput)
	}

	params := s.engine.Params()
	price := params.DefaultInitialPrice
	if in.InitialPrice != nil && in.InitialPrice.Sign() != 0 {
		price = in.InitialPrice
	}
	supply := params.DefaultTotalSupply
	if in.TotalSupply != nil && in.TotalSupply.Sign() != 0 {
		supply = in.TotalSupply
	}
	if err := bondingcurve.NewState(price, supply).Validate(); err != nil {
		return nil, err
	}

	curve := &models.TokenCurve{
		TokenAddress:   token,
		CreatorAddress: creator,
		Name:           strings.TrimSpace(in.Name),
		Symbol:         strings.TrimSpace(in.Symbol),
		InitialPrice:   models.NewAmount(price),
		TotalSupply:    models.NewAmount(supply),
	}
	if err := s.store.CreateCurve(ctx, curve); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"token":         curve.TokenAddress,
		"creator":       curve.CreatorAddress,
		"initial_price": curve.InitialPrice.String(),
		"total_supply":  curve.TotalSupply.String(),
	}).Info("Token curve created")
	return curve, nil
}

func (s *CurveService) GetCurve(ctx context.Context, tokenAddress string) (*models.TokenCurve, error) {
	token, err := NormalizeAddress(tokenAddress)
	if err != nil {
		return nil, err
	}
	return s.store.GetCurve(ctx, token)
}

func (s *CurveService) ListCurves(ctx context.Context, page Page) ([]models.TokenCurve, int64, error) {
	return s.store.ListCurves(ctx, page)
}

// CurveStats is the derived market view of a curve.
type CurveStats struct {
	SpotPrice *big.Int
	Progress  float64
}

// Stats returns the spot price and graduation progress of curve.
func (s *CurveService) Stats(curve *models.TokenCurve) (CurveStats, error) {
	state := curve.State()
	price, err := s.engine.SpotPrice(state)
	if err != nil {
		return CurveStats{}, err
	}
	return CurveStats{SpotPrice: price, Progress: s.engine.Progress(state)}, nil
}

func (s *CurveService) GetHolder(ctx context.Context, tokenAddress, trader string) (*models.CurveHolder, error) {
	token, err := NormalizeAddress(tokenAddress)
	if err != nil {
		return nil, err
	}
	trader, err = NormalizeAddress(trader)
	if err != nil {
		return nil, err
	}
	return s.store.GetHolder(ctx, token, trader)
}

func (s *CurveService) ListTrades(ctx context.Context, tokenAddress string, page Page) ([]models.CurveTrade, int64, error) {
	token, err := NormalizeAddress(tokenAddress)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListTrades(ctx, token, page)
}

func (s *CurveService) GetGraduation(ctx context.Context, tokenAddress string) (*models.CurveGraduation, error) {
	token, err := NormalizeAddress(tokenAddress)
	if err != nil {
		return nil, err
	}
	return s.store.GetGraduation(ctx, token)
}

// QuoteBuy prices a buy against the current stored state without executing it.
func (s *CurveService) QuoteBuy(ctx context.Context, tokenAddress string, bnbIn, minTokensOut *big.Int) (*bondingcurve.BuyQuote, error) {
	curve, err := s.GetCurve(ctx, tokenAddress)
	if err != nil {
		return nil, err
	}
	return s.engine.QuoteBuy(curve.State(), bnbIn, minTokensOut)
}

// QuoteSell prices a sell against the current stored state without executing it.
func (s *CurveService) QuoteSell(ctx context.Context, tokenAddress string, tokensIn, minBNBOut *big.Int) (*bondingcurve.SellQuote, error) {
	curve, err := s.GetCurve(ctx, tokenAddress)
	if err != nil {
		return nil, err
	}
	return s.engine.QuoteSell(curve.State(), tokensIn, minBNBOut)
}

// CostToBuy returns the gross BNB, fees included, needed to buy exactly tokens from
// the current stored state.
func (s *CurveService) CostToBuy(ctx context.Context, tokenAddress string, tokens *big.Int) (*big.Int, error) {
	curve, err := s.GetCurve(ctx, tokenAddress)
	if err != nil {
		return nil, err
	}
	return s.engine.CostToBuy(curve.State(), tokens)
}

// DexQuote is a swap estimate against the pool a graduated token was listed on.
type DexQuote struct {
	Side      string
	AmountIn  *big.Int
	AmountOut *big.Int
	FeeBps    uint64
}

// listingPool returns the (bnb, token) reserves seeded on graduation.
func (s *CurveService) listingPool(ctx context.Context, tokenAddress, side string) (*big.Int, *big.Int, error) {
	switch side {
	case models.TradeSideBuy, models.TradeSideSell:
	default:
		return nil, nil, fmt.Errorf("%w: side must be buy or sell", bondingcurve.ErrInvalidInput)
	}

	g, err := s.GetGraduation(ctx, tokenAddress)
	if errors.Is(err, ErrGraduationNotFound) {
		return nil, nil, ErrNotGraduated
	}
	if err != nil {
		return nil, nil, err
	}
	return g.LiquidityBNB.BigInt(), g.LiquidityTokens.BigInt(), nil
}

// QuoteDex estimates a swap against the listing pool (the liquidity split of the
// graduation). side is "buy" (BNB in) or "sell" (tokens in).
func (s *CurveService) QuoteDex(ctx context.Context, tokenAddress, side string, amountIn *big.Int) (*DexQuote, error) {
	bnb, tokens, err := s.listingPool(ctx, tokenAddress, side)
	if err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", bondingcurve.ErrInvalidInput)
	}

	inputType := "x"
	if side == models.TradeSideSell {
		inputType = "y"
	}
	out, err := utils.SimulateConstantProductAmountOut(amountIn, inputType, bnb, tokens, s.cfg.DexFeeBps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bondingcurve.ErrInsufficientOutput, err)
	}
	return &DexQuote{Side: side, AmountIn: amountIn, AmountOut: out, FeeBps: s.cfg.DexFeeBps}, nil
}

// QuoteDexExactOut estimates the input needed to receive exactly amountOut from the
// listing pool: tokens for a "buy", BNB for a "sell".
func (s *CurveService) QuoteDexExactOut(ctx context.Context, tokenAddress, side string, amountOut *big.Int) (*DexQuote, error) {
	bnb, tokens, err := s.listingPool(ctx, tokenAddress, side)
	if err != nil {
		return nil, err
	}
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", bondingcurve.ErrInvalidInput)
	}

	outputType := "y"
	if side == models.TradeSideSell {
		outputType = "x"
	}
	in, err := utils.SimulateConstantProductAmountIn(amountOut, outputType, bnb, tokens, s.cfg.DexFeeBps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bondingcurve.ErrInsufficientOutput, err)
	}
	return &DexQuote{Side: side, AmountIn: in, AmountOut: amountOut, FeeBps: s.cfg.DexFeeBps}, nil
}

// MarkSeeded records that the DEX pool of a graduated token has been created.
func (s *CurveService) MarkSeeded(ctx context.Context, tokenAddress string) error {
	token, err := NormalizeAddress(tokenAddress)
	if err != nil {
		return err
	}
	return s.store.MarkGraduationSeeded(ctx, token, s.now())
}
