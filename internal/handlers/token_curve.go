package handlers

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"launchpad/internal/handlers/business"
	"launchpad/internal/models"
	"launchpad/pkg/bondingcurve"
	"launchpad/pkg/utils"
)

// CurveService is the part of business.CurveService the HTTP layer uses.
type CurveService interface {
	CreateCurve(ctx context.Context, in business.CreateCurveInput) (*models.TokenCurve, error)
	GetCurve(ctx context.Context, tokenAddress string) (*models.TokenCurve, error)
	ListCurves(ctx context.Context, page business.Page) ([]models.TokenCurve, int64, error)
	Stats(curve *models.TokenCurve) (business.CurveStats, error)
	QuoteBuy(ctx context.Context, tokenAddress string, bnbIn, minTokensOut *big.Int) (*bondingcurve.BuyQuote, error)
	QuoteSell(ctx context.Context, tokenAddress string, tokensIn, minBNBOut *big.Int) (*bondingcurve.SellQuote, error)
	CostToBuy(ctx context.Context, tokenAddress string, tokens *big.Int) (*big.Int, error)
	QuoteDex(ctx context.Context, tokenAddress, side string, amountIn *big.Int) (*business.DexQuote, error)
	QuoteDexExactOut(ctx context.Context, tokenAddress, side string, amountOut *big.Int) (*business.DexQuote, error)
	GetHolder(ctx context.Context, tokenAddress, trader string) (*models.CurveHolder, error)
	Buy(ctx context.Context, in business.BuyInput) (*business.TradeResult, error)
	Sell(ctx context.Context, in business.SellInput) (*business.TradeResult, error)
	ListTrades(ctx context.Context, tokenAddress string, page business.Page) ([]models.CurveTrade, int64, error)
	GetGraduation(ctx context.Context, tokenAddress string) (*models.CurveGraduation, error)
}

// TokenCurveHandler serves the token curve endpoints.
type TokenCurveHandler struct {
	svc CurveService
}

func NewTokenCurveHandler(svc CurveService) *TokenCurveHandler {
	return &TokenCurveHandler{svc: svc}
}

// CreateTokenCurveRequest represents the request body for registering a token curve.
// initial_price is in BNB per token and total_supply in whole tokens; both are optional.
type CreateTokenCurveRequest struct {
	TokenAddress   string `json:"token_address" binding:"required"`
	CreatorAddress string `json:"creator_address" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Symbol         string `json:"symbol" binding:"required"`
	InitialPrice   string `json:"initial_price"`
	TotalSupply    string `json:"total_supply"`
}

// TradeRequest represents the request body of a buy or sell. amount is BNB for a buy
// and tokens for a sell; min_out is the slippage bound in the other asset.
type TradeRequest struct {
	Trader string `json:"trader" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	MinOut string `json:"min_out"`
}

// statusFor maps service and engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, business.ErrCurveNotFound), errors.Is(err, business.ErrGraduationNotFound):
		return http.StatusNotFound
	case errors.Is(err, business.ErrCurveExists),
		errors.Is(err, business.ErrConcurrentUpdate),
		errors.Is(err, business.ErrNotGraduated),
		errors.Is(err, bondingcurve.ErrGraduated):
		return http.StatusConflict
	case errors.Is(err, bondingcurve.ErrInsufficientOutput),
		errors.Is(err, bondingcurve.ErrSupplyExceeded),
		errors.Is(err, bondingcurve.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bondingcurve.ErrInvalidInput), errors.Is(err, utils.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path": c.FullPath(),
			"ip":   c.ClientIP(),
		}).Errorf("Request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parsePage reads page, page_size, order_field and order_type with the usual defaults.
func parsePage(c *gin.Context, validFields []string) business.Page {
	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	pageSize := 10
	if ps := c.Query("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	orderField := "id"
	if of := c.Query("order_field"); of != "" {
		// Only whitelisted columns reach ORDER BY
		for _, field := range validFields {
			if of == field {
				orderField = of
				break
			}
		}
	}

	orderType := "desc"
	if ot := c.Query("order_type"); ot == "asc" || ot == "desc" {
		orderType = ot
	}

	return business.Page{Page: page, PageSize: pageSize, OrderField: orderField, OrderType: orderType}
}

func paginated(data interface{}, page business.Page, total int64) gin.H {
	totalPages := (total + int64(page.PageSize) - 1) / int64(page.PageSize)
	return gin.H{
		"data": data,
		"pagination": gin.H{
			"current_page": page.Page,
			"page_size":    page.PageSize,
			"total_pages":  totalPages,
			"total_count":  total,
			"has_next":     page.Page < int(totalPages),
			"has_prev":     page.Page > 1,
		},
	}
}

func (h *TokenCurveHandler) curveResp(curve *models.TokenCurve) (TokenCurveResp, error) {
	stats, err := h.svc.Stats(curve)
	if err != nil {
		return TokenCurveResp{}, err
	}
	return toTokenCurveResp(curve, stats), nil
}

// CreateTokenCurve registers a new token on the bonding curve
func (h *TokenCurveHandler) CreateTokenCurve(c *gin.Context) {
	var request CreateTokenCurveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := utils.ParseOptionalAmount(request.InitialPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	supply, err := utils.ParseOptionalAmount(request.TotalSupply)
	if err != nil {
		respondError(c, err)
		return
	}

	curve, err := h.svc.CreateCurve(c.Request.Context(), business.CreateCurveInput{
		TokenAddress:   request.TokenAddress,
		CreatorAddress: request.CreatorAddress,
		Name:           request.Name,
		Symbol:         request.Symbol,
		InitialPrice:   price,
		TotalSupply:    supply,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.curveResp(curve)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListTokenCurves returns a paginated list of token curves
func (h *TokenCurveHandler) ListTokenCurves(c *gin.Context) {
	page := parsePage(c, []string{"id", "token_address", "sold_supply", "bnb_raised", "graduated", "created_at", "updated_at"})

	curves, total, err := h.svc.ListCurves(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]TokenCurveResp, 0, len(curves))
	for i := range curves {
		resp, err := h.curveResp(&curves[i])
		if err != nil {
			respondError(c, err)
			return
		}
		data = append(data, resp)
	}
	c.JSON(http.StatusOK, paginated(data, page, total))
}

// GetTokenCurve returns one token curve with its spot price and progress
func (h *TokenCurveHandler) GetTokenCurve(c *gin.Context) {
	curve, err := h.svc.GetCurve(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.curveResp(curve)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// QuoteBuy prices spending ?amount= BNB; ?min_out= is optional
func (h *TokenCurveHandler) QuoteBuy(c *gin.Context) {
	amount, minOut, err := parseAmountQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	q, err := h.svc.QuoteBuy(c.Request.Context(), c.Param("address"), amount, minOut)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBuyQuoteResp(q))
}

// QuoteSell prices returning ?amount= tokens; ?min_out= is optional
func (h *TokenCurveHandler) QuoteSell(c *gin.Context) {
	amount, minOut, err := parseAmountQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	q, err := h.svc.QuoteSell(c.Request.Context(), c.Param("address"), amount, minOut)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSellQuoteResp(q))
}

// QuoteCost prices buying exactly ?tokens= tokens
func (h *TokenCurveHandler) QuoteCost(c *gin.Context) {
	tokens, err := utils.ParseAmount(c.Query("tokens"))
	if err != nil {
		respondError(c, err)
		return
	}

	cost, err := h.svc.CostToBuy(c.Request.Context(), c.Param("address"), tokens)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CostQuoteResp{
		Tokens: utils.FormatAmount(tokens),
		BNBIn:  utils.FormatAmount(cost),
	})
}

// QuoteDex estimates a swap on the listing pool of a graduated token. ?amount= is the
// exact input; ?amount_out= asks for the input needed to receive an exact output.
func (h *TokenCurveHandler) QuoteDex(c *gin.Context) {
	side := c.DefaultQuery("side", models.TradeSideBuy)

	var (
		q   *business.DexQuote
		err error
	)
	if out := c.Query("amount_out"); out != "" {
		var amountOut *big.Int
		if amountOut, err = utils.ParseAmount(out); err == nil {
			q, err = h.svc.QuoteDexExactOut(c.Request.Context(), c.Param("address"), side, amountOut)
		}
	} else {
		var amountIn *big.Int
		if amountIn, err = utils.ParseAmount(c.Query("amount")); err == nil {
			q, err = h.svc.QuoteDex(c.Request.Context(), c.Param("address"), side, amountIn)
		}
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DexQuoteResp{
		Side:      q.Side,
		AmountIn:  utils.FormatAmount(q.AmountIn),
		AmountOut: utils.FormatAmount(q.AmountOut),
		FeeBps:    q.FeeBps,
	})
}

// Buy executes a buy on the curve
func (h *TokenCurveHandler) Buy(c *gin.Context) {
	var request TradeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, minOut, err := parseTradeAmounts(request)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.svc.Buy(c.Request.Context(), business.BuyInput{
		TokenAddress: c.Param("address"),
		Trader:       request.Trader,
		BNBIn:        amount,
		MinTokensOut: minOut,
	})
	h.respondTrade(c, result, err)
}

// Sell executes a sell on the curve
func (h *TokenCurveHandler) Sell(c *gin.Context) {
	var request TradeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, minOut, err := parseTradeAmounts(request)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.svc.Sell(c.Request.Context(), business.SellInput{
		TokenAddress: c.Param("address"),
		Trader:       request.Trader,
		TokensIn:     amount,
		MinBNBOut:    minOut,
	})
	h.respondTrade(c, result, err)
}

func (h *TokenCurveHandler) respondTrade(c *gin.Context, result *business.TradeResult, err error) {
	if err != nil {
		respondError(c, err)
		return
	}

	curve, err := h.curveResp(result.Curve)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TradeResp{
		Trade:         toCurveTradeResp(result.Trade),
		Curve:         curve,
		HolderBalance: utils.FormatAmount(result.Holder.Balance.BigInt()),
		Graduation:    toGraduationResp(result.Graduation),
	})
}

// ListTrades returns a paginated list of trades of one curve
func (h *TokenCurveHandler) ListTrades(c *gin.Context) {
	page := parsePage(c, []string{"id", "side", "bnb_amount", "token_amount", "created_at"})

	trades, total, err := h.svc.ListTrades(c.Request.Context(), c.Param("address"), page)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]CurveTradeResp, 0, len(trades))
	for i := range trades {
		data = append(data, toCurveTradeResp(&trades[i]))
	}
	c.JSON(http.StatusOK, paginated(data, page, total))
}

// GetGraduation returns the liquidity split of a graduated curve
func (h *TokenCurveHandler) GetGraduation(c *gin.Context) {
	g, err := h.svc.GetGraduation(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGraduationResp(g))
}

// GetHolder returns the curve balance of one trader
func (h *TokenCurveHandler) GetHolder(c *gin.Context) {
	holder, err := h.svc.GetHolder(c.Request.Context(), c.Param("address"), c.Param("trader"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, HolderResp{
		TokenAddress: holder.TokenAddress,
		Trader:       holder.Trader,
		Balance:      utils.FormatAmount(holder.Balance.BigInt()),
	})
}

func parseAmountQuery(c *gin.Context) (*big.Int, *big.Int, error) {
	amount, err := utils.ParseAmount(c.Query("amount"))
	if err != nil {
		return nil, nil, err
	}
	minOut, err := utils.ParseOptionalAmount(c.Query("min_out"))
	if err != nil {
		return nil, nil, err
	}
	return amount, minOut, nil
}

func parseTradeAmounts(request TradeRequest) (*big.Int, *big.Int, error) {
	amount, err := utils.ParseAmount(request.Amount)
	if err != nil {
		return nil, nil, err
	}
	minOut, err := utils.ParseOptionalAmount(request.MinOut)
	if err != nil {
		return nil, nil, err
	}
	return amount, minOut, nil
}
