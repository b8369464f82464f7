package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/handlers/business"
	"launchpad/pkg/bondingcurve"
)

const (
	testToken   = "0x1111111111111111111111111111111111111111"
	testCreator = "0x2222222222222222222222222222222222222222"
	testTrader  = "0x3333333333333333333333333333333333333333"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine, err := bondingcurve.New(bondingcurve.DefaultParams())
	require.NoError(t, err)
	svc := business.NewCurveService(engine, business.NewMemoryStore(), business.Config{})
	h := NewTokenCurveHandler(svc)

	r := gin.New()
	curve := r.Group("/token-curve")
	curve.POST("", h.CreateTokenCurve)
	curve.GET("", h.ListTokenCurves)
	curve.GET("/:address", h.GetTokenCurve)
	curve.GET("/:address/quote/buy", h.QuoteBuy)
	curve.GET("/:address/quote/sell", h.QuoteSell)
	curve.GET("/:address/quote/cost", h.QuoteCost)
	curve.GET("/:address/quote/dex", h.QuoteDex)
	curve.POST("/:address/buy", h.Buy)
	curve.POST("/:address/sell", h.Sell)
	curve.GET("/:address/trades", h.ListTrades)
	curve.GET("/:address/graduation", h.GetGraduation)
	curve.GET("/:address/holders/:trader", h.GetHolder)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createTestCurve(t *testing.T, r http.Handler) TokenCurveResp {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/token-curve", CreateTokenCurveRequest{
		TokenAddress:   testToken,
		CreatorAddress: testCreator,
		Name:           "Moon",
		Symbol:         "MOON",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[TokenCurveResp](t, rec)
}

func TestCreateAndGetTokenCurve(t *testing.T) {
	r := newTestRouter(t)

	created := createTestCurve(t, r)
	assert.Equal(t, testToken, created.TokenAddress)
	assert.Equal(t, "0.00001", created.InitialPrice)
	assert.Equal(t, "1000000000", created.TotalSupply)
	assert.Equal(t, "0.00001", created.SpotPrice)
	assert.Equal(t, "0", created.SoldSupply)
	assert.Zero(t, created.Progress)

	rec := doJSON(t, r, http.MethodGet, "/token-curve/"+testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[TokenCurveResp](t, rec).ID)

	rec = doJSON(t, r, http.MethodPost, "/token-curve", CreateTokenCurveRequest{
		TokenAddress: testToken, CreatorAddress: testCreator, Name: "Moon", Symbol: "MOON",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/token-curve/0x9999999999999999999999999999999999999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/token-curve/not-an-address", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "invalid address")
}

func TestCreateTokenCurveValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing fields", map[string]string{"token_address": testToken}},
		{"bad price", CreateTokenCurveRequest{TokenAddress: testToken, CreatorAddress: testCreator, Name: "A", Symbol: "A", InitialPrice: "abc"}},
		{"negative supply", CreateTokenCurveRequest{TokenAddress: testToken, CreatorAddress: testCreator, Name: "A", Symbol: "A", TotalSupply: "-5"}},
		{"bad creator", CreateTokenCurveRequest{TokenAddress: testToken, CreatorAddress: "0x1", Name: "A", Symbol: "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/token-curve", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestQuoteEndpoints(t *testing.T) {
	r := newTestRouter(t)
	createTestCurve(t, r)

	rec := doJSON(t, r, http.MethodGet, "/token-curve/"+testToken+"/quote/buy?amount=0.1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	q := decode[BuyQuoteResp](t, rec)
	assert.Equal(t, "0.1", q.BNBIn)
	assert.Equal(t, "0.09875", q.NetBNB)
	assert.Equal(t, "0.001", q.PlatformFee)
	assert.Equal(t, "0.00025", q.CreatorFee)

	rec = doJSON(t, r, http.MethodGet, "/token-curve/"+testToken+"/quote/cost?tokens=5000", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cost := decode[CostQuoteResp](t, rec)
	assert.Equal(t, "5000", cost.Tokens)
	assert.NotEqual(t, "0", cost.BNBIn)

	base := "/token-curve/" + testToken + "/quote/"
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing amount", base + "buy", http.StatusBadRequest},
		{"zero amount", base + "buy?amount=0", http.StatusBadRequest},
		{"too many decimals", base + "buy?amount=0.0000000000000000001", http.StatusBadRequest},
		{"slippage", base + "buy?amount=0.1&min_out=1000000", http.StatusUnprocessableEntity},
		{"sell beyond sold supply", base + "sell?amount=1", http.StatusUnprocessableEntity},
		{"dex before graduation", base + "dex?side=buy&amount=1", http.StatusConflict},
		{"huge exponent", base + "buy?amount=1e2000000", http.StatusBadRequest},
		{"cost without tokens", base + "cost", http.StatusBadRequest},
		{"cost beyond supply", base + "cost?tokens=1000000001", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestTradeEndpoints(t *testing.T) {
	r := newTestRouter(t)
	createTestCurve(t, r)
	path := "/token-curve/" + testToken

	rec := doJSON(t, r, http.MethodPost, path+"/buy", TradeRequest{Trader: testTrader, Amount: "0.1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	buy := decode[TradeResp](t, rec)
	assert.Equal(t, "buy", buy.Trade.Side)
	assert.Equal(t, buy.Trade.TokenAmount, buy.HolderBalance)
	assert.Equal(t, "0.09875", buy.Curve.BNBRaised)
	assert.Nil(t, buy.Graduation)

	rec = doJSON(t, r, http.MethodGet, path+"/holders/"+testTrader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	holder := decode[HolderResp](t, rec)
	assert.Equal(t, testTrader, holder.Trader)
	assert.Equal(t, buy.HolderBalance, holder.Balance)

	rec = doJSON(t, r, http.MethodGet, path+"/holders/0x4444444444444444444444444444444444444444", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", decode[HolderResp](t, rec).Balance)

	rec = doJSON(t, r, http.MethodGet, path+"/holders/bob", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, path+"/sell", TradeRequest{Trader: testTrader, Amount: "100000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, r, http.MethodPost, path+"/sell", TradeRequest{Trader: testTrader, Amount: buy.HolderBalance})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sell := decode[TradeResp](t, rec)
	assert.Equal(t, "0.097515625", sell.Trade.BNBAmount)
	assert.Equal(t, "0", sell.HolderBalance)
	assert.Equal(t, "0", sell.Curve.SoldSupply)

	rec = doJSON(t, r, http.MethodPost, path+"/buy", map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, path+"/trades?page=1&page_size=1&order_type=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []CurveTradeResp `json:"data"`
		Pagination struct {
			TotalCount int64 `json:"total_count"`
			TotalPages int64 `json:"total_pages"`
			HasNext    bool  `json:"has_next"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(2), page.Pagination.TotalCount)
	assert.Equal(t, int64(2), page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
}

func TestGraduationEndpoints(t *testing.T) {
	r := newTestRouter(t)
	createTestCurve(t, r)
	path := "/token-curve/" + testToken

	rec := doJSON(t, r, http.MethodGet, path+"/graduation", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodPost, path+"/buy", TradeRequest{Trader: testTrader, Amount: "30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[TradeResp](t, rec)
	require.NotNil(t, res.Graduation)
	assert.True(t, res.Curve.Graduated)

	rec = doJSON(t, r, http.MethodGet, path+"/graduation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[GraduationResp](t, rec)
	assert.Equal(t, "pending", g.Status)
	assert.Equal(t, res.Graduation.LiquidityBNB, g.LiquidityBNB)

	rec = doJSON(t, r, http.MethodPost, path+"/buy", TradeRequest{Trader: testTrader, Amount: "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodGet, path+"/quote/dex?side=buy&amount=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dex := decode[DexQuoteResp](t, rec)
	assert.Equal(t, uint64(25), dex.FeeBps)
	assert.NotEqual(t, "0", dex.AmountOut)

	rec = doJSON(t, r, http.MethodGet, path+"/quote/dex?side=swap&amount=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, path+"/quote/dex?side=buy&amount_out="+dex.AmountOut, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	exact := decode[DexQuoteResp](t, rec)
	assert.Equal(t, dex.AmountOut, exact.AmountOut)
	assert.NotEqual(t, "0", exact.AmountIn)

	rec = doJSON(t, r, http.MethodGet, path+"/quote/dex?side=sell&amount_out="+g.LiquidityBNB, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListTokenCurves(t *testing.T) {
	r := newTestRouter(t)
	createTestCurve(t, r)

	rec := doJSON(t, r, http.MethodGet, "/token-curve?page_size=500&order_field=drop_table", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []TokenCurveResp `json:"data"`
		Pagination struct {
			PageSize int `json:"page_size"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 10, page.Pagination.PageSize)
}
