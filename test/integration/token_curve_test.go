package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenCurve struct {
	TokenAddress string `json:"token_address"`
	SoldSupply   string `json:"sold_supply"`
	BNBRaised    string `json:"bnb_raised"`
	SpotPrice    string `json:"spot_price"`
	Graduated    bool   `json:"graduated"`
}

type tradeResponse struct {
	Trade struct {
		Side        string `json:"side"`
		BNBAmount   string `json:"bnb_amount"`
		TokenAmount string `json:"token_amount"`
	} `json:"trade"`
	Curve         tokenCurve `json:"curve"`
	HolderBalance string     `json:"holder_balance"`
}

func postJSON(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(BaseURL+path, "application/json", bytes.NewBuffer(payload))
	require.NoError(t, err)
	return resp
}

func TestTokenCurveAPI(t *testing.T) {
	token := randomAddress()
	trader := randomAddress()
	var bought string

	t.Run("Create Token Curve", func(t *testing.T) {
		resp := postJSON(t, "/token-curve", map[string]string{
			"token_address":   token,
			"creator_address": randomAddress(),
			"name":            "Integration",
			"symbol":          "ITG",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var curve tokenCurve
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&curve))
		assert.Equal(t, "0", curve.SoldSupply)
		assert.False(t, curve.Graduated)
	})

	t.Run("Quote Buy", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/token-curve/%s/quote/buy?amount=0.1", BaseURL, token))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Buy", func(t *testing.T) {
		resp := postJSON(t, "/token-curve/"+token+"/buy", map[string]string{"trader": trader, "amount": "0.1"})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var trade tradeResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&trade))
		assert.Equal(t, "buy", trade.Trade.Side)
		assert.Equal(t, "0.09875", trade.Curve.BNBRaised)
		bought = trade.HolderBalance
	})

	t.Run("Sell All", func(t *testing.T) {
		require.NotEmpty(t, bought)
		resp := postJSON(t, "/token-curve/"+token+"/sell", map[string]string{"trader": trader, "amount": bought})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var trade tradeResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&trade))
		assert.Equal(t, "0", trade.Curve.SoldSupply)
		assert.Equal(t, "0", trade.HolderBalance)
	})

	t.Run("List Trades", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/token-curve/%s/trades", BaseURL, token))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page struct {
			Pagination struct {
				TotalCount int64 `json:"total_count"`
			} `json:"pagination"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		assert.Equal(t, int64(2), page.Pagination.TotalCount)
	})

	t.Run("Unknown Token", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/token-curve/%s", BaseURL, randomAddress()))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
