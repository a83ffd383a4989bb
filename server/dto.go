package server

import (
	"strings"

	"github.com/shopspring/decimal"

	dex "github.com/traderoom/dexcore"
)

type registerAssetRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

type faucetRequest struct {
	Trader string          `json:"trader" binding:"required"`
	Ticker string          `json:"ticker" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type transferRequest struct {
	Trader string          `json:"trader" binding:"required"`
	Ticker string          `json:"ticker" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type limitOrderRequest struct {
	Trader string          `json:"trader" binding:"required"`
	Ticker string          `json:"ticker" binding:"required"`
	Side   string          `json:"side" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Price  decimal.Decimal `json:"price" binding:"required"`
}

type marketOrderRequest struct {
	Trader string          `json:"trader" binding:"required"`
	Ticker string          `json:"ticker" binding:"required"`
	Side   string          `json:"side" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type limitOrderResponse struct {
	OrderID uint64 `json:"order_id"`
}

type marketOrderResponse struct {
	Fills []*dex.Fill `json:"fills"`
}

type balanceResponse struct {
	Trader string          `json:"trader"`
	Ticker string          `json:"ticker"`
	Amount decimal.Decimal `json:"amount"`
	Wallet decimal.Decimal `json:"wallet"`
}

type depthResponse struct {
	Ticker     string           `json:"ticker"`
	SequenceID uint64           `json:"seq_id"`
	Asks       []*dex.DepthItem `json:"asks"`
	Bids       []*dex.DepthItem `json:"bids"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func parseSide(s string) (dex.Side, error) {
	switch strings.ToLower(s) {
	case "buy":
		return dex.Buy, nil
	case "sell":
		return dex.Sell, nil
	}
	return 0, dex.ErrInvalidParam
}
