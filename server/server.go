// Package server exposes the exchange core over HTTP and WebSocket. Mutations
// go through JSON endpoints; book events stream to WebSocket subscribers via
// the Feed, which also serves aggregated depth rebuilt from the event stream.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	dex "github.com/traderoom/dexcore"
	"github.com/traderoom/dexcore/token"
)

// Config carries the server's external settings.
type Config struct {
	// AdminKey guards asset registration. An empty key disables the
	// /assets endpoint entirely.
	AdminKey string
	// CORSOrigins lists the allowed origins, "*" for any.
	CORSOrigins []string
}

// Server wires the exchange, its event feed and the token custodians behind
// an HTTP API.
type Server struct {
	exchange *dex.Exchange
	feed     *Feed
	cfg      Config

	tokens   *token.Vault
	upgrader websocket.Upgrader
}

// New creates a server over the given exchange and feed. The feed must be the
// exchange's publisher, otherwise depth and WebSocket endpoints serve nothing.
func New(exchange *dex.Exchange, feed *Feed, vault *token.Vault, cfg Config) *Server {
	return &Server{
		exchange: exchange,
		feed:     feed,
		cfg:      cfg,
		tokens:   vault,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// AddAsset creates an in-memory token custodian for the ticker and registers
// it with the exchange. Used both by bootstrap and by the /assets endpoint.
func (s *Server) AddAsset(ticker string) error {
	tok, err := s.tokens.Create(ticker)
	if err != nil {
		return err
	}
	return s.exchange.RegisterAsset(s.exchange.Admin(), ticker, tok)
}

// Handler builds the full HTTP handler, CORS middleware included.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/assets", s.handleRegisterAsset)
	r.GET("/assets", s.handleListAssets)
	r.POST("/faucet", s.handleFaucet)
	r.POST("/deposit", s.handleDeposit)
	r.POST("/withdraw", s.handleWithdraw)
	r.POST("/orders/limit", s.handleLimitOrder)
	r.POST("/orders/market", s.handleMarketOrder)
	r.GET("/orders/:ticker/:side", s.handleGetOrders)
	r.GET("/balances/:trader/:ticker", s.handleBalance)
	r.GET("/depth/:ticker", s.handleDepth)
	r.GET("/stats/:ticker", s.handleStats)
	r.GET("/ws", s.handleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// Run serves the API on addr until ListenAndServe returns.
func (s *Server) Run(addr string) error {
	slog.Info("api listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleRegisterAsset(c *gin.Context) {
	if s.cfg.AdminKey == "" || c.GetHeader("X-Admin-Key") != s.cfg.AdminKey {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: dex.ErrUnauthorized.Error()})
		return
	}

	var req registerAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.AddAsset(req.Ticker); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ticker": req.Ticker, "quote": s.exchange.QuoteTicker()})
}

func (s *Server) handleListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"assets": s.exchange.Assets(),
		"quote":  s.exchange.QuoteTicker(),
	})
}

func (s *Server) handleFaucet(c *gin.Context) {
	var req faucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	tok, ok := s.tokens.Get(req.Ticker)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: dex.ErrUnknownAsset.Error()})
		return
	}

	if err := tok.Faucet(req.Trader, req.Amount); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trader": req.Trader, "ticker": req.Ticker, "wallet": tok.BalanceOf(req.Trader)})
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.exchange.Deposit(req.Trader, req.Ticker, req.Amount); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.balanceOf(req.Trader, req.Ticker))
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.exchange.Withdraw(req.Trader, req.Ticker, req.Amount); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.balanceOf(req.Trader, req.Ticker))
}

func (s *Server) handleLimitOrder(c *gin.Context) {
	var req limitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	orderID, err := s.exchange.CreateLimitOrder(req.Trader, req.Ticker, req.Amount, req.Price, side)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, limitOrderResponse{OrderID: orderID})
}

func (s *Server) handleMarketOrder(c *gin.Context) {
	var req marketOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	fills, err := s.exchange.CreateMarketOrder(req.Trader, req.Ticker, req.Amount, side)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, marketOrderResponse{Fills: fills})
}

func (s *Server) handleGetOrders(c *gin.Context) {
	side, err := parseSide(c.Param("side"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	orders, err := s.exchange.GetOrders(c.Param("ticker"), side)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) handleBalance(c *gin.Context) {
	c.JSON(http.StatusOK, s.balanceOf(c.Param("trader"), c.Param("ticker")))
}

func (s *Server) handleDepth(c *gin.Context) {
	ticker := c.Param("ticker")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: dex.ErrInvalidParam.Error()})
		return
	}

	book := s.feed.Book(ticker)
	c.JSON(http.StatusOK, depthResponse{
		Ticker:     ticker,
		SequenceID: book.SequenceID(),
		Asks:       book.Levels(dex.Sell, limit),
		Bids:       book.Levels(dex.Buy, limit),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.exchange.Stats(c.Param("ticker"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleWebSocket upgrades the connection and streams book events until the
// client goes away. Inbound frames are drained and discarded.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.feed.Subscribe(256)
	defer s.feed.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case log, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteJSON(log); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) balanceOf(trader, ticker string) balanceResponse {
	resp := balanceResponse{
		Trader: trader,
		Ticker: ticker,
		Amount: s.exchange.TraderBalance(trader, ticker),
	}
	if tok, ok := s.tokens.Get(ticker); ok {
		resp.Wallet = tok.BalanceOf(trader)
	}
	return resp
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), errorResponse{Error: err.Error()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, dex.ErrInvalidParam), errors.Is(err, token.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, dex.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, dex.ErrUnknownAsset):
		return http.StatusNotFound
	case errors.Is(err, dex.ErrDuplicateAsset), errors.Is(err, token.ErrDuplicateTicker):
		return http.StatusConflict
	case errors.Is(err, dex.ErrForbiddenAsset),
		errors.Is(err, dex.ErrInsufficientBalance),
		errors.Is(err, dex.ErrInsufficientQuoteBalance),
		errors.Is(err, token.ErrInsufficientFunds),
		errors.Is(err, token.ErrInsufficientCustody):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
