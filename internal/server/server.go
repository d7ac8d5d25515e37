// Package server exposes the dashboard REST API consumed by the browser UI.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"coindeck/internal/config"
	"coindeck/internal/domain"
	"coindeck/internal/storage"
	"coindeck/internal/wallet"
)

// QuoteSource serves consistent quote snapshots to handlers. Implemented by
// the poll service.
type QuoteSource interface {
	QuotesFor(ctx context.Context, currency string) (domain.QuoteBook, time.Time, error)
	Currency() string
}

// BalanceReader fetches on-chain balances for the wallet panel.
type BalanceReader interface {
	FetchBalance(ctx context.Context, address string) (wallet.Balance, error)
}

// Server wires the HTTP API together.
type Server struct {
	cfg      config.ServerConfig
	users    storage.UserStore
	holdings storage.HoldingStore
	watch    storage.WatchlistStore
	alerts   storage.AlertStore
	quotes   QuoteSource
	wallet   BalanceReader
	logger   zerolog.Logger
	engine   *gin.Engine
}

// New builds the API server and registers its routes.
func New(cfg config.ServerConfig, users storage.UserStore, holdings storage.HoldingStore, watch storage.WatchlistStore, alerts storage.AlertStore, quotes QuoteSource, balances BalanceReader, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		users:    users,
		holdings: holdings,
		watch:    watch,
		alerts:   alerts,
		quotes:   quotes,
		wallet:   balances,
		logger:   logger.With().Str("component", "http_server").Logger(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	s.registerRoutes(engine)
	s.engine = engine
	return s
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.POST("/signup", s.signup)
	engine.POST("/login", s.login)

	engine.GET("/markets", s.getMarkets)
	engine.GET("/wallet/:address", s.getWalletBalance)

	protected := engine.Group("/")
	protected.Use(s.authMiddleware())
	{
		protected.GET("/portfolio", s.getPortfolio)
		protected.POST("/portfolio", s.createHolding)
		protected.PUT("/portfolio/:id", s.updateHolding)
		protected.DELETE("/portfolio/:id", s.deleteHolding)

		protected.GET("/watchlist", s.getWatchlist)
		protected.POST("/watchlist/:coinID/toggle", s.toggleWatchlist)

		protected.GET("/alerts", s.getAlerts)
		protected.POST("/alerts", s.createAlert)
		protected.PUT("/alerts/:id", s.updateAlert)
		protected.POST("/alerts/:id/toggle", s.toggleAlert)
		protected.DELETE("/alerts/:id", s.deleteAlert)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) storageError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("storage operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func validationError(c *gin.Context, err error) bool {
	if errors.Is(err, domain.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return true
	}
	return false
}
