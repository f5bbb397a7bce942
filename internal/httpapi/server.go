// Package httpapi exposes the cargo service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/cargo/pkg/cargo"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
)

const (
	authClaimsKey     = "auth_claims"
	requestIDHeader   = "X-Request-ID"
	readHeaderTimeout = 5 * time.Second
)

type requestIDKey struct{}

// Run serves the HTTP API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config, service *cargo.Service, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	router, err := NewRouter(cfg, service, logger)
	if err != nil {
		return err
	}
	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return Serve(ctx, cfg, listener, router, logger)
}

// Serve runs handler on listener until ctx is cancelled.
func Serve(ctx context.Context, cfg Config, listener net.Listener, handler http.Handler, logger *zap.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", zap.String("addr", listener.Addr().String()))
		errCh <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter builds the gin engine with every route and middleware wired.
func NewRouter(cfg Config, service *cargo.Service, logger *zap.Logger) (*gin.Engine, error) {
	if service == nil {
		return nil, fmt.Errorf("cargo service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var validator *sessionvalidator.Validator
	if cfg.AuthEnabled() {
		sessionValidator, err := sessionvalidator.New(sessionvalidator.Config{
			SigningKey: []byte(cfg.SessionSigningKey),
			Issuer:     cfg.SessionIssuer,
			CookieName: cfg.SessionCookieName,
		})
		if err != nil {
			return nil, fmt.Errorf("session validator: %w", err)
		}
		validator = sessionValidator
	}

	handler := &httpHandler{
		logger:  logger,
		service: service,
		cfg:     cfg,
	}
	return setupRouter(cfg, handler, validator, newRequestMetrics()), nil
}

func setupRouter(cfg Config, handler *httpHandler, validator *sessionvalidator.Validator, metrics *requestMetrics) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(metrics.middleware())
	router.Use(accessLog(handler.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", handler.handleHealth)
	router.GET("/metrics", metrics.handler())

	data := router.Group("")
	data.Use(requestTimeout(cfg.RequestTimeout))
	if validator != nil {
		data.Use(validator.GinMiddleware(authClaimsKey))
	}

	data.POST("/add_booking", handler.handleLegacyBooking)
	data.GET("/get_booking/:bilty_no", handler.handleGetBooking)

	api := data.Group("/api")
	api.POST("/booking", handler.handleCreateBooking)
	api.GET("/bookings", handler.handleListBookings)
	api.POST("/invoice", handler.handleCreateInvoice)
	api.GET("/invoices", handler.handleListInvoices)
	api.GET("/invoice/:id", handler.handleGetInvoice)
	api.DELETE("/invoice/:id", handler.handleDeleteInvoice)
	api.GET("/ledger/:party", handler.handlePartyLedger)
	api.POST("/ledger/manual", handler.handleManualEntry)
	api.GET("/parties", handler.handleListParties)
	api.GET("/daybook", handler.handleListDaybook)
	api.GET("/godown", handler.handleGodown)

	return router
}

func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Header(requestIDHeader, id)
		ctx.Request = ctx.Request.WithContext(context.WithValue(ctx.Request.Context(), requestIDKey{}, id))
		ctx.Next()
	}
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()
		ctx.Request = ctx.Request.WithContext(requestCtx)
		ctx.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		started := time.Now()
		ctx.Next()
		logger.Info("http request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", requestIDFromContext(ctx.Request.Context())),
		)
	}
}
