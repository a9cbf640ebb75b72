// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/go-petr/fx-ledger/internal/accountdelivery"
	"github.com/go-petr/fx-ledger/internal/accountrepo"
	"github.com/go-petr/fx-ledger/internal/accountservice"
	"github.com/go-petr/fx-ledger/internal/idempotencyrepo"
	"github.com/go-petr/fx-ledger/internal/metrics"
	"github.com/go-petr/fx-ledger/internal/middleware"
	"github.com/go-petr/fx-ledger/internal/store"
	"github.com/go-petr/fx-ledger/internal/transactiondelivery"
	"github.com/go-petr/fx-ledger/internal/transactionservice"
	"github.com/go-petr/fx-ledger/pkg/configpkg"
	"github.com/go-petr/fx-ledger/pkg/currencypkg"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/go-petr/fx-ledger/pkg/moneypkg"
	"github.com/go-petr/fx-ledger/pkg/tokenpkg"
	"github.com/go-petr/fx-ledger/pkg/web"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB         *sql.DB
	Engine     *gin.Engine
	Config     configpkg.Config
	TokenMaker tokenpkg.Maker
	Metrics    *metrics.Recorder
	Registry   *prometheus.Registry
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// Option configures optional server dependencies.
type Option func(*options)

type options struct {
	redis redis.UniversalClient
}

// WithRedis enables Idempotency-Key replays on the mutating endpoints.
func WithRedis(client redis.UniversalClient) Option {
	return func(o *options) {
		o.redis = client
	}
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tokenMaker, err := tokenpkg.New(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	if err := registerValidators(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	accountRepo := accountrepo.NewRepoPGS(conn)
	accountService := accountservice.New(accountRepo)
	engine := transactionservice.New(store.NewSQLStore(conn), recorder)

	accountHandler := accountdelivery.NewHandler(accountService)
	transactionHandler := transactiondelivery.NewHandler(engine)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestLogger(logger))

	router.GET("/healthz", healthz(conn))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	authRoutes := router.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.GET("/accounts/:id", accountHandler.Get)

	mutating := []gin.HandlerFunc{}
	if o.redis != nil {
		idempotencyRepo := idempotencyrepo.NewRepoRedis(o.redis, config.IdempotencyTTL)
		mutating = append(mutating, middleware.Idempotency(idempotencyRepo))
	}

	authRoutes.POST("/transactions/transfer", append(mutating, transactionHandler.Transfer)...)
	authRoutes.POST("/transactions/exchange", append(mutating, transactionHandler.Exchange)...)

	server := &Server{
		DB:         conn,
		Engine:     router,
		Config:     config,
		TokenMaker: tokenMaker,
		Metrics:    recorder,
		Registry:   registry,
	}

	return server, nil
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("currency", currencypkg.ValidCurrency); err != nil {
		return errors.New("cannot register currency validator")
	}

	if err := v.RegisterValidation("decimal_gt0", moneypkg.ValidPositiveDecimal); err != nil {
		return errors.New("cannot register decimal_gt0 validator")
	}

	return nil
}

func healthz(conn *sql.DB) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if err := conn.PingContext(gctx.Request.Context()); err != nil {
			zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Msg("database ping failed")
			gctx.JSON(http.StatusServiceUnavailable, web.Error(errorspkg.ErrInternal))

			return
		}

		gctx.JSON(http.StatusOK, web.Response{Data: gin.H{"status": "ok"}})
	}
}
