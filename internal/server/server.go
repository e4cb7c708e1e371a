package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	buildingdomain "github.com/smallbiznis/storagedesk/internal/building/domain"
	"github.com/smallbiznis/storagedesk/internal/config"
	customerdomain "github.com/smallbiznis/storagedesk/internal/customer/domain"
	"github.com/smallbiznis/storagedesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/storagedesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storagedesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storagedesk/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	"github.com/smallbiznis/storagedesk/internal/providers/pdf"
	"github.com/smallbiznis/storagedesk/internal/ratelimit"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	reportdomain "github.com/smallbiznis/storagedesk/internal/report/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	ledgerCfg   *config.LedgerConfigHolder
	log         *zap.Logger
	tokens      *tokenVerifier
	limiter     requestLimiter
	buildingSvc buildingdomain.Service
	unitSvc     unitdomain.Service
	customerSvc customerdomain.Service
	rentalSvc   rentaldomain.Service
	paymentSvc  paymentdomain.Service
	reportSvc   reportdomain.Service
	pdfProvider pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	LedgerCfg   *config.LedgerConfigHolder
	Log         *zap.Logger
	BuildingSvc buildingdomain.Service
	UnitSvc     unitdomain.Service
	CustomerSvc customerdomain.Service
	RentalSvc   rentaldomain.Service
	PaymentSvc  paymentdomain.Service
	ReportSvc   reportdomain.Service
	PDFProvider pdf.Provider
	APILimiter  *ratelimit.APILimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		ledgerCfg:   p.LedgerCfg,
		log:         log.Named("http.server"),
		tokens:      newTokenVerifier(p.Cfg.AuthTokenHash),
		buildingSvc: p.BuildingSvc,
		unitSvc:     p.UnitSvc,
		customerSvc: p.CustomerSvc,
		rentalSvc:   p.RentalSvc,
		paymentSvc:  p.PaymentSvc,
		reportSvc:   p.ReportSvc,
		pdfProvider: p.PDFProvider,
	}
	if p.APILimiter.Enabled() {
		svc.limiter = p.APILimiter
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.RateLimit())
	api.Use(s.TokenRequired())

	// -------- Buildings --------
	api.GET("/buildings", s.ListBuildings)
	api.POST("/buildings", s.CreateBuilding)
	api.GET("/buildings/:id", s.GetBuildingByID)
	api.PATCH("/buildings/:id", s.UpdateBuilding)
	api.DELETE("/buildings/:id", s.DeleteBuilding)

	// -------- Units --------
	api.GET("/units", s.ListUnits)
	api.POST("/units", s.CreateUnit)
	api.GET("/units/:id", s.GetUnitByID)
	api.PATCH("/units/:id", s.UpdateUnit)
	api.DELETE("/units/:id", s.DeleteUnit)
	api.POST("/units/:id/status", s.ChangeUnitStatus)

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)

	// -------- Rentals --------
	api.GET("/rentals", s.ListRentals)
	api.POST("/rentals", s.CreateRental)
	api.POST("/rentals/quote", s.QuoteRental)
	api.POST("/rentals/reconcile", s.ReconcileRentals)
	api.GET("/rentals/:id", s.GetRentalByID)
	api.DELETE("/rentals/:id", s.RemoveRental)
	api.POST("/rentals/:id/complete", s.CompleteRental)
	api.GET("/rentals/:id/statement", s.RenderRentalStatement)

	// -------- Payments --------
	api.GET("/payments", s.ListPayments)
	api.POST("/payments", s.CreatePayment)
	api.DELETE("/payments/:id", s.DeletePayment)

	// -------- Reports --------
	api.GET("/reports/dashboard", s.GetDashboard)
	api.GET("/settings", s.GetSettings)
}
