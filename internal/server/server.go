package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/agrilink/agrilink/internal/auth"
	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/authorization"
	"github.com/agrilink/agrilink/internal/clock"
	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/internal/device"
	devicedomain "github.com/agrilink/agrilink/internal/device/domain"
	"github.com/agrilink/agrilink/internal/farm"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	"github.com/agrilink/agrilink/internal/ingest"
	ingestdomain "github.com/agrilink/agrilink/internal/ingest/domain"
	"github.com/agrilink/agrilink/internal/lotevent"
	loteventdomain "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/agrilink/agrilink/internal/mqttbridge"
	"github.com/agrilink/agrilink/internal/observability"
	obsmiddleware "github.com/agrilink/agrilink/internal/observability/logger"
	obsmetrics "github.com/agrilink/agrilink/internal/observability/metrics"
	obstracing "github.com/agrilink/agrilink/internal/observability/tracing"
	"github.com/agrilink/agrilink/internal/providers"
	"github.com/agrilink/agrilink/internal/providers/email"
	"github.com/agrilink/agrilink/internal/providers/storage"
	"github.com/agrilink/agrilink/internal/qa"
	qadomain "github.com/agrilink/agrilink/internal/qa/domain"
	"github.com/agrilink/agrilink/internal/ratelimit"
	"github.com/agrilink/agrilink/internal/realtime"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	farm.Module,
	lotevent.Module,
	device.Module,
	realtime.Module,
	ratelimit.Module,
	ingest.Module,
	providers.Module,
	qa.Module,
	mqttbridge.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, allowedOrigins []string) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(CORS(allowedOrigins))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, cfg.CORSAllowedOrigins)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	clock  clock.Clock

	authsvc   authdomain.Service
	authzSvc  authorization.Service
	farmSvc   farmdomain.Service
	eventSvc  loteventdomain.Service
	deviceSvc devicedomain.Service
	ingestSvc ingestdomain.Service
	qaSvc     qadomain.Service
	hub       *realtime.Hub
	store     storage.Store
	mailer    email.Provider

	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock

	Authsvc   authdomain.Service
	AuthzSvc  authorization.Service
	FarmSvc   farmdomain.Service
	EventSvc  loteventdomain.Service
	DeviceSvc devicedomain.Service
	IngestSvc ingestdomain.Service
	QASvc     qadomain.Service
	Hub       *realtime.Hub
	Store     storage.Store
	Mailer    email.Provider

	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http"),
		clock:      p.Clock,
		authsvc:    p.Authsvc,
		authzSvc:   p.AuthzSvc,
		farmSvc:    p.FarmSvc,
		eventSvc:   p.EventSvc,
		deviceSvc:  p.DeviceSvc,
		ingestSvc:  p.IngestSvc,
		qaSvc:      p.QASvc,
		hub:        p.Hub,
		store:      p.Store,
		mailer:     p.Mailer,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerIoTRoutes()
	svc.registerQARoutes()
	svc.registerPublicRoutes()
	svc.registerRealtimeRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.POST("/refresh", s.Refresh)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Farms --------
	api.GET("/farms", s.ListFarms)
	api.POST("/farms", s.authorize(authorization.ObjectFarm, authorization.ActionFarmCreate), s.CreateFarm)

	// -------- Lots --------
	api.POST("/lots", s.authorize(authorization.ObjectLot, authorization.ActionLotCreate), s.CreateLot)
	api.GET("/lots/:id/events", s.ListLotEvents)
	api.POST("/lots/:id/events", s.authorize(authorization.ObjectEvent, authorization.ActionEventCreate), s.CreateLotEvent)
	api.GET("/lots/:id/events/export", s.ExportLotEvents)
}

func (s *Server) registerIoTRoutes() {
	iot := s.engine.Group("/api/iot")

	iot.POST("/ingest", s.IngestReading)

	if s.cfg.IoT.DeviceListPublic {
		iot.GET("/devices", s.ListDevices)
	} else {
		iot.GET("/devices", s.AuthRequired(), s.authorize(authorization.ObjectDevice, authorization.ActionDeviceView), s.ListDevices)
	}
	iot.POST("/devices", s.AuthRequired(), s.authorize(authorization.ObjectDevice, authorization.ActionDeviceCreate), s.RegisterDevice)
}

func (s *Server) registerQARoutes() {
	qa := s.engine.Group("/api/qa", s.AuthRequired())

	qa.GET("/kpi", s.GetKPI)
	qa.GET("/kpi/report", s.GetKPIReport)
	qa.POST("/inspections", s.authorize(authorization.ObjectInspection, authorization.ActionInspectionCreate), s.CreateInspection)
	qa.GET("/certificates", s.ListCertificates)
	qa.POST("/certificates", s.authorize(authorization.ObjectCertificate, authorization.ActionCertificateUpload), s.UploadCertificate)
}

func (s *Server) registerPublicRoutes() {
	s.engine.GET("/api/public/lot/:publicId", s.GetPublicLot)
	s.engine.POST("/api/pilot", s.SubmitPilotRequest)

	if local, ok := s.store.(*storage.LocalStore); ok {
		s.engine.Static("/uploads", local.Root())
	}
}

func (s *Server) registerRealtimeRoutes() {
	s.engine.GET("/realtime", s.RealtimeWebSocket)
	s.engine.GET("/realtime/stream", s.RealtimeStream)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
