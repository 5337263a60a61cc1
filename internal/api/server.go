package api

import (
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/vietanh2810/community-events/docs"
	v1 "github.com/vietanh2810/community-events/internal/api/handler/v1"
	"github.com/vietanh2810/community-events/internal/api/handler/v1/response"
	"github.com/vietanh2810/community-events/internal/api/middleware"
	"github.com/vietanh2810/community-events/internal/config"
	"github.com/vietanh2810/community-events/internal/metrics"
	"github.com/vietanh2810/community-events/internal/pkg/ticket"
	"github.com/vietanh2810/community-events/internal/repository"
	"github.com/vietanh2810/community-events/internal/repository/dao"
	"github.com/vietanh2810/community-events/internal/service"
)

type Server struct {
	Config   *config.AppConfig
	Router   *gin.Engine
	Registry *prometheus.Registry
}

type handlers struct {
	event        *v1.EventHandler
	registration *v1.RegistrationHandler
	attendance   *v1.AttendanceHandler
}

func NewServer(conf *config.AppConfig, db *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		Config:   conf,
		Router:   engine,
		Registry: registry,
	}

	s.MountMiddlewares()

	h, err := s.initHandlers(db, metrics.New(registry))
	if err != nil {
		return nil, err
	}
	s.MountHandlers(h)

	return s, nil
}

func (s *Server) initHandlers(db *gorm.DB, m *metrics.Metrics) (handlers, error) {
	keys, err := s.Config.Ticket.DecodedKeys()
	if err != nil {
		return handlers{}, fmt.Errorf("s.Config.Ticket.DecodedKeys -> %w", err)
	}
	keyring, err := ticket.NewKeyring(keys, s.Config.Ticket.ActiveKeyID)
	if err != nil {
		return handlers{}, fmt.Errorf("ticket.NewKeyring -> %w", err)
	}
	issuer := ticket.NewIssuer(keyring)

	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	regRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	memberRepo := repository.NewMemberRepository(dao.NewMemberDAO(db))

	reconciler := service.NewReconciler(regRepo, eventRepo, m)
	eventSvc := service.NewEventService(eventRepo, memberRepo, reconciler, m, s.defaultTimeZone)
	regSvc := service.NewRegistrationService(eventRepo, regRepo, memberRepo, issuer, m)
	attendanceSvc := service.NewAttendanceService(eventRepo, regRepo, memberRepo, issuer, m)

	return handlers{
		event:        v1.NewEventHandler(eventSvc),
		registration: v1.NewRegistrationHandler(regSvc),
		attendance:   v1.NewAttendanceHandler(attendanceSvc),
	}, nil
}

// defaultTimeZone follows config reloads.
func (s *Server) defaultTimeZone() string {
	if conf := config.Current(); conf != nil {
		return conf.Events.DefaultTimeZone
	}
	return s.Config.Events.DefaultTimeZone
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	api := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		api.POST("/communities/:communityID/events", h.event.HandleCreateEvent)
		api.GET("/communities/:communityID/events", h.event.HandleListEvents)
		api.GET("/events/:eventID", h.event.HandleGetEvent)
		api.DELETE("/events/:eventID", h.event.HandleDeleteEvent)

		api.POST("/events/:eventID/register", h.registration.HandleRegister)
		api.GET("/events/:eventID/registration", h.registration.HandleGetMyRegistration)
		api.DELETE("/events/:eventID/registration", h.registration.HandleCancel)
		api.GET("/events/:eventID/registrations", h.registration.HandleListRegistrations)
		api.GET("/events/:eventID/registrations/count", h.registration.HandleActiveCount)

		api.POST("/attendance/scan", h.attendance.HandleScan)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	s.Router.NoRoute(func(ctx *gin.Context) {
		response.RenderErr(ctx, response.ErrNotFound("route", "path", ctx.Request.URL.Path))
	})

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Community Events API"
	docs.SwaggerInfo.Description = "Event catalog, registrations with signed tickets and attendance scanning for communities."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
