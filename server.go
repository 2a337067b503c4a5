package main

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"travelplanner/config"
	"travelplanner/handlers"
	"travelplanner/services"
)

// app bundles the components built from one Config.
type app struct {
	cfg      config.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	planner  *services.Planner
	pdf      *services.PDFRenderer
}

func newApp(cfg config.Config, log *logrus.Logger) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	planner := services.NewPlanner(
		services.NewWeatherClient(cfg.Weather, log, metrics),
		services.NewAttractionClient(cfg.Attractions, log, metrics),
		services.NewFlightGenerator(nil, log),
		services.NewItineraryComposer(cfg.LLM, log, metrics),
		log,
		metrics,
	)

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		planner:  planner,
		pdf:      services.NewPDFRenderer(cfg.PDF.FontPath, log),
	}
}

func (a *app) router() *gin.Engine {
	if strings.EqualFold(a.cfg.Server.GinMode, gin.ReleaseMode) {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(handlers.RequestLogger(a.log), handlers.Recovery(a.log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.New(a.planner, a.pdf, a.log).Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return r
}
