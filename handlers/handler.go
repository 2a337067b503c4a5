package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"travelplanner/services"
)

const (
	serviceName = "travel-assistant-api"
	version     = "1.0.0"
)

// Planner is the pipeline the handlers drive. *services.Planner implements it.
type Planner interface {
	Generate(ctx context.Context, req services.TravelRequest) (*services.TravelPlanResponse, error)
	Weather(ctx context.Context, city string) []services.WeatherDay
	Attractions(ctx context.Context, city string) []services.Attraction
	Flights(departureCity, destinationCity, date string) []services.FlightOffer
}

// Renderer turns a plan into a downloadable document.
type Renderer interface {
	Render(plan *services.TravelPlanResponse) ([]byte, error)
}

type Handler struct {
	planner Planner
	pdf     Renderer
	log     *logrus.Logger
}

func New(planner Planner, pdf Renderer, log *logrus.Logger) *Handler {
	return &Handler{planner: planner, pdf: pdf, log: log}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/info", h.Info)
		api.POST("/generate_plan", h.GeneratePlan)
		api.POST("/generate_plan/pdf", h.GeneratePlanPDF)
		api.GET("/test/weather/:city", h.TestWeather)
		api.GET("/test/attractions/:city", h.TestAttractions)
		api.GET("/test/flights", h.TestFlights)
	}
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func abortWithError(c *gin.Context, code int, message, detail string) {
	c.AbortWithStatusJSON(code, errorResponse{Status: "error", Message: message, Detail: detail})
}

// planError maps planner errors onto the HTTP error envelope.
func planError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		abortWithError(c, http.StatusBadRequest, verr.Message, verr.Message)
		return
	}
	abortWithError(c, http.StatusInternalServerError, "服务器内部错误", err.Error())
}
