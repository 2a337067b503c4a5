package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	minDays = 1
	maxDays = 30
)

// ValidationError reports a request the caller must fix. No upstream call
// has been made when it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InternalError reports an unexpected failure inside the pipeline.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return "生成行程失败: " + e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }

// Lookup collaborators. The concrete clients in this package satisfy them;
// tests substitute fakes.
type (
	WeatherSource interface {
		Lookup(ctx context.Context, city string) WeatherResult
	}
	AttractionSource interface {
		Lookup(ctx context.Context, city string) AttractionResult
	}
	FlightSource interface {
		GetFlights(departureCity, destinationCity, date string) []FlightOffer
	}
	ItineraryWriter interface {
		Compose(ctx context.Context, in ItineraryInput) string
	}
)

// Planner validates travel requests and runs the lookup and composition
// pipeline. Upstream calls are made one after another.
type Planner struct {
	weather     WeatherSource
	attractions AttractionSource
	flights     FlightSource
	writer      ItineraryWriter
	log         *logrus.Logger
	metrics     *Metrics
}

func NewPlanner(weather WeatherSource, attractions AttractionSource, flights FlightSource,
	writer ItineraryWriter, log *logrus.Logger, metrics *Metrics) *Planner {
	return &Planner{
		weather:     weather,
		attractions: attractions,
		flights:     flights,
		writer:      writer,
		log:         log,
		metrics:     metrics,
	}
}

// Validate checks a request before any upstream call is attempted.
func Validate(req TravelRequest) error {
	if strings.TrimSpace(req.Destination) == "" {
		return &ValidationError{Message: "目的地不能为空"}
	}
	if req.Days < minDays || req.Days > maxDays {
		return &ValidationError{Message: fmt.Sprintf("旅行天数必须在%d-%d天之间", minDays, maxDays)}
	}
	return nil
}

// Generate builds a plan for req. It returns *ValidationError for bad input
// and *InternalError for anything unexpected; upstream outages never fail a
// request.
func (p *Planner) Generate(ctx context.Context, req TravelRequest) (resp *TravelPlanResponse, err error) {
	started := time.Now()
	log := p.entry(ctx).WithField("destination", req.Destination)

	if err := Validate(req); err != nil {
		log.Infof("rejected plan request: %v", err)
		p.metrics.planResult("invalid", time.Since(started))
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("plan generation panicked: %v", r)
			p.metrics.planResult("error", time.Since(started))
			resp, err = nil, &InternalError{Err: fmt.Errorf("%v", r)}
		}
	}()

	log.Infof("generating %d-day plan", req.Days)

	log.Debug("fetching weather")
	weather := p.weather.Lookup(ctx, req.Destination)

	log.Debug("fetching attractions")
	attractions := p.attractions.Lookup(ctx, req.Destination)

	var flights []FlightOffer
	if req.wantsFlights() {
		log.Debugf("fetching flights %s -> %s", req.DepartureCity, req.Destination)
		flights = p.flights.GetFlights(req.DepartureCity, req.Destination, req.StartDate)
	}

	log.Debug("composing itinerary")
	itinerary := p.writer.Compose(ctx, ItineraryInput{
		Destination: req.Destination,
		Days:        req.Days,
		Budget:      req.Budget,
		Weather:     weather.Days,
		Attractions: attractions.Attractions,
		Interests:   req.Interests,
		StartDate:   req.StartDate,
	})

	resp = &TravelPlanResponse{
		PlanID:      uuid.New().String(),
		Destination: req.Destination,
		Itinerary:   itinerary,
		WeatherInfo: weather.Days,
		Attractions: attractions.Attractions,
		FlightInfo:  flights,
		Status:      "success",
		Message:     "行程规划生成成功",
	}

	log.WithFields(logrus.Fields{
		"plan_id":             resp.PlanID,
		"weather_degraded":    weather.Degraded,
		"attraction_degraded": attractions.Degraded,
		"flights":             len(flights),
	}).Infof("plan generated in %s", time.Since(started).Round(time.Millisecond))
	p.metrics.planResult("success", time.Since(started))

	return resp, nil
}

// Weather is the standalone weather lookup.
func (p *Planner) Weather(ctx context.Context, city string) []WeatherDay {
	return p.weather.Lookup(ctx, city).Days
}

// Attractions is the standalone attraction lookup.
func (p *Planner) Attractions(ctx context.Context, city string) []Attraction {
	return p.attractions.Lookup(ctx, city).Attractions
}

// Flights is the standalone flight lookup.
func (p *Planner) Flights(departureCity, destinationCity, date string) []FlightOffer {
	return p.flights.GetFlights(departureCity, destinationCity, date)
}

type ctxKey struct{}

// WithLogger attaches a request-scoped log entry to ctx.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

func (p *Planner) entry(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(p.log)
}
