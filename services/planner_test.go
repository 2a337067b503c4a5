package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelplanner/config"
	"travelplanner/logger"
)

type fakeWeather struct {
	calls  int
	result WeatherResult
}

func (f *fakeWeather) Lookup(ctx context.Context, city string) WeatherResult {
	f.calls++
	return f.result
}

type fakeAttractions struct {
	calls  int
	result AttractionResult
}

func (f *fakeAttractions) Lookup(ctx context.Context, city string) AttractionResult {
	f.calls++
	return f.result
}

type fakeFlights struct {
	calls int
	args  [3]string
}

func (f *fakeFlights) GetFlights(from, to, date string) []FlightOffer {
	f.calls++
	f.args = [3]string{from, to, date}
	return []FlightOffer{{FlightNumber: "CA1234", Price: "¥800"}}
}

type fakeWriter struct {
	calls int
	input ItineraryInput
	text  string
	panic bool
}

func (f *fakeWriter) Compose(ctx context.Context, in ItineraryInput) string {
	f.calls++
	f.input = in
	if f.panic {
		panic("template exploded")
	}
	return f.text
}

type plannerFakes struct {
	weather     *fakeWeather
	attractions *fakeAttractions
	flights     *fakeFlights
	writer      *fakeWriter
}

func (f plannerFakes) upstreamCalls() int {
	return f.weather.calls + f.attractions.calls + f.flights.calls + f.writer.calls
}

func newFakePlanner() (*Planner, plannerFakes) {
	fakes := plannerFakes{
		weather:     &fakeWeather{result: WeatherResult{Days: sampleWeather()}},
		attractions: &fakeAttractions{result: AttractionResult{Attractions: sampleAttractions(3)}},
		flights:     &fakeFlights{},
		writer:      &fakeWriter{text: "# plan"},
	}
	p := NewPlanner(fakes.weather, fakes.attractions, fakes.flights, fakes.writer, logger.Discard(), nil)
	return p, fakes
}

func TestPlanner_Generate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  TravelRequest
		msg  string
	}{
		{"empty destination", TravelRequest{Destination: "", Days: 3}, "目的地不能为空"},
		{"whitespace destination", TravelRequest{Destination: " \t\n", Days: 3}, "目的地不能为空"},
		{"zero days", TravelRequest{Destination: "北京", Days: 0}, "旅行天数必须在1-30天之间"},
		{"negative days", TravelRequest{Destination: "北京", Days: -2}, "旅行天数必须在1-30天之间"},
		{"too many days", TravelRequest{Destination: "北京", Days: 31}, "旅行天数必须在1-30天之间"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, fakes := newFakePlanner()

			resp, err := p.Generate(context.Background(), tt.req)

			assert.Nil(t, resp)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Message)
			assert.Zero(t, fakes.upstreamCalls(), "no upstream calls on invalid input")
		})
	}
}

func TestPlanner_Generate_DayBounds(t *testing.T) {
	for _, days := range []int{1, 30} {
		p, _ := newFakePlanner()
		resp, err := p.Generate(context.Background(), TravelRequest{Destination: "北京", Days: days})
		require.NoError(t, err)
		assert.Equal(t, "success", resp.Status)
	}
}

func TestPlanner_Generate_WithoutFlights(t *testing.T) {
	p, fakes := newFakePlanner()

	resp, err := p.Generate(context.Background(), TravelRequest{
		Destination: "北京",
		Days:        3,
		Budget:      "中等",
		Interests:   []string{"美食"},
	})
	require.NoError(t, err)

	assert.Equal(t, "北京", resp.Destination)
	assert.Equal(t, "# plan", resp.Itinerary)
	assert.Equal(t, sampleWeather(), resp.WeatherInfo)
	assert.Equal(t, sampleAttractions(3), resp.Attractions)
	assert.Nil(t, resp.FlightInfo)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "行程规划生成成功", resp.Message)
	assert.NotEmpty(t, resp.PlanID)

	assert.Equal(t, 1, fakes.weather.calls)
	assert.Equal(t, 1, fakes.attractions.calls)
	assert.Zero(t, fakes.flights.calls)
	assert.Equal(t, ItineraryInput{
		Destination: "北京",
		Days:        3,
		Budget:      "中等",
		Weather:     sampleWeather(),
		Attractions: sampleAttractions(3),
		Interests:   []string{"美食"},
	}, fakes.writer.input)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"flight_info":null`)
}

func TestPlanner_Generate_FlightsNeedCityAndDate(t *testing.T) {
	tests := []struct {
		name        string
		from, date  string
		wantFlights bool
	}{
		{"both", "上海", "2025-11-01", true},
		{"no date", "上海", "", false},
		{"no city", "", "2025-11-01", false},
		{"blank city", "  ", "2025-11-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, fakes := newFakePlanner()

			resp, err := p.Generate(context.Background(), TravelRequest{
				Destination:   "北京",
				Days:          2,
				DepartureCity: tt.from,
				StartDate:     tt.date,
			})
			require.NoError(t, err)

			if tt.wantFlights {
				assert.Equal(t, 1, fakes.flights.calls)
				assert.Equal(t, [3]string{"上海", "北京", "2025-11-01"}, fakes.flights.args)
				assert.Len(t, resp.FlightInfo, 1)
			} else {
				assert.Zero(t, fakes.flights.calls)
				assert.Nil(t, resp.FlightInfo)
			}
		})
	}
}

func TestPlanner_Generate_PanicBecomesInternalError(t *testing.T) {
	p, fakes := newFakePlanner()
	fakes.writer.panic = true

	resp, err := p.Generate(context.Background(), TravelRequest{Destination: "北京", Days: 3})

	assert.Nil(t, resp)
	var ierr *InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "生成行程失败: template exploded", err.Error())

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestPlanner_StandaloneLookups(t *testing.T) {
	p, fakes := newFakePlanner()

	assert.Equal(t, sampleWeather(), p.Weather(context.Background(), "北京"))
	assert.Equal(t, sampleAttractions(3), p.Attractions(context.Background(), "北京"))
	assert.Len(t, p.Flights("上海", "北京", "2025-11-01"), 1)
	assert.Equal(t, 1, fakes.weather.calls)
	assert.Equal(t, 1, fakes.attractions.calls)
	assert.Equal(t, 1, fakes.flights.calls)
}

// newDegradedPlanner wires the real clients against upstreams that all fail.
func newDegradedPlanner(t *testing.T, metrics *Metrics) *Planner {
	t.Helper()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)

	log := logger.Discard()
	return NewPlanner(
		NewWeatherClient(config.ProviderConfig{URL: down.URL, TimeoutSeconds: 2}, log, metrics),
		NewAttractionClient(config.AttractionConfig{
			ProviderConfig: config.ProviderConfig{URL: down.URL, TimeoutSeconds: 2},
			MaxResults:     6,
		}, log, metrics),
		NewFlightGenerator(rand.New(rand.NewPCG(7, 11)), log),
		NewItineraryComposer(config.LLMConfig{
			APIKey:         "sk-test",
			BaseURL:        down.URL,
			Model:          "deepseek-chat",
			MaxTokens:      4000,
			TimeoutSeconds: 2,
		}, log, metrics),
		log,
		metrics,
	)
}

func TestPlanner_EndToEnd_AllUpstreamsDown(t *testing.T) {
	p := newDegradedPlanner(t, nil)

	resp, err := p.Generate(context.Background(), TravelRequest{
		Destination: "北京",
		Days:        3,
		Budget:      "中等",
	})
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.WeatherInfo, 1)
	assert.Equal(t, weatherUnreachable, resp.WeatherInfo[0].DayWeather)
	require.Len(t, resp.Attractions, 1)
	assert.Equal(t, attractionUnreachable, resp.Attractions[0].Name)
	assert.Nil(t, resp.FlightInfo)
	assert.Equal(t, FallbackItinerary("北京", 3, resp.WeatherInfo, resp.Attractions), resp.Itinerary)
}

func TestPlanner_EndToEnd_WithFlights(t *testing.T) {
	p := newDegradedPlanner(t, nil)

	resp, err := p.Generate(context.Background(), TravelRequest{
		Destination:   "北京",
		Days:          3,
		Budget:        "中等",
		DepartureCity: "上海",
		StartDate:     "2025-11-01",
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(resp.FlightInfo), 4)
	assert.LessOrEqual(t, len(resp.FlightInfo), 8)
	assert.NotEmpty(t, resp.Itinerary)
}

func TestPlanner_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p := newDegradedPlanner(t, metrics)

	_, err := p.Generate(context.Background(), TravelRequest{Destination: "北京", Days: 2})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), TravelRequest{Destination: "", Days: 2})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.upstream.WithLabelValues("weather", outcomeDegraded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.upstream.WithLabelValues("attractions", outcomeDegraded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.upstream.WithLabelValues("llm", outcomeFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.plans.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.plans.WithLabelValues("invalid")))
}
