package services

// ─── Request / Response ──────────────────────────────────────────────────────

type TravelRequest struct {
	Destination   string   `json:"destination"`
	Days          int      `json:"days"`
	Budget        string   `json:"budget"`
	StartDate     string   `json:"start_date,omitempty"`
	DepartureCity string   `json:"departure_city,omitempty"`
	Interests     []string `json:"interests,omitempty"`
}

// wantsFlights reports whether both halves of a flight query were supplied.
func (r TravelRequest) wantsFlights() bool {
	return notBlank(r.DepartureCity) && notBlank(r.StartDate)
}

type TravelPlanResponse struct {
	PlanID      string        `json:"plan_id"`
	Destination string        `json:"destination"`
	Itinerary   string        `json:"itinerary"`
	WeatherInfo []WeatherDay  `json:"weather_info"`
	Attractions []Attraction  `json:"attractions"`
	FlightInfo  []FlightOffer `json:"flight_info"` // null when flights were not requested
	Status      string        `json:"status"`
	Message     string        `json:"message"`
}

// ─── Upstream records ────────────────────────────────────────────────────────

type WeatherDay struct {
	Date         string `json:"date"`
	DayTemp      string `json:"day_temp"`
	NightTemp    string `json:"night_temp"`
	DayWeather   string `json:"day_weather"`
	NightWeather string `json:"night_weather"`
	Wind         string `json:"wind"`
}

type Attraction struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description"`
}

type FlightOffer struct {
	FlightNumber    string `json:"flight_number"`
	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	Price           string `json:"price"`
	Airline         string `json:"airline"`
	AircraftType    string `json:"aircraft_type"`
	Duration        string `json:"duration"`
	PunctualityRate string `json:"punctuality_rate"`
	SeatClass       string `json:"seat_class"`
	Transfer        string `json:"transfer"`
	Discount        string `json:"discount,omitempty"`
}

// ─── Lookup results ──────────────────────────────────────────────────────────

// WeatherResult is the outcome of one weather lookup. Days is never empty:
// when Degraded is set it holds a single sentinel entry and Reason says why.
type WeatherResult struct {
	Days     []WeatherDay
	Degraded bool
	Reason   string
}

// AttractionResult mirrors WeatherResult for the points-of-interest lookup.
type AttractionResult struct {
	Attractions []Attraction
	Degraded    bool
	Reason      string
}
