package services

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// RandSource is the randomness the flight generator draws from.
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

const (
	basePrice     = 800
	minPrice      = 400
	minutesPerDay = 24 * 60

	transferDirect     = "直飞"
	transferConnecting = "经停"
)

type airline struct {
	code     string
	name     string
	priceMod float64
}

// Full-service carriers sit at 1.0, regional and budget carriers below.
var airlines = []airline{
	{"CA", "中国国际航空", 1.00},
	{"MU", "东方航空", 0.98},
	{"CZ", "南方航空", 0.97},
	{"HU", "海南航空", 0.95},
	{"ZH", "深圳航空", 0.92},
	{"3U", "四川航空", 0.92},
	{"FM", "上海航空", 0.90},
	{"9C", "春秋航空", 0.70},
}

type timeBand struct {
	from, to int // inclusive hours
	priceMod float64
}

// Red-eye and early flights are discounted, business hours carry a premium.
var timeBands = []timeBand{
	{6, 8, 0.85},
	{9, 11, 1.10},
	{12, 16, 1.00},
	{17, 20, 1.05},
	{21, 23, 0.75},
}

var seatClasses = []struct {
	name   string
	weight int
}{
	{"经济舱", 70},
	{"超级经济舱", 15},
	{"商务舱", 10},
	{"头等舱", 5},
}

var aircraftTypes = []string{"空客A320", "空客A321", "空客A330", "波音737-800", "波音787", "国产C919"}

var discountLabels = []string{"早鸟特惠", "会员专享", "限时特价", "学生优惠"}

// routeMinutes holds scheduled block times; lookups try both directions.
var routeMinutes = map[string]int{
	"北京-上海": 135, "北京-广州": 195, "北京-深圳": 200, "北京-成都": 170,
	"北京-西安": 120, "北京-杭州": 130, "北京-昆明": 225, "北京-三亚": 240,
	"上海-广州": 150, "上海-深圳": 150, "上海-成都": 200, "上海-西安": 150,
	"上海-昆明": 210, "上海-三亚": 185, "广州-成都": 140, "广州-杭州": 120,
	"深圳-成都": 150, "深圳-杭州": 125, "成都-西安": 90, "成都-昆明": 90,
}

// FlightGenerator synthesizes flight offers. Real schedule data is not
// available to this service, so offers are randomized but internally
// consistent. Safe for concurrent use.
type FlightGenerator struct {
	mu  sync.Mutex
	rnd RandSource
	log *logrus.Entry
}

// NewFlightGenerator uses rnd for every random draw. A nil rnd selects a
// randomly seeded source.
func NewFlightGenerator(rnd RandSource, log *logrus.Logger) *FlightGenerator {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &FlightGenerator{rnd: rnd, log: log.WithField("source", "flights")}
}

type pricedOffer struct {
	offer FlightOffer
	price int
}

// GetFlights returns 4–8 offers from departureCity to destinationCity sorted
// by ascending price. It never fails.
func (g *FlightGenerator) GetFlights(departureCity, destinationCity, date string) []FlightOffer {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := g.baseDuration(departureCity, destinationCity)
	count := g.between(4, 8)

	offers := make([]pricedOffer, 0, count)
	for i := 0; i < count; i++ {
		offers = append(offers, g.offer(base))
	}

	sort.SliceStable(offers, func(i, j int) bool { return offers[i].price < offers[j].price })

	out := make([]FlightOffer, len(offers))
	for i, o := range offers {
		out[i] = o.offer
	}

	g.log.WithFields(logrus.Fields{
		"from": departureCity,
		"to":   destinationCity,
		"date": date,
	}).Debugf("generated %d flight offers", len(out))
	return out
}

func (g *FlightGenerator) baseDuration(from, to string) int {
	if m, ok := routeMinutes[from+"-"+to]; ok {
		return m
	}
	if m, ok := routeMinutes[to+"-"+from]; ok {
		return m
	}
	return g.between(90, 180)
}

func (g *FlightGenerator) offer(base int) pricedOffer {
	al := airlines[g.rnd.IntN(len(airlines))]
	band := timeBands[g.rnd.IntN(len(timeBands))]

	depHour := g.between(band.from, band.to)
	depMinute := g.rnd.IntN(6) * 10
	dep := depHour*60 + depMinute

	elapsed := base + g.between(-10, 30)
	arr := (dep + elapsed) % minutesPerDay

	// Up to 15% under or 25% over the adjusted fare.
	jitter := 0.85 + g.rnd.Float64()*0.40
	price := int(float64(basePrice) * band.priceMod * al.priceMod * jitter)
	if price < minPrice {
		price = minPrice
	}

	transfer := transferDirect
	if g.rnd.Float64() < 0.2 {
		transfer = transferConnecting
	}

	discount := ""
	if g.rnd.Float64() < 0.3 {
		discount = discountLabels[g.rnd.IntN(len(discountLabels))]
	}

	return pricedOffer{
		offer: FlightOffer{
			FlightNumber:    fmt.Sprintf("%s%d", al.code, g.between(1000, 9999)),
			DepartureTime:   formatClock(dep),
			ArrivalTime:     formatClock(arr),
			Price:           fmt.Sprintf("¥%d", price),
			Airline:         al.name,
			AircraftType:    aircraftTypes[g.rnd.IntN(len(aircraftTypes))],
			Duration:        formatElapsed(elapsed),
			PunctualityRate: fmt.Sprintf("%d%%", g.between(75, 98)),
			SeatClass:       g.seatClass(),
			Transfer:        transfer,
			Discount:        discount,
		},
		price: price,
	}
}

func (g *FlightGenerator) seatClass() string {
	total := 0
	for _, s := range seatClasses {
		total += s.weight
	}
	pick := g.rnd.IntN(total)
	for _, s := range seatClasses {
		if pick < s.weight {
			return s.name
		}
		pick -= s.weight
	}
	return seatClasses[0].name
}

// between returns a uniform integer in [lo, hi].
func (g *FlightGenerator) between(lo, hi int) int {
	return lo + g.rnd.IntN(hi-lo+1)
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// formatElapsed renders 125 as "2h05m".
func formatElapsed(minutes int) string {
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
