package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"travelplanner/config"
)

const (
	maxForecastDays = 4

	unavailable        = "N/A"
	weatherNoData      = "数据获取失败"
	weatherUnreachable = "服务暂不可用"
)

// WeatherClient queries the juhe.cn simpleWeather API.
type WeatherClient struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *logrus.Entry
	metrics    *Metrics
}

func NewWeatherClient(cfg config.ProviderConfig, log *logrus.Logger, metrics *Metrics) *WeatherClient {
	return &WeatherClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.URL,
		timeout: cfg.Timeout(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		log:     log.WithField("source", "weather"),
		metrics: metrics,
	}
}

type juheWeatherResponse struct {
	ErrorCode int    `json:"error_code"`
	Reason    string `json:"reason"`
	Result    *struct {
		City   string `json:"city"`
		Future []struct {
			Date        string `json:"date"`
			Temperature string `json:"temperature"`
			Weather     string `json:"weather"`
			Direct      string `json:"direct"`
		} `json:"future"`
	} `json:"result"`
}

// GetWeather returns the forecast for city, or a one-element sentinel list.
func (c *WeatherClient) GetWeather(ctx context.Context, city string) []WeatherDay {
	return c.Lookup(ctx, city).Days
}

// Lookup fetches up to four forecast days. It never fails: every error is
// folded into a degraded result carrying a single sentinel day.
func (c *WeatherClient) Lookup(ctx context.Context, city string) WeatherResult {
	resp, err := c.fetch(ctx, city)
	if err != nil {
		c.log.WithField("city", city).Warnf("weather request failed: %v", err)
		c.metrics.upstreamOutcome("weather", outcomeDegraded)
		return WeatherResult{
			Days:     []WeatherDay{weatherSentinel(weatherUnreachable)},
			Degraded: true,
			Reason:   err.Error(),
		}
	}

	days := parseForecast(resp)
	if len(days) == 0 {
		reason := fmt.Sprintf("no forecast (error_code=%d %s)", resp.ErrorCode, resp.Reason)
		c.log.WithField("city", city).Warn(reason)
		c.metrics.upstreamOutcome("weather", outcomeDegraded)
		return WeatherResult{
			Days:     []WeatherDay{weatherSentinel(weatherNoData)},
			Degraded: true,
			Reason:   reason,
		}
	}

	c.metrics.upstreamOutcome("weather", outcomeOK)
	return WeatherResult{Days: days}
}

func (c *WeatherClient) fetch(ctx context.Context, city string) (*juheWeatherResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("city", city)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("weather API error (%d): %s", resp.StatusCode, string(body))
	}

	var out juheWeatherResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse weather response: %w", err)
	}
	return &out, nil
}

func parseForecast(resp *juheWeatherResponse) []WeatherDay {
	if resp.ErrorCode != 0 || resp.Result == nil {
		return nil
	}

	future := resp.Result.Future
	if len(future) > maxForecastDays {
		future = future[:maxForecastDays]
	}

	days := make([]WeatherDay, 0, len(future))
	for _, f := range future {
		night, day := splitTemperature(f.Temperature)
		dayWeather, nightWeather := splitCondition(f.Weather)

		wind := f.Direct
		if wind == "" {
			wind = unavailable
		}

		days = append(days, WeatherDay{
			Date:         f.Date,
			DayTemp:      day,
			NightTemp:    night,
			DayWeather:   dayWeather,
			NightWeather: nightWeather,
			Wind:         wind,
		})
	}
	return days
}

// splitTemperature turns "1/7℃" into ("1°C", "7°C"): low is night, high is day.
func splitTemperature(raw string) (night, day string) {
	raw = strings.ReplaceAll(raw, "℃", "")
	if !strings.Contains(raw, "/") {
		return unavailable, unavailable
	}
	parts := strings.Split(raw, "/")
	return parts[0] + "°C", parts[1] + "°C"
}

// splitCondition turns "小雨转多云" into ("小雨", "多云"). Without the 转
// separator both halves are the original text.
func splitCondition(raw string) (day, night string) {
	if raw == "" {
		raw = "未知"
	}
	if !strings.Contains(raw, "转") {
		return raw, raw
	}
	parts := strings.Split(raw, "转")
	return parts[0], parts[1]
}

func weatherSentinel(condition string) WeatherDay {
	return WeatherDay{
		Date:         unavailable,
		DayTemp:      unavailable,
		NightTemp:    unavailable,
		DayWeather:   condition,
		NightWeather: condition,
		Wind:         unavailable,
	}
}
