package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelplanner/config"
	"travelplanner/logger"
)

func newTestWeatherClient(t *testing.T, handler http.HandlerFunc) *WeatherClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewWeatherClient(config.ProviderConfig{
		APIKey:         "test-key",
		URL:            server.URL,
		TimeoutSeconds: 5,
	}, logger.Discard(), nil)
}

func TestWeatherClient_Lookup_Success(t *testing.T) {
	client := newTestWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "北京", r.URL.Query().Get("city"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"error_code": 0,
			"reason": "查询成功!",
			"result": {
				"city": "北京",
				"future": [
					{"date": "2025-11-01", "temperature": "1/7℃", "weather": "小雨转多云", "direct": "北风"},
					{"date": "2025-11-02", "temperature": "3/12℃", "weather": "晴", "direct": "南风转北风"},
					{"date": "2025-11-03", "temperature": "4/13℃", "weather": "多云", "direct": "东风"},
					{"date": "2025-11-04", "temperature": "5/14℃", "weather": "阴转晴", "direct": "西风"},
					{"date": "2025-11-05", "temperature": "6/15℃", "weather": "晴", "direct": "北风"}
				]
			}
		}`))
	})

	res := client.Lookup(context.Background(), "北京")

	assert.False(t, res.Degraded)
	require.Len(t, res.Days, maxForecastDays)
	assert.Equal(t, WeatherDay{
		Date:         "2025-11-01",
		DayTemp:      "7°C",
		NightTemp:    "1°C",
		DayWeather:   "小雨",
		NightWeather: "多云",
		Wind:         "北风",
	}, res.Days[0])
	assert.Equal(t, "晴", res.Days[1].DayWeather)
	assert.Equal(t, "晴", res.Days[1].NightWeather)
	assert.Equal(t, "2025-11-04", res.Days[3].Date)
}

func TestWeatherClient_Lookup_Degraded(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		condition string
	}{
		{
			name: "non-success marker",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error_code": 207301, "reason": "错误的查询城市名", "result": null}`))
			},
			condition: weatherNoData,
		},
		{
			name: "empty forecast",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error_code": 0, "result": {"future": []}}`))
			},
			condition: weatherNoData,
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			condition: weatherUnreachable,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error_code": "zero"`))
			},
			condition: weatherUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestWeatherClient(t, tt.handler)

			res := client.Lookup(context.Background(), "北京")

			assert.True(t, res.Degraded)
			assert.NotEmpty(t, res.Reason)
			require.Len(t, res.Days, 1)
			assert.Equal(t, weatherSentinel(tt.condition), res.Days[0])
			assert.Equal(t, unavailable, res.Days[0].Date)
		})
	}
}

func TestWeatherClient_Lookup_Timeout(t *testing.T) {
	client := newTestWeatherClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.timeout = 50 * time.Millisecond

	start := time.Now()
	days := client.GetWeather(context.Background(), "北京")

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, days, 1)
	assert.Equal(t, weatherUnreachable, days[0].DayWeather)
}

func TestWeatherClient_Lookup_Unreachable(t *testing.T) {
	client := NewWeatherClient(config.ProviderConfig{
		URL:            "http://127.0.0.1:1/weather",
		TimeoutSeconds: 1,
	}, logger.Discard(), nil)

	res := client.Lookup(context.Background(), "北京")

	assert.True(t, res.Degraded)
	require.Len(t, res.Days, 1)
	assert.Equal(t, weatherUnreachable, res.Days[0].NightWeather)
}

func TestSplitCondition(t *testing.T) {
	tests := []struct {
		raw, day, night string
	}{
		{"小雨转多云", "小雨", "多云"},
		{"晴转阴", "晴", "阴"},
		{"晴", "晴", "晴"},
		{"雷阵雨伴有冰雹", "雷阵雨伴有冰雹", "雷阵雨伴有冰雹"},
		{"", "未知", "未知"},
	}
	for _, tt := range tests {
		day, night := splitCondition(tt.raw)
		assert.Equal(t, tt.day, day, tt.raw)
		assert.Equal(t, tt.night, night, tt.raw)
	}
}

func TestSplitTemperature(t *testing.T) {
	tests := []struct {
		raw, night, day string
	}{
		{"1/7℃", "1°C", "7°C"},
		{"-5/3℃", "-5°C", "3°C"},
		{"12/20", "12°C", "20°C"},
		{"7℃", unavailable, unavailable},
		{"", unavailable, unavailable},
	}
	for _, tt := range tests {
		night, day := splitTemperature(tt.raw)
		assert.Equal(t, tt.night, night, tt.raw)
		assert.Equal(t, tt.day, day, tt.raw)
	}
}
