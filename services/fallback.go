package services

import (
	"fmt"
	"strings"
)

// FallbackItinerary renders a basic day-by-day plan from weather and
// attraction data alone. It is used whenever the generation endpoint cannot
// produce a plan and is deterministic for identical inputs.
func FallbackItinerary(destination string, days int, weather []WeatherDay, attractions []Attraction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s %d天旅行计划\n\n", destination, days)
	b.WriteString("*(由于智能规划服务暂时不可用,以下为基础行程建议)*\n\n")

	for day := 1; day <= days; day++ {
		fmt.Fprintf(&b, "## 第%d天\n\n", day)

		if day <= len(weather) {
			w := weather[day-1]
			fmt.Fprintf(&b, "**天气:** %s, %s\n\n", w.DayWeather, w.DayTemp)
		}

		// Day d gets attractions [(d-1)*2, d*2+1), so consecutive days share
		// one entry.
		if picks := window(attractions, (day-1)*2, day*2+1); len(picks) > 0 {
			b.WriteString("**推荐景点:**\n")
			for _, a := range picks {
				fmt.Fprintf(&b, "- %s\n", a.Name)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n**温馨提示:** 建议根据实际情况调整行程,注意天气变化。\n")
	return b.String()
}

// window returns list[from:to] clamped to the list bounds.
func window(list []Attraction, from, to int) []Attraction {
	if from >= len(list) {
		return nil
	}
	if to > len(list) {
		to = len(list)
	}
	return list[from:to]
}
