package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *Handler) TestWeather(c *gin.Context) {
	city := c.Param("city")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"city":    city,
		"weather": h.planner.Weather(c.Request.Context(), city),
	})
}

func (h *Handler) TestAttractions(c *gin.Context) {
	city := c.Param("city")
	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"city":        city,
		"attractions": h.planner.Attractions(c.Request.Context(), city),
	})
}

// TestFlights is GET /api/test/flights?from=&to=&date=.
func (h *Handler) TestFlights(c *gin.Context) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	date := strings.TrimSpace(c.Query("date"))
	if from == "" || to == "" {
		abortWithError(c, http.StatusBadRequest, "请求参数错误", "from and to are required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"from":    from,
		"to":      to,
		"date":    date,
		"flights": h.planner.Flights(from, to, date),
	})
}
