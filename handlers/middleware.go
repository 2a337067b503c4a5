package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"travelplanner/services"
)

const (
	requestIDHeader = "X-Request-ID"
	logKey          = "log"
)

// RequestLogger tags each request with an ID, exposes a request-scoped log
// entry to handlers and the planner, and logs a summary line when done.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(requestIDHeader, id)

		entry := log.WithField("request_id", id)
		c.Set(logKey, entry)
		c.Request = c.Request.WithContext(services.WithLogger(c.Request.Context(), entry))

		start := time.Now()
		c.Next()

		entry.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Round(time.Millisecond).String(),
		}).Infof("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}

// Recovery renders panics that escape a handler as the 500 error envelope.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestLog(c, log).Errorf("panic serving %s: %v", c.Request.URL.Path, recovered)
		abortWithError(c, http.StatusInternalServerError, "服务器内部错误", fmt.Sprint(recovered))
	})
}

func requestLog(c *gin.Context, fallback *logrus.Logger) *logrus.Entry {
	if v, ok := c.Get(logKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(fallback)
}
