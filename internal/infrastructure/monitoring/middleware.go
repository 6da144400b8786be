package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures a dispatch
type Timer struct {
	start   time.Time
	metrics *Metrics
	navType string
}

// NewTimer starts timing a dispatch of the given navigation type
func NewTimer(metrics *Metrics, navType string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		navType: navType,
	}
}

// Stop records the dispatch with its outcome
func (t *Timer) Stop(outcome string) {
	t.metrics.RecordDispatch(t.navType, outcome, time.Since(t.start))
}
