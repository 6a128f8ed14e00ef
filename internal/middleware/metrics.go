package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hqhq-web/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records duration and status of every routed request. Requests that
// match no route share one label so probing clients cannot blow up cardinality.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		if _, ok := skipped[path]; ok {
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
