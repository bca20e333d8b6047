package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-lab/backend/logging"
)

// saveEvery is the number of tracked requests between statistics flushes.
const saveEvery = 100

// Traffic tracks visitors and analysis requests
func Traffic(stats *logging.Statistics, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		stats.TrackVisitor(c.ClientIP())

		c.Next()

		// Only submissions are tracked, reads are not.
		if c.Request.Method != http.MethodPost || !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		loadTime := float64(time.Since(start).Milliseconds())
		stats.TrackRequest(path, loadTime, c.Writer.Status() >= http.StatusBadRequest)

		if stats.TotalRequestCount()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("failed to save traffic statistics", slog.String("error", err.Error()))
				}
			}()
		}
	}
}
