package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SecurityConfig struct {
	RateLimitPerSecond float64
	RateLimitBurst     int
	AllowedOrigins     []string
}

// Setup installs the request ID, security header, CORS, access log and
// rate limit middleware. A zero RateLimitPerSecond disables limiting. The
// limiter is returned so the caller can run its cleanup loop.
func Setup(router *gin.Engine, cfg SecurityConfig, logger *logrus.Logger) *RateLimiter {
	router.Use(requestid.New())
	router.Use(RequestLogger(logger))

	router.Use(secure.New(secure.Config{
		SSLRedirect:           false,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Session-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	router.Use(cors.New(corsConfig))

	if cfg.RateLimitPerSecond <= 0 {
		return nil
	}
	limiter := NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	router.Use(limiter.RateLimit())
	return limiter
}

// RequestLogger writes one structured access log line per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestid.Get(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
