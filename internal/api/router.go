package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"chargetracker-backend/internal/charging"
	"chargetracker-backend/internal/metrics"
	"chargetracker-backend/internal/mw"
	"chargetracker-backend/internal/store"
)

// Options tunes the router's middleware.
type Options struct {
	JWTSecret       string
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *charging.Service, s store.Store, webpushOptions *webpush.Options, m *metrics.Metrics, logger *zap.Logger, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(logger))

	handler := NewHandler(svc, s, webpushOptions, logger)

	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 5
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Second
	}

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
	responses := mw.NewResponseCache(opts.CacheTTL)
	caching := responses.Cache()
	auth := mw.RequireUser(opts.JWTSecret)

	r.GET("/healthz", handler.Healthz)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	api.Use(rateLimiter, responses.Invalidate())
	{
		api.GET("/stations", caching, handler.GetStations)
		api.GET("/stations/:station_id", caching, handler.GetStation)
		api.GET("/stations/:station_id/reviews", caching, handler.GetReviews)
		api.POST("/stations/:station_id/reviews", auth, handler.PostReview)

		api.POST("/stations/:station_id/docks/:dock_id/check-in", auth, handler.CheckIn)
		api.POST("/stations/:station_id/docks/:dock_id/check-out", auth, handler.CheckOut)
		api.GET("/me/check-ins", auth, handler.GetMyCheckIns)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
