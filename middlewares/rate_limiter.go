package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	redisclient "github.com/joy095/ledger/config/redis"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/utils"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Usage on money-moving routes:
//
//	api.POST("/withdrawals", middleware.NewRateLimiter("5-1m", "withdrawals"), ctrl.Create)
//	api.POST("/topups", middleware.CombinedRateLimiter("topups", "10-1m", "50-1h"), ctrl.Topup)

// rateKey limits authenticated callers per user and everyone else per client IP.
func rateKey(c *gin.Context) string {
	if userID, err := utils.GetUserIDFromContext(c); err == nil {
		return "user:" + userID.String()
	}
	return "ip:" + c.ClientIP()
}

// createStore returns a Redis-backed store, or an in-process one when Redis is not configured.
func createStore(routeID string, period time.Duration) (limiter.Store, error) {
	prefix := fmt.Sprintf("rate_limiter:%s", routeID)
	rdb, err := redisclient.GetRedisClient()
	if err != nil {
		logger.WarnLogger.Warnf("Rate limiter for %s falls back to memory: %v", routeID, err)
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: period}), nil
	}

	store, err := redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:          prefix,
		MaxRetry:        3,
		CleanUpInterval: period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store for route %s: %w", routeID, err)
	}
	return store, nil
}

// ParseCustomRate reads "<limit>-<period>" where period is a Go duration such as
// 30s, 2m or 1h: "10-2m" allows ten requests every two minutes.
func ParseCustomRate(rateStr string) (limiter.Rate, error) {
	limitStr, periodStr, ok := strings.Cut(rateStr, "-")
	if !ok {
		return limiter.Rate{}, fmt.Errorf("invalid rate format: %s", rateStr)
	}
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid limit: %s", limitStr)
	}
	period, err := time.ParseDuration(periodStr)
	if err != nil || period <= 0 {
		return limiter.Rate{}, fmt.Errorf("unsupported period: %s", periodStr)
	}
	return limiter.Rate{Period: period, Limit: limit}, nil
}

func newLimiter(rateStr, routeID string) (*limiter.Limiter, error) {
	rate, err := ParseCustomRate(rateStr)
	if err != nil {
		return nil, err
	}
	store, err := createStore(routeID, rate.Period)
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}

// NewRateLimiter limits one route to rateStr per caller. A bad rate disables limiting
// for the route instead of failing the request.
func NewRateLimiter(rateStr, routeID string) gin.HandlerFunc {
	l, err := newLimiter(rateStr, routeID)
	if err != nil {
		logger.ErrorLogger.Errorf("Rate limiting disabled for route %s: %v", routeID, err)
		return func(c *gin.Context) { c.Next() }
	}
	return ginmiddleware.NewMiddleware(l, ginmiddleware.WithKeyGetter(rateKey))
}

// CombinedRateLimiter applies several rates to the same route; the request is rejected
// as soon as one of them is exceeded.
func CombinedRateLimiter(routeID string, rateStrings ...string) gin.HandlerFunc {
	var limiters []*limiter.Limiter
	for i, rateStr := range rateStrings {
		l, err := newLimiter(rateStr, fmt.Sprintf("%s_%d", routeID, i))
		if err != nil {
			logger.ErrorLogger.Errorf("Rate %q ignored for route %s: %v", rateStr, routeID, err)
			continue
		}
		limiters = append(limiters, l)
	}

	return func(c *gin.Context) {
		key := rateKey(c)
		for _, l := range limiters {
			state, err := l.Get(c, key)
			if err != nil {
				logger.ErrorLogger.Errorf("Rate limiter lookup failed for %s: %v", routeID, err)
				continue
			}
			if state.Reached {
				c.Header("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Limit exceeded"})
				return
			}
		}
		c.Next()
	}
}
