package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MohaDjm/the-tip-top-sub000/pkg/redis"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/response"
)

// RateLimit caps requests per client IP and route over a fixed window,
// counted in Redis. With rdb nil, or on a Redis error, the request passes
// through.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "Trop de requêtes, veuillez réessayer plus tard")
			c.Abort()
			return
		}

		c.Next()
	}
}
