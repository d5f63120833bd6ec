package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// luaSlidingWindow implements an atomic sliding-window counter:
// drop entries older than the window, count what remains, and admit the
// request only while the count is under the limit.
// KEYS[1] = limiter key; ARGV = now, window start, window seconds, member,
// limit. Returns the new count, or -1 when over the limit.
const luaSlidingWindow = `
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '0', ARGV[2])
local count = redis.call('ZCARD', key)
if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, ARGV[1], ARGV[4])
  redis.call('EXPIRE', key, ARGV[3])
  return count + 1
end
return -1
`

// CheckoutRateLimit limits order creation per user (falling back to client IP
// when the body carries no user) using a Redis sliding window. Redis failures
// fail open: a broken limiter must not take checkouts down with it.
func CheckoutRateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:checkout:ip:" + c.ClientIP()
		if userID := peekUserID(c); userID != "" {
			key = "ratelimit:checkout:user:" + userID
		}

		now := time.Now()
		windowSec := int64(window.Seconds())
		windowStart := now.Unix() - windowSec
		member := fmt.Sprintf("%d", now.UnixNano())

		res, err := rdb.Eval(c.Request.Context(), luaSlidingWindow, []string{key},
			now.Unix(), windowStart, windowSec, member, limit).Int()
		if err != nil {
			c.Next()
			return
		}

		if res < 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				errorJSON("rate_limited", "too many checkout attempts, try again later"))
			return
		}
		c.Next()
	}
}

// peekUserID reads userId from the JSON body without consuming it.
func peekUserID(c *gin.Context) string {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	return req.UserID
}
