package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status int
	body   []byte
}

type cacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// ResponseCache caches successful GET responses for the given TTL. Used on
// the notification history list, which the dashboard polls aggressively.
func ResponseCache(ttl time.Duration) gin.HandlerFunc {
	store := cache.New(ttl, 2*ttl)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if cached, found := store.Get(key); found {
			resp := cached.(cachedResponse)
			c.Data(resp.status, "application/json", resp.body)
			c.Abort()
			return
		}

		w := &cacheWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			store.Set(key, cachedResponse{
				status: c.Writer.Status(),
				body:   w.body.Bytes(),
			}, cache.DefaultExpiration)
		}
	}
}
