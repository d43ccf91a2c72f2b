package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// storedResponse is a replayable copy of a successful GET response.
type storedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

// teeWriter duplicates the response body into a buffer while writing it
// through to the client.
type teeWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache is a middleware serving repeated GETs from memory. Only metadata
// reads go through it; anything that mutates state or derives tokens must
// stay uncached because tokens rotate faster than any sensible TTL.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if v, found := store.Get(key); found {
			stored := v.(storedResponse)
			for k, vals := range stored.headers {
				c.Writer.Header()[k] = vals
			}
			c.Writer.WriteHeader(stored.status)
			c.Writer.Write(stored.body)
			c.Abort()
			return
		}

		tee := &teeWriter{buf: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = tee

		c.Next()

		// Only successful responses are worth replaying.
		if tee.Status() >= 200 && tee.Status() < 300 {
			store.Set(key, storedResponse{
				status:  tee.Status(),
				headers: tee.Header().Clone(),
				body:    tee.buf.Bytes(),
			}, ttl)
		}
	}
}
