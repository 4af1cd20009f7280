package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache keeps successful GET responses in memory, keyed by request
// URI. Every flush starts a new generation; a response computed during an
// older generation is served but never stored.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewResponseCache returns a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (rc *ResponseCache) currentGeneration() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.generation
}

// storeIfCurrent saves resp unless the cache was flushed after gen began.
func (rc *ResponseCache) storeIfCurrent(gen uint64, key string, resp cachedResponse) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if gen != rc.generation {
		return false
	}
	rc.store.Set(key, resp, rc.ttl)
	return true
}

// Flush drops every entry and starts a new generation.
func (rc *ResponseCache) Flush() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.generation++
	rc.store.Flush()
}

// Cache serves and fills the response cache for GET requests.
func (rc *ResponseCache) Cache() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if v, found := rc.store.Get(key); found {
			cached := v.(cachedResponse)
			for k, vals := range cached.headers {
				c.Writer.Header()[k] = vals
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			_, _ = c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		gen := rc.currentGeneration()
		w := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if s := w.Status(); s >= 200 && s < 300 {
			rc.storeIfCurrent(gen, key, cachedResponse{
				status:  s,
				headers: w.Header().Clone(),
				body:    w.body.Bytes(),
			})
		}
	}
}

// Invalidate flushes the cache after any successful non-GET request. A read
// that raced the write is not stored, so the next read reflects the write.
func (rc *ResponseCache) Invalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if s := c.Writer.Status(); s >= 200 && s < 300 {
			rc.Flush()
		}
	}
}
