package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// cacheWriter picks the Cache-Control header when the status is known, so
// error responses are never cached.
type cacheWriter struct {
	gin.ResponseWriter
	value   string
	decided bool
}

func (w *cacheWriter) decide(status int) {
	if w.decided {
		return
	}
	w.decided = true
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		w.Header().Set("Cache-Control", w.value)
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
}

func (w *cacheWriter) WriteHeader(code int) {
	w.decide(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheWriter) WriteHeaderNow() {
	w.decide(w.ResponseWriter.Status())
	w.ResponseWriter.WriteHeaderNow()
}

func (w *cacheWriter) Write(data []byte) (int, error) {
	w.decide(w.ResponseWriter.Status())
	return w.ResponseWriter.Write(data)
}

func (w *cacheWriter) WriteString(s string) (int, error) {
	w.decide(w.ResponseWriter.Status())
	return w.ResponseWriter.WriteString(s)
}

// CacheControl marks successful responses as privately cacheable for maxAge.
// Session artifacts never change once written, so they are also immutable.
func CacheControl(maxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("private, max-age=%d, immutable", int(maxAge.Seconds()))
	return func(c *gin.Context) {
		c.Writer = &cacheWriter{ResponseWriter: c.Writer, value: value}
		c.Next()
	}
}
