package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/logger"
)

// requestLogger logs one line per request through l.
func requestLogger(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			l.HTTPRequest(r.Method, r.URL.Path, middleware.GetReqID(r.Context()), r.RemoteAddr,
				status, time.Since(start).Milliseconds())
		})
	}
}
