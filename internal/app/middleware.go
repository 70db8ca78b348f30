package app

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/worktime/pkg/user"
	log "github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router) {
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req)
			log.Debugf("%s %s -> %d (%s)", req.Method, req.URL.Path, rec.status, time.Since(start))
		})
	})

	// Propagate X-User-Email header into context for downstream services
	r.Use(user.Middleware)
}
