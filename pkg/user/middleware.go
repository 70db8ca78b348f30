package user

import (
	"net/http"
	"strings"

	"github.com/klokku/worktime/internal/rest"
	log "github.com/sirupsen/logrus"
)

const (
	EmailHeader = "X-User-Email"
	NameHeader  = "X-User-Name"
)

// Middleware puts the caller identity from the X-User-Email and X-User-Name
// headers into the request context. Requests without an email get 401.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.ToLower(strings.TrimSpace(r.Header.Get(EmailHeader)))
		if email == "" {
			log.Debugf("rejecting %s %s without %s", r.Method, r.URL.Path, EmailHeader)
			rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		u := User{Email: email, Name: r.Header.Get(NameHeader)}
		log.Tracef("request from %s", u.Email)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}
