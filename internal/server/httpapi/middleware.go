package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/server/auth"
	"github.com/gorilla/mux"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
	unmatchedRoute   = "unmatched"
)

var sensitiveHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"x-api-key":     {},
}

// withCORS adds the CORS headers to every response and answers preflight
// requests without reaching the router.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// observe logs each request and records it under its route template so
// metric cardinality does not depend on client input.
func (h *Handler) observe(router *mux.Router, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := time.Since(started)
		route := routeTemplate(router, r)
		h.metrics.ObserveHTTP(route, r.Method, rec.status, elapsed)
		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed.String(),
			"remote", r.RemoteAddr,
			"headers", safeHeaders(r.Header),
		)
	})
}

func routeTemplate(router *mux.Router, r *http.Request) string {
	var match mux.RouteMatch
	if !router.Match(r, &match) || match.Route == nil {
		return unmatchedRoute
	}
	tpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}

// safeHeaders flattens h to its first values with credentials redacted.
func safeHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) == 0 {
			continue
		}
		if _, ok := sensitiveHeaders[strings.ToLower(k)]; ok && v[0] != "" {
			out[k] = "<redacted>"
			continue
		}
		out[k] = v[0]
	}
	return out
}

// requireAuth rejects requests without a valid bearer token and passes the
// caller's Identity to next through the request context.
func (h *Handler) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.auth.Authenticate(r.Header)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func (h *Handler) rateLimit(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow(clientIP(r)) {
			h.metrics.RateLimited()
			h.logger.Warn(r.Context(), "rate limited", "path", r.URL.Path, "remote", clientIP(r))
			h.writeError(w, r, common.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
