package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/logger"
	"github.com/RedHatInsights/carbon_ledger/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Rh-Insights-Request-Id"

// RequestLogger tags the request with an id, taken from the incoming
// header when present, and stores a logger carrying it in the context
func RequestLogger(base *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = newRequestID()
			}
			ctx := logger.CtxWithRequestID(r.Context(), base, requestID)
			w.Header().Set(requestIDHeader, requestID)
			logger.GetLogger(ctx).WithFields(logrus.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"remote_ip": r.RemoteAddr,
			}).Info("Request received")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRequestID() string {
	u, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	return u.String()
}

// PanicHandler answers INTERNAL_SERVER_ERROR when a handler panics
func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger(r.Context()).Errorf("Panic occurred: %v", err)
				sendError(w, r, apperrors.Internal("unable to process request"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Metrics records request counts and latency by route pattern
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
