package handlers

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"pagesim/pkg/apperror"
	"pagesim/pkg/logger"
	"pagesim/pkg/metrics"
	"pagesim/pkg/ratelimit"
)

// RateLimit ограничивает частоту вызовов обработчика для одного клиента.
// Ключ = маршрут + адрес клиента. Ошибка лимитера пропускает запрос.
func RateLimit(l ratelimit.Limiter, m *metrics.Metrics, next http.HandlerFunc) http.HandlerFunc {
	if l == nil {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Pattern + "|" + clientKey(r)

		d, err := l.Allow(r.Context(), key)
		if err != nil {
			logger.FromContext(r.Context()).Warn("Rate limit check failed", "error", err, "key", key)
			next(w, r)
			return
		}

		if m != nil {
			m.RecordRateLimit(r.Pattern, d.Allowed)
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			retry := int(math.Ceil(d.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retry))

			logger.FromContext(r.Context()).Warn("Rate limit exceeded", "key", key, "limit", d.Limit)
			writeError(w, r, apperror.New(apperror.CodeRateLimited, "too many requests, retry later").
				WithDetails("retry_after_seconds", retry))
			return
		}

		next(w, r)
	}
}

// clientKey адрес клиента: первый X-Forwarded-For, X-Real-IP или RemoteAddr
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
