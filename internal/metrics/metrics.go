// Package metrics exposes prometheus instrumentation for the pricing service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_verifications_total",
			Help: "Coupon verifications by outcome (success or failure reason)",
		},
		[]string{"outcome"},
	)
)

// OutcomeSuccess labels a successful verification.
const OutcomeSuccess = "success"

// RecordVerification counts one verification with the given outcome.
func RecordVerification(outcome string) {
	verifications.WithLabelValues(outcome).Inc()
}

// Middleware records request count and latency per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := float64(time.Since(start).Milliseconds())

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), path).Observe(duration)
		return err
	}
}
