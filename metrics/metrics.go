// Package metrics declares the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Login attempts by status: success, failure, blocked
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vietlingo_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	// Registrations by status: success, partial, failure
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vietlingo_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status"},
	)

	PointsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vietlingo_points_awarded_total",
			Help: "Experience points added to learners",
		},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vietlingo_level_ups_total",
			Help: "Number of level changes caused by added points",
		},
	)

	// Lesson completions by kind: new, repeat
	LessonCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vietlingo_lesson_completions_total",
			Help: "Recorded lesson completions",
		},
		[]string{"kind"},
	)

	TopicUnlocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vietlingo_topic_unlocks_total",
			Help: "Topics unlocked by completing review lessons",
		},
	)

	// Version conflicts by record: experience, progress
	VersionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vietlingo_version_conflicts_total",
			Help: "Optimistic concurrency conflicts that triggered a retry",
		},
		[]string{"record"},
	)

	StreaksReset = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vietlingo_streaks_reset_total",
			Help: "Streaks zeroed by the nightly sweep",
		},
	)

	// OCR requests by status: success, service_error, transport_error
	OCRRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vietlingo_ocr_requests_total",
			Help: "Requests forwarded to the recognition service",
		},
		[]string{"status"},
	)

	OCRDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vietlingo_ocr_duration_seconds",
			Help:    "Time spent waiting for the recognition service",
			Buckets: prometheus.DefBuckets,
		},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vietlingo_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Middleware observes request latency keyed by the matched route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		HTTPDuration.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
