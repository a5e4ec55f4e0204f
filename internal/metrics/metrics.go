// Package metrics содержит Prometheus-коллекторы сервиса
package metrics

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventhive_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eventhive_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	WebSocketSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventhive_websocket_sessions",
		Help: "Open WebSocket sessions.",
	})

	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventhive_notifications_delivered_total",
		Help: "Notification frames queued to sessions, by socket event.",
	}, []string{"event"})

	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventhive_notifications_dropped_total",
		Help: "Notification frames dropped because a session buffer was full.",
	})

	ChatResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventhive_chat_responses_total",
		Help: "Chat responses by outcome (matched or fallback).",
	}, []string{"outcome"})

	BrokerPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventhive_broker_published_total",
		Help: "Messages published to NATS Streaming by subject and result.",
	}, []string{"subject", "result"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventhive_registrations_total",
		Help: "Registrations by resulting payment status.",
	}, []string{"status"})
)

// RegisterDB экспортирует статистику пула соединений базы
func RegisterDB(name string, db *sql.DB) {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		panic(err)
	}
}

// Middleware считает запросы по шаблону маршрута, а не по сырому пути
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
