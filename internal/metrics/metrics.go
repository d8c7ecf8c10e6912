package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ecotour_ws_connections",
		Help: "Current number of active websocket connections per hub",
	}, []string{"hub"})
	PushDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ecotour_push_delivered_total",
		Help: "Events delivered to an open connection",
	}, []string{"event"})
	PushSkippedOffline = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecotour_push_skipped_offline_total",
		Help: "Pushes skipped because the recipient had no open connection",
	})
	PushFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecotour_push_failed_total",
		Help: "Per-connection deliveries dropped (slow or closed client)",
	})
	ChatMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecotour_chat_messages_total",
		Help: "Total number of chat messages persisted",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(WsConnections, PushDelivered, PushSkippedOffline, PushFailed, ChatMessagesTotal, HttpRequestsTotal, HttpRequestDuration)
}

// GinMiddleware 统计基础请求指标，供 Prometheus 拉取。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
