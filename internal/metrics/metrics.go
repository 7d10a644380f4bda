// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とHTTP層から利用する。
type MetricsCollector interface {
	RecordWrite(collection string)
	RecordNotification(collection string)
	RecordLogin(result string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	writes         *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caresync_writes_total",
			Help: "コレクション別の書き込み操作の合計数",
		}, []string{"collection"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caresync_change_notifications_total",
			Help: "コレクション別の変更通知配信の合計数",
		}, []string{"collection"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caresync_logins_total",
			Help: "結果別のログイン試行の合計数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caresync_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caresync_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.writes,
		c.notifications,
		c.logins,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordWrite はコレクションへの書き込み操作を記録する。
func (c *Collector) RecordWrite(collection string) {
	c.writes.WithLabelValues(collection).Inc()
}

// RecordNotification は変更通知の配信を記録する。
func (c *Collector) RecordNotification(collection string) {
	c.notifications.WithLabelValues(collection).Inc()
}

// RecordLogin はログイン試行を結果（success / failure）別に記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
