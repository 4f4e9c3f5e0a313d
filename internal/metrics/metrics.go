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
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(success bool)
	RecordSessionsPurged(count int64)
	RecordContractionRecorded()
	RecordClusteringWarning()
	RecordAuditFailure()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins               *prometheus.CounterVec
	sessionsPurged       prometheus.Counter
	contractionsRecorded prometheus.Counter
	clusteringWarnings   prometheus.Counter
	auditFailures        prometheus.Counter
	httpStatus           *prometheus.CounterVec
	requestLatency       prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetracker_logins_total",
			Help: "ログイン試行の合計数（結果別）",
		}, []string{"result"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vetracker_sessions_purged_total",
			Help: "認可時に削除された失効セッションの合計数",
		}),
		contractionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vetracker_contractions_recorded_total",
			Help: "記録された陣痛の合計数",
		}),
		clusteringWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vetracker_clustering_warnings_total",
			Help: "陣痛間隔の警告を発行した合計数",
		}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vetracker_audit_failures_total",
			Help: "監査ログの書き込み失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vetracker_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vetracker_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.sessionsPurged,
		c.contractionsRecorded,
		c.clusteringWarnings,
		c.auditFailures,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordSessionsPurged は削除された失効セッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// RecordContractionRecorded は陣痛の記録を記録する。
func (c *Collector) RecordContractionRecorded() {
	c.contractionsRecorded.Inc()
}

// RecordClusteringWarning は警告の発行を記録する。
func (c *Collector) RecordClusteringWarning() {
	c.clusteringWarnings.Inc()
}

// RecordAuditFailure は監査ログの書き込み失敗を記録する。
func (c *Collector) RecordAuditFailure() {
	c.auditFailures.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

func (NopCollector) RecordLogin(bool)                   {}
func (NopCollector) RecordSessionsPurged(int64)         {}
func (NopCollector) RecordContractionRecorded()         {}
func (NopCollector) RecordClusteringWarning()           {}
func (NopCollector) RecordAuditFailure()                {}
func (NopCollector) RecordHTTPStatus(int)               {}
func (NopCollector) RecordRequestLatency(time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
