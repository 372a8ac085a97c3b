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
// 認証サービス、ミドルウェア、ワーカーから利用する。
type MetricsCollector interface {
	RecordAuthAttempt(strategy, outcome string)
	RecordAuthLatency(strategy string, duration time.Duration)
	RecordUserCreated(source string)
	RecordSessionResolution(result string)
	RecordSessionsPurged(count int64)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authAttempts       *prometheus.CounterVec
	authLatency        *prometheus.HistogramVec
	usersCreated       *prometheus.CounterVec
	sessionResolutions *prometheus.CounterVec
	sessionsPurged     prometheus.Counter
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkman_auth_attempts_total",
			Help: "認証試行の合計数（strategy, outcome別）",
		}, []string{"strategy", "outcome"}),
		authLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkman_auth_latency_seconds",
			Help:    "認証処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
		usersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkman_users_created_total",
			Help: "作成されたユーザーの合計数（source別）",
		}, []string{"source"}),
		sessionResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkman_session_resolutions_total",
			Help: "リクエストごとのセッション解決結果の合計数",
		}, []string{"result"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkman_sessions_purged_total",
			Help: "期限切れで削除されたセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.authLatency,
		c.usersCreated,
		c.sessionResolutions,
		c.sessionsPurged,
		c.httpStatus,
	)

	return c
}

// RecordAuthAttempt は認証試行の結果を記録する。
func (c *Collector) RecordAuthAttempt(strategy, outcome string) {
	c.authAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordAuthLatency は認証処理のレイテンシを記録する。
func (c *Collector) RecordAuthLatency(strategy string, duration time.Duration) {
	c.authLatency.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordUserCreated はユーザー作成を記録する。
func (c *Collector) RecordUserCreated(source string) {
	c.usersCreated.WithLabelValues(source).Inc()
}

// RecordSessionResolution はセッション解決の結果を記録する。
func (c *Collector) RecordSessionResolution(result string) {
	c.sessionResolutions.WithLabelValues(result).Inc()
}

// RecordSessionsPurged は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordAuthAttempt(string, string) {}
func (Nop) RecordAuthLatency(string, time.Duration) {}
func (Nop) RecordUserCreated(string) {}
func (Nop) RecordSessionResolution(string) {}
func (Nop) RecordSessionsPurged(int64) {}
func (Nop) RecordHTTPStatus(int) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
