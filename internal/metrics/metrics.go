// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 結果ラベルの値
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultExpired = "expired"
	ResultMissing = "missing"
)

// 識別子衝突の種別ラベルの値
const (
	KindUserID   = "user_id"
	KindSession  = "session"
	KindRecordID = "record_id"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層・ミドルウェア・ワーカーから利用する。
type MetricsCollector interface {
	RecordRegistration()
	RecordLogin(result string)
	RecordSessionValidation(result string)
	RecordQuizRecordSaved()
	RecordMistakeSaved()
	RecordIDConflict(kind string)
	RecordSessionsEvicted(count int64)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations      prometheus.Counter
	logins             *prometheus.CounterVec
	sessionValidations *prometheus.CounterVec
	quizRecordsSaved   prometheus.Counter
	mistakesSaved      prometheus.Counter
	idConflicts        *prometheus.CounterVec
	sessionsEvicted    prometheus.Counter
	httpStatus         *prometheus.CounterVec
	requestLatency     prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oralarith_registrations_total",
			Help: "ユーザー登録成功の合計数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oralarith_logins_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		sessionValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oralarith_session_validations_total",
			Help: "セッション検証の結果別合計数",
		}, []string{"result"}),
		quizRecordsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oralarith_quiz_records_saved_total",
			Help: "保存されたクイズ結果の合計数",
		}),
		mistakesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oralarith_mistakes_saved_total",
			Help: "保存された誤答の合計数",
		}),
		idConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oralarith_id_conflicts_total",
			Help: "識別子生成時の衝突による再試行の種別別合計数",
		}, []string{"kind"}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oralarith_sessions_evicted_total",
			Help: "期限切れで削除されたセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oralarith_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "oralarith_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.sessionValidations,
		c.quizRecordsSaved,
		c.mistakesSaved,
		c.idConflicts,
		c.sessionsEvicted,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordRegistration はユーザー登録成功を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordSessionValidation はセッション検証の結果を記録する。
func (c *Collector) RecordSessionValidation(result string) {
	c.sessionValidations.WithLabelValues(result).Inc()
}

// RecordQuizRecordSaved はクイズ結果の保存を記録する。
func (c *Collector) RecordQuizRecordSaved() {
	c.quizRecordsSaved.Inc()
}

// RecordMistakeSaved は誤答の保存を記録する。
func (c *Collector) RecordMistakeSaved() {
	c.mistakesSaved.Inc()
}

// RecordIDConflict は識別子の衝突を記録する。
func (c *Collector) RecordIDConflict(kind string) {
	c.idConflicts.WithLabelValues(kind).Inc()
}

// RecordSessionsEvicted は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsEvicted(count int64) {
	c.sessionsEvicted.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクス無効時やテストで使用する。
type NopCollector struct{}

func (NopCollector) RecordRegistration() {}
func (NopCollector) RecordLogin(string) {}
func (NopCollector) RecordSessionValidation(string) {}
func (NopCollector) RecordQuizRecordSaved() {}
func (NopCollector) RecordMistakeSaved() {}
func (NopCollector) RecordIDConflict(string) {}
func (NopCollector) RecordSessionsEvicted(int64) {}
func (NopCollector) RecordHTTPStatus(int) {}
func (NopCollector) RecordRequestLatency(time.Duration) {}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
