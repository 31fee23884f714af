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
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(isNewUser bool)
	RecordFriendImportPages(pages int)
	RecordStatusPosted()
	RecordConversationCreated()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginTotal          *prometheus.CounterVec
	friendImportPages   prometheus.Counter
	statusesPosted      prometheus.Counter
	conversationCreated prometheus.Counter
	httpStatus          *prometheus.CounterVec
	requestLatency      prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talkboard_login_total",
			Help: "ログイン完了の合計数",
		}, []string{"new_user"}),
		friendImportPages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkboard_friend_import_pages_total",
			Help: "友人リスト取り込みで取得したページの合計数",
		}),
		statusesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkboard_statuses_posted_total",
			Help: "投稿されたステータスの合計数",
		}),
		conversationCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkboard_conversations_created_total",
			Help: "作成された会話の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talkboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "talkboard_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loginTotal,
		c.friendImportPages,
		c.statusesPosted,
		c.conversationCreated,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLogin はログイン完了を記録する。
func (c *Collector) RecordLogin(isNewUser bool) {
	c.loginTotal.WithLabelValues(strconv.FormatBool(isNewUser)).Inc()
}

// RecordFriendImportPages は友人リスト取り込みのページ数を記録する。
func (c *Collector) RecordFriendImportPages(pages int) {
	c.friendImportPages.Add(float64(pages))
}

// RecordStatusPosted はステータス投稿を記録する。
func (c *Collector) RecordStatusPosted() {
	c.statusesPosted.Inc()
}

// RecordConversationCreated は会話作成を記録する。
func (c *Collector) RecordConversationCreated() {
	c.conversationCreated.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
