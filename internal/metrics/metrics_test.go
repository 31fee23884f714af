package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_RegistersMetrics はコレクターが二重登録なく生成できることを検証する。
func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil collector")
	}
}

// TestHandler_ServesRecordedMetrics は記録したメトリクスがスクレイプ出力に現れることを検証する。
func TestHandler_ServesRecordedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(true)
	c.RecordFriendImportPages(3)
	c.RecordStatusPosted()
	c.RecordConversationCreated()
	c.RecordHTTPStatus(200)
	c.RecordRequestLatency(25 * time.Millisecond)

	handler := Handler(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	for _, name := range []string{
		"talkboard_login_total",
		"talkboard_friend_import_pages_total",
		"talkboard_statuses_posted_total",
		"talkboard_conversations_created_total",
		"talkboard_http_status_total",
		"talkboard_request_latency_seconds",
	} {
		if !strings.Contains(bodyStr, name) {
			t.Errorf("response should contain %s metric", name)
		}
	}
}
