package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/talkboard/internal/model"
)

func TestWriteJSON_PlainJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/conversation/list", nil)
	w := httptest.NewRecorder()

	writeJSON(w, req, http.StatusOK, map[string]string{"hello": "world"})

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["hello"] != "world" {
		t.Errorf("body = %v", body)
	}
}

func TestWriteJSON_JSONPCallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/conversation/list?jsonp_callback=handleList", nil)
	w := httptest.NewRecorder()

	writeJSON(w, req, http.StatusOK, []string{"a"})

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("Content-Type = %q, want application/javascript", ct)
	}
	body := w.Body.String()
	if body != `handleList(["a"])` {
		t.Errorf("body = %q, want handleList wrapping", body)
	}
}

func TestWriteJSON_JSONPIgnoredOnPost(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/statuses/update?jsonp_callback=cb", nil)
	w := httptest.NewRecorder()

	writeJSON(w, req, http.StatusOK, []string{})

	if strings.Contains(w.Body.String(), "cb(") {
		t.Errorf("body = %q, JSONP must not apply to POST", w.Body.String())
	}
}

func TestWriteJSON_JSONPRejectsUnsafeCallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/contact?jsonp_callback=alert(1)%3C%2Fscript%3E", nil)
	w := httptest.NewRecorder()

	writeJSON(w, req, http.StatusOK, []string{})

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, unsafe callback must fall back to JSON", ct)
	}
}

func TestHandleServiceError_APIErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "会話アクセス拒否",
			err:        model.NewConversationForbiddenError(7),
			wantStatus: http.StatusForbidden,
			wantCode:   model.ErrCodeForbidden,
		},
		{
			name:       "ステータス未入力",
			err:        model.NewStatusRequiredError(),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeStatusRequired,
		},
		{
			name:       "メールアドレス未入力",
			err:        model.NewEmailRequiredError(),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeInvalidRequest,
		},
		{
			name:       "プロバイダーエラー",
			err:        model.NewProviderError("接続できません"),
			wantStatus: http.StatusBadGateway,
			wantCode:   model.ErrCodeProviderError,
		},
		{
			name:       "連絡先取り込み失敗",
			err:        model.NewFriendImportError("上限超過"),
			wantStatus: http.StatusBadGateway,
			wantCode:   model.ErrCodeFriendImportFailed,
		},
		{
			name:       "未分類エラー",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			handleServiceError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp apiErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Message == "" || resp.Action == "" {
				t.Error("message and action must be populated")
			}
		})
	}
}
