package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/talkboard/internal/conversation"
	"github.com/hitoshi/talkboard/internal/middleware"
	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/security"
	"github.com/hitoshi/talkboard/internal/view"
)

// --- モック定義 ---

type mockConversationService struct {
	postFn func(ctx context.Context, actor *model.User, conversationID int64, statusText string) (*conversation.PostResult, error)
	listFn func(ctx context.Context, actorName string, sinceID, count int64) ([]*conversation.Summary, error)
	showFn func(ctx context.Context, actorName string, conversationID, sinceID, count int64) (*conversation.Detail, error)
}

var _ ConversationServiceInterface = (*mockConversationService)(nil)

func (m *mockConversationService) Post(ctx context.Context, actor *model.User, conversationID int64, statusText string) (*conversation.PostResult, error) {
	if m.postFn != nil {
		return m.postFn(ctx, actor, conversationID, statusText)
	}
	return nil, nil
}

func (m *mockConversationService) List(ctx context.Context, actorName string, sinceID, count int64) ([]*conversation.Summary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, actorName, sinceID, count)
	}
	return nil, nil
}

func (m *mockConversationService) Show(ctx context.Context, actorName string, conversationID, sinceID, count int64) (*conversation.Detail, error) {
	if m.showFn != nil {
		return m.showFn(ctx, actorName, conversationID, sinceID, count)
	}
	return nil, nil
}

type mockUserService struct {
	completeRegistrationFn func(ctx context.Context, name, email string) error
	contactsFn             func(ctx context.Context, name string) ([]string, error)
}

var _ UserServiceInterface = (*mockUserService)(nil)

func (m *mockUserService) CompleteRegistration(ctx context.Context, name, email string) error {
	if m.completeRegistrationFn != nil {
		return m.completeRegistrationFn(ctx, name, email)
	}
	return nil
}

func (m *mockUserService) Contacts(ctx context.Context, name string) ([]string, error) {
	if m.contactsFn != nil {
		return m.contactsFn(ctx, name)
	}
	return nil, nil
}

func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	renderer, err := view.NewRenderer(security.NewContentSanitizer())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return renderer
}

func requestWithUser(req *http.Request, user *model.User) *http.Request {
	return req.WithContext(middleware.ContextWithUser(req.Context(), user))
}

// --- テスト ---

func TestConversationHandler_Home_UnregisteredUserRedirectsToRegister(t *testing.T) {
	h := NewConversationHandler(&mockConversationService{}, &mockUserService{}, newTestRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = requestWithUser(req, &model.User{Name: "bob"}) // email未設定
	w := httptest.NewRecorder()

	h.Home(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if loc := w.Header().Get("Location"); loc != "/register" {
		t.Errorf("Location = %q, want /register", loc)
	}
}

func TestConversationHandler_Home_RendersConversationList(t *testing.T) {
	convSvc := &mockConversationService{
		listFn: func(_ context.Context, actorName string, sinceID, count int64) ([]*conversation.Summary, error) {
			if actorName != "alice" {
				t.Errorf("actorName = %q, want alice", actorName)
			}
			return []*conversation.Summary{
				{ConversationID: 3, Status: "こんにちは", UserName: "bob", StatusCount: 2},
			}, nil
		},
	}
	userSvc := &mockUserService{
		contactsFn: func(_ context.Context, _ string) ([]string, error) {
			return []string{"bob", "carol"}, nil
		},
	}
	h := NewConversationHandler(convSvc, userSvc, newTestRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = requestWithUser(req, &model.User{Name: "alice", Email: "alice@example.com"})
	w := httptest.NewRecorder()

	h.Home(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "こんにちは") {
		t.Error("expected conversation preview in body")
	}
	if !strings.Contains(body, "carol") {
		t.Error("expected contact names in body")
	}
}

func TestConversationHandler_Update_NewConversationRedirectsHome(t *testing.T) {
	convSvc := &mockConversationService{
		postFn: func(_ context.Context, actor *model.User, conversationID int64, statusText string) (*conversation.PostResult, error) {
			if conversationID != 0 {
				t.Errorf("conversationID = %d, want 0", conversationID)
			}
			if statusText != "はじめまして @bob" {
				t.Errorf("statusText = %q", statusText)
			}
			return &conversation.PostResult{ConversationID: 1, StatusID: 1, Created: true}, nil
		},
	}
	h := NewConversationHandler(convSvc, &mockUserService{}, newTestRenderer(t))

	form := url.Values{"status": {"はじめまして @bob"}}
	req := httptest.NewRequest(http.MethodPost, "/statuses/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = requestWithUser(req, &model.User{Name: "alice", Email: "a@example.com"})
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestConversationHandler_Update_ReplyRedirectsToConversation(t *testing.T) {
	convSvc := &mockConversationService{
		postFn: func(_ context.Context, _ *model.User, conversationID int64, _ string) (*conversation.PostResult, error) {
			if conversationID != 5 {
				t.Errorf("conversationID = %d, want 5", conversationID)
			}
			return &conversation.PostResult{ConversationID: 5, StatusID: 9, Created: false}, nil
		},
	}
	h := NewConversationHandler(convSvc, &mockUserService{}, newTestRenderer(t))

	form := url.Values{"conversation_id": {"5"}, "status": {"返信です"}}
	req := httptest.NewRequest(http.MethodPost, "/statuses/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = requestWithUser(req, &model.User{Name: "alice", Email: "a@example.com"})
	w := httptest.NewRecorder()

	h.Update(w, req)

	if loc := w.Header().Get("Location"); loc != "/show/5" {
		t.Errorf("Location = %q, want /show/5", loc)
	}
}

func TestConversationHandler_Update_InvalidConversationID(t *testing.T) {
	h := NewConversationHandler(&mockConversationService{}, &mockUserService{}, newTestRenderer(t))

	form := url.Values{"conversation_id": {"abc"}, "status": {"x"}}
	req := httptest.NewRequest(http.MethodPost, "/statuses/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = requestWithUser(req, &model.User{Name: "alice", Email: "a@example.com"})
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestConversationHandler_Update_ForbiddenConversation(t *testing.T) {
	convSvc := &mockConversationService{
		postFn: func(_ context.Context, _ *model.User, _ int64, _ string) (*conversation.PostResult, error) {
			return nil, model.NewConversationForbiddenError(5)
		},
	}
	h := NewConversationHandler(convSvc, &mockUserService{}, newTestRenderer(t))

	form := url.Values{"conversation_id": {"5"}, "status": {"侵入"}}
	req := httptest.NewRequest(http.MethodPost, "/statuses/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = requestWithUser(req, &model.User{Name: "mallory", Email: "m@example.com"})
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if !strings.Contains(w.Body.String(), model.ErrCodeForbidden) {
		t.Errorf("body = %q, want FORBIDDEN envelope", w.Body.String())
	}
}

func TestConversationHandler_List_ReturnsJSON(t *testing.T) {
	convSvc := &mockConversationService{
		listFn: func(_ context.Context, _ string, sinceID, count int64) ([]*conversation.Summary, error) {
			if sinceID != 3 || count != 10 {
				t.Errorf("sinceID = %d, count = %d, want 3, 10", sinceID, count)
			}
			return []*conversation.Summary{
				{
					ConversationID:   4,
					Status:           "やあ",
					UserName:         "bob",
					UpdatedTime:      "2026-08-31T12:00:00Z",
					ParticipantCount: 2,
					LatestUsers:      []string{"bob", "alice"},
					StatusCount:      3,
					User:             &model.User{Name: "bob", Email: "b@example.com"},
				},
			}, nil
		},
	}
	h := NewConversationHandler(convSvc, &mockUserService{}, newTestRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/conversation/list?since_id=3&count=10", nil)
	req = requestWithUser(req, &model.User{Name: "alice", Email: "a@example.com"})
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("len = %d, want 1", len(resp))
	}
	entry := resp[0]
	if entry["conversation_id"] != float64(4) {
		t.Errorf("conversation_id = %v", entry["conversation_id"])
	}
	if entry["conversation_count"] != float64(2) {
		t.Errorf("conversation_count = %v", entry["conversation_count"])
	}
	if entry["updated_time"] != "2026-08-31T12:00:00Z" {
		t.Errorf("updated_time = %v", entry["updated_time"])
	}
	user, ok := entry["user"].(map[string]any)
	if !ok {
		t.Fatalf("user = %v", entry["user"])
	}
	if user["name"] != "bob" {
		t.Errorf("user.name = %v", user["name"])
	}
}

func TestConversationHandler_List_JSONPWrapping(t *testing.T) {
	convSvc := &mockConversationService{
		listFn: func(_ context.Context, _ string, _, _ int64) ([]*conversation.Summary, error) {
			return []*conversation.Summary{}, nil
		},
	}
	h := NewConversationHandler(convSvc, &mockUserService{}, newTestRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/conversation/list?jsonp_callback=render", nil)
	req = requestWithUser(req, &model.User{Name: "alice", Email: "a@example.com"})
	w := httptest.NewRecorder()

	h.List(w, req)

	if body := w.Body.String(); body != "render([])" {
		t.Errorf("body = %q, want render([])", body)
	}
}

func TestConversationHandler_Show_RendersDetail(t *testing.T) {
	convSvc := &mockConversationService{
		showFn: func(_ context.Context, actorName string, conversationID, sinceID, count int64) (*conversation.Detail, error) {
			if actorName != "alice" || conversationID != 7 {
				t.Errorf("actorName = %q, conversationID = %d", actorName, conversationID)
			}
			return &conversation.Detail{
				ConversationID:   7,
				Status:           "最新",
				UserName:         "bob",
				ParticipantCount: 2,
				AllUsers:         []string{"alice", "bob"},
				StatusCount:      2,
				Statuses: []*conversation.StatusEntry{
					{StatusID: 1, Status: "最初", UserName: "alice", CreatedTime: "2026-08-31T10:00:00Z"},
					{StatusID: 2, Status: "最新", UserName: "bob", CreatedTime: "2026-08-31T11:00:00Z"},
				},
			}, nil
		},
	}
	h := NewConversationHandler(convSvc, &mockUserService{}, newTestRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/show/7", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("conversationID", "7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = requestWithUser(req, &model.User{Name: "alice", Email: "a@example.com"})
	w := httptest.NewRecorder()

	h.Show(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "最初") || !strings.Contains(body, "最新") {
		t.Error("expected statuses in body")
	}
	if !strings.Contains(body, `value="7"`) {
		t.Error("expected hidden conversation_id field")
	}
}

func TestConversationHandler_Show_InvalidID(t *testing.T) {
	h := NewConversationHandler(&mockConversationService{}, &mockUserService{}, newTestRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/show/abc", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("conversationID", "abc")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = requestWithUser(req, &model.User{Name: "alice", Email: "a@example.com"})
	w := httptest.NewRecorder()

	h.Show(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
