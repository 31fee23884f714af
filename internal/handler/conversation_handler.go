package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/talkboard/internal/conversation"
	"github.com/hitoshi/talkboard/internal/middleware"
	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/view"
)

// ConversationServiceInterface は会話サービスのインターフェース。
type ConversationServiceInterface interface {
	Post(ctx context.Context, actor *model.User, conversationID int64, statusText string) (*conversation.PostResult, error)
	List(ctx context.Context, actorName string, sinceID, count int64) ([]*conversation.Summary, error)
	Show(ctx context.Context, actorName string, conversationID, sinceID, count int64) (*conversation.Detail, error)
}

// ConversationHandler は会話関連のHTTPハンドラー。
type ConversationHandler struct {
	convService ConversationServiceInterface
	userService UserServiceInterface
	renderer    *view.Renderer
}

// NewConversationHandler はConversationHandlerを作成する。
func NewConversationHandler(
	convService ConversationServiceInterface,
	userService UserServiceInterface,
	renderer *view.Renderer,
) *ConversationHandler {
	return &ConversationHandler{
		convService: convService,
		userService: userService,
		renderer:    renderer,
	}
}

// userResponse はJSONレスポンスに埋め込むユーザー情報。
type userResponse struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url"`
}

// summaryResponse は会話一覧の1件分のJSONレスポンス。
type summaryResponse struct {
	ConversationID    int64         `json:"conversation_id"`
	Status            string        `json:"status"`
	UserName          string        `json:"user_name"`
	UpdatedTime       string        `json:"updated_time"`
	ConversationCount int64         `json:"conversation_count"`
	LatestUsers       []string      `json:"latest_users"`
	StatusCount       int64         `json:"status_count"`
	User              *userResponse `json:"user,omitempty"`
}

func toUserResponse(u *model.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// Home はホーム画面を表示する。
// 未登録ユーザー（email未設定）は登録ページへリダイレクトする。
// 未認証リクエストはセッションミドルウェアがランディングへ振り分けるため、ここには届かない。
func (h *ConversationHandler) Home(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/auth/weibo/", http.StatusFound)
		return
	}
	if !user.IsRegistered() {
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	summaries, err := h.convService.List(r.Context(), user.Name, 0, 0)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	contacts, err := h.userService.Contacts(r.Context(), user.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = h.renderer.Home(w, &view.HomeData{
		User:          user,
		Conversations: summaries,
		Contacts:      contacts,
	})
	if err != nil {
		slog.Error("failed to render home page", slog.String("error", err.Error()))
	}
}

// Update はステータスを投稿する。conversation_idが空の場合は新しい会話を開始する。
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     model.ErrCodeUnauthorized,
			Message:  "ログインが必要です。",
			Category: "auth",
			Action:   "ログインしてから再度お試しください。",
		})
		return
	}

	var conversationID int64
	if raw := r.FormValue("conversation_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     model.ErrCodeInvalidRequest,
				Message:  "会話IDの形式が不正です。",
				Category: "validation",
				Action:   "正しい会話IDを指定してください。",
			})
			return
		}
		conversationID = parsed
	}

	result, err := h.convService.Post(r.Context(), user, conversationID, r.FormValue("status"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 既存会話への返信はその会話詳細へ、新しい会話はホームへ戻す
	if !result.Created {
		http.Redirect(w, r, "/show/"+strconv.FormatInt(result.ConversationID, 10), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// List は参加中の会話一覧をJSONで返す。since_id/countでページングできる。
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusOK, []*summaryResponse{})
		return
	}

	sinceID := parseInt64Query(r, "since_id")
	count := parseInt64Query(r, "count")

	summaries, err := h.convService.List(r.Context(), user.Name, sinceID, count)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	response := make([]*summaryResponse, 0, len(summaries))
	for _, s := range summaries {
		response = append(response, &summaryResponse{
			ConversationID:    s.ConversationID,
			Status:            s.Status,
			UserName:          s.UserName,
			UpdatedTime:       s.UpdatedTime,
			ConversationCount: s.ParticipantCount,
			LatestUsers:       s.LatestUsers,
			StatusCount:       s.StatusCount,
			User:              toUserResponse(s.User),
		})
	}
	writeJSON(w, r, http.StatusOK, response)
}

// Show は会話詳細ページを表示する。閲覧と同時に既読カウントを更新する。
func (h *ConversationHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/auth/weibo/", http.StatusFound)
		return
	}

	conversationID, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "会話IDの形式が不正です。",
			Category: "validation",
			Action:   "正しい会話IDを指定してください。",
		})
		return
	}

	sinceID := parseInt64Query(r, "since_id")
	count := parseInt64Query(r, "count")

	detail, err := h.convService.Show(r.Context(), user.Name, conversationID, sinceID, count)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	contacts, err := h.userService.Contacts(r.Context(), user.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = h.renderer.Detail(w, &view.DetailData{
		User:         user,
		Conversation: detail,
		Contacts:     contacts,
	})
	if err != nil {
		slog.Error("failed to render conversation page", slog.String("error", err.Error()))
	}
}

// parseInt64Query はクエリパラメータを整数として読む。不正な値は0として扱う。
func parseInt64Query(r *http.Request, name string) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
