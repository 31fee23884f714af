package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/talkboard/internal/middleware"
	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/view"
)

// UserServiceInterface はユーザーサービスのインターフェース。
type UserServiceInterface interface {
	CompleteRegistration(ctx context.Context, name, email string) error
	Contacts(ctx context.Context, name string) ([]string, error)
}

// UserHandler はユーザー登録・連絡先関連のHTTPハンドラー。
type UserHandler struct {
	userService UserServiceInterface
	renderer    *view.Renderer
}

// NewUserHandler はUserHandlerを作成する。
func NewUserHandler(userService UserServiceInterface, renderer *view.Renderer) *UserHandler {
	return &UserHandler{
		userService: userService,
		renderer:    renderer,
	}
}

// RegisterForm はメールアドレス登録フォームを表示する。
func (h *UserHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Register(w, &view.RegisterData{UserName: user.Name}); err != nil {
		slog.Error("failed to render register page", slog.String("error", err.Error()))
	}
}

// Register はフォームから受け取ったメールアドレスでユーザー登録を完了する。
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
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

	email := r.FormValue("email")
	if err := h.userService.CompleteRegistration(r.Context(), user.Name, email); err != nil {
		handleServiceError(w, err)
		return
	}

	// 登録済みメールアドレスをクライアント側でも参照できるようにする
	http.SetCookie(w, &http.Cookie{
		Name:  "email",
		Value: email,
		Path:  "/",
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// Contacts はログインユーザーの連絡先一覧をJSONで返す。
func (h *UserHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusOK, []string{})
		return
	}

	names, err := h.userService.Contacts(r.Context(), user.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, r, http.StatusOK, names)
}
