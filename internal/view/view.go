// Package view はHTMLビューのレンダリングを提供する。
package view

import (
	"fmt"
	"html/template"
	"io"

	"github.com/hitoshi/talkboard/internal/conversation"
	"github.com/hitoshi/talkboard/internal/model"
)

// Sanitizer はステータス本文をHTML表示用にサニタイズするインターフェース。
// security.ContentSanitizerServiceの部分集合として定義する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Renderer はHTMLテンプレートを保持し、各ページのレンダリングを提供する。
type Renderer struct {
	sanitizer Sanitizer
	landing   *template.Template
	home      *template.Template
	register  *template.Template
	detail    *template.Template
}

// NewRenderer はテンプレートをパースしてRendererを生成する。
// ステータス本文はsanitizerを通してからHTMLとして埋め込まれる。
func NewRenderer(sanitizer Sanitizer) (*Renderer, error) {
	r := &Renderer{sanitizer: sanitizer}

	funcs := template.FuncMap{
		"status": func(s string) template.HTML {
			return template.HTML(sanitizer.Sanitize(s))
		},
	}

	var err error
	if r.landing, err = template.New("landing").Funcs(funcs).Parse(landingTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse landing template: %w", err)
	}
	if r.home, err = template.New("home").Funcs(funcs).Parse(homeTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse home template: %w", err)
	}
	if r.register, err = template.New("register").Funcs(funcs).Parse(registerTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse register template: %w", err)
	}
	if r.detail, err = template.New("detail").Funcs(funcs).Parse(detailTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse detail template: %w", err)
	}
	return r, nil
}

// HomeData はホームページのテンプレートデータ。
type HomeData struct {
	User          *model.User
	Conversations []*conversation.Summary
	Contacts      []string
}

// RegisterData は登録完了ページのテンプレートデータ。
type RegisterData struct {
	UserName string
}

// DetailData は会話詳細ページのテンプレートデータ。
type DetailData struct {
	User         *model.User
	Conversation *conversation.Detail
	Contacts     []string
}

// Landing は未認証ユーザー向けのランディングページをレンダリングする。
func (r *Renderer) Landing(w io.Writer) error {
	return r.landing.Execute(w, nil)
}

// Home はログイン済みユーザーのホームページをレンダリングする。
func (r *Renderer) Home(w io.Writer, data *HomeData) error {
	return r.home.Execute(w, data)
}

// Register は登録完了ページをレンダリングする。
func (r *Renderer) Register(w io.Writer, data *RegisterData) error {
	return r.register.Execute(w, data)
}

// Detail は会話詳細ページをレンダリングする。
func (r *Renderer) Detail(w io.Writer, data *DetailData) error {
	return r.detail.Execute(w, data)
}
