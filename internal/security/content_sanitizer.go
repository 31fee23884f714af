package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はステータス本文のサニタイズ機能のインターフェースを定義する。
// HTMLビューへのレンダリング時に使用される。
type ContentSanitizerService interface {
	// Sanitize はステータス本文をサニタイズして安全なHTMLを返す。
	// 少数のインラインタグ（a, br, code, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ステータス本文はほぼプレーンテキストなので、許可するのはインライン装飾と
// リンクだけの狭いポリシーにする。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements("br", "code", "strong", "em")

	// aタグ: href属性のみ許可し、httpsスキームに限定する。
	// 相対URLは不許可。リンクにはtarget="_blank"とrel="noreferrer noopener"を強制付与。
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はステータス本文をサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
