package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedInlineTags は許可タグが通過することを検証する。
func TestSanitize_AllowedInlineTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{
			name:         "strongタグが許可される",
			input:        "<strong>重要</strong>な話",
			wantContains: []string{"<strong>重要</strong>"},
		},
		{
			name:         "codeタグが許可される",
			input:        "<code>GET /conversation/list</code>を叩く",
			wantContains: []string{"<code>GET /conversation/list</code>"},
		},
		{
			name:         "httpsリンクが許可されrelが付与される",
			input:        `<a href="https://example.com">リンク</a>`,
			wantContains: []string{"https://example.com", `target="_blank"`, "noopener"},
		},
		{
			name:         "プレーンテキストはそのまま",
			input:        "@alice 今日どう?",
			wantContains: []string{"@alice 今日どう?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, should contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_DangerousContent は危険な入力が除去されることを検証する。
func TestSanitize_DangerousContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name        string
		input       string
		wantAbsent  []string
		wantPresent []string
	}{
		{
			name:        "scriptタグが除去される",
			input:       `<script>alert("xss")</script>本文`,
			wantAbsent:  []string{"<script>"},
			wantPresent: []string{"本文"},
		},
		{
			name:       "on属性付きタグが除去される",
			input:      `<strong onclick="steal()">太字</strong>`,
			wantAbsent: []string{"onclick"},
		},
		{
			name:       "javascriptスキームのリンクが除去される",
			input:      `<a href="javascript:alert(1)">踏むな</a>`,
			wantAbsent: []string{"javascript:"},
		},
		{
			name:       "httpリンクは許可されない",
			input:      `<a href="http://insecure.example.com">平文</a>`,
			wantAbsent: []string{"http://insecure.example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, absent)
				}
			}
			for _, present := range tt.wantPresent {
				if !strings.Contains(got, present) {
					t.Errorf("Sanitize(%q) = %q, should contain %q", tt.input, got, present)
				}
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `@bob <strong>明日</strong>の<a href="https://example.com">予定</a>`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: first = %q, second = %q", first, second)
	}
}
