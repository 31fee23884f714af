// Package conversation は会話の作成・追記・一覧・詳細のビジネスロジックを提供する。
package conversation

import (
	"regexp"
	"strings"
)

// メンショントークンは@で始まり、後続の非空白文字列を名前として取る。
var mentionPattern = regexp.MustCompile(`^@(\S+)`)

// ExtractMentions は本文からメンションされたユーザー名を抽出する。
// 本文を空白で分割し、@で始まるトークンだけを対象とする。
// 重複を除き、初出順で返す。
func ExtractMentions(text string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, token := range strings.Fields(text) {
		m := mentionPattern.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
