package repository

import (
	"fmt"
	"strconv"
)

// formatTime は浮動小数点のUnix秒をハッシュフィールド用の文字列に変換する。
// プロバイダー由来のタイムスタンプ表現（float unix秒）をそのまま保持する。
func formatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// parseTime はハッシュフィールドの文字列を浮動小数点のUnix秒に変換する。
// 空文字列は0として扱う。
func parseTime(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	t, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
