// Package security はパスワードハッシュ、識別子・トークン生成、入力サニタイズを提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力の表示用テキストからHTMLを除去する。
// bluemondayのStrictPolicyで全タグを除去し、プレーンテキストとして返す。
// ポリシーはスレッドセーフで、プロセス全体で共有できる。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去し、前後の空白を取り除いたテキストを返す。
// 同一入力に対して常に同一出力を返す。
func (s *TextSanitizer) Sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}
