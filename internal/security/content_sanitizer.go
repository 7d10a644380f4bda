// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はタスクの説明や被介護者プロフィールのメモなど、
// ユーザーが入力する自由記述フィールドを保存前に無害化する。
// これらのフィールドはプレーンテキストとして扱い、HTMLタグはすべて除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は自由記述フィールドの無害化インターフェースを定義する。
type ContentSanitizerService interface {
	// Sanitize は入力からHTMLタグをすべて除去したプレーンテキストを返す。
	// タグ除去後の実体参照は元の文字に戻すため、"A&B" のような
	// 通常のテキストは変化しない。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフに処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しない: script等の危険なタグだけでなく、
// 装飾タグも含めてすべて除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグを除去したプレーンテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	// StrictPolicyは除去後のテキストをHTMLエスケープするため、
	// プレーンテキストとして保存するには実体参照を戻す必要がある。
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
