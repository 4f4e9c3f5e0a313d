// Package security はアプリケーションのセキュリティ機能を提供する。
//
// PIN のハッシュ化、識別用シークレット（CPR番号）の保護、
// 臨床ノート本文のサニタイズを扱う。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NoteSanitizer は臨床ノート本文のサニタイズ機能のインターフェースを定義する。
type NoteSanitizer interface {
	// Sanitize はノート本文からすべてのHTMLタグを除去し、前後の空白を取り除く。
	// 空文字列の入力には空文字列を返す。
	Sanitize(body string) string
}

// noteSanitizer はNoteSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type noteSanitizer struct {
	policy *bluemonday.Policy
}

// NewNoteSanitizer はNoteSanitizerの新しいインスタンスを生成する。
// ノートはプレーンテキストとして扱うため、StrictPolicy（全タグ除去）を使用する。
func NewNoteSanitizer() *noteSanitizer {
	return &noteSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はノート本文をサニタイズする。
func (s *noteSanitizer) Sanitize(body string) string {
	return strings.TrimSpace(s.policy.Sanitize(body))
}

var _ NoteSanitizer = (*noteSanitizer)(nil)
