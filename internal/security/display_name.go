package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy は全てのタグを除去するポリシー。構築後は並行利用できる。
var strictPolicy = bluemonday.StrictPolicy()

// CleanDisplayName は表示名からHTMLマークアップを除去し、前後の空白を取り除く。
// script・styleタグは内容ごと除去する。エンティティは元の文字に戻す。
func CleanDisplayName(name string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(name)))
}
