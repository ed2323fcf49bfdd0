// Package textnorm は、Webページから選択されたテキストを画像サービスの
// URLパスへ安全に埋め込めるように整形する、純粋な変換関数群を提供します。
package textnorm

import (
	"net/url"
	"regexp"
	"strings"
)

// entityReplacer は既知のHTMLエンティティを文字へ戻すテーブルです。
// 名前付きと数値参照の両方を揃えています。
var entityReplacer = strings.NewReplacer(
	"&quot;", `"`,
	"&#34;", `"`,
	"&amp;", "&",
	"&#38;", "&",
	"&lt;", "<",
	"&#60;", "<",
	"&gt;", ">",
	"&#62;", ">",
	"&nbsp;", " ",
	"&#160;", " ",
	"&#39;", "'",
	"&apos;", "'",
)

var (
	// unknownEntityRegex はテーブル適用後に残ったエンティティに一致します。
	unknownEntityRegex = regexp.MustCompile(`&#?[0-9a-zA-Z]+;`)
	// whitespaceRegex は連続する空白類に一致します。
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// DecodeHTMLEntities は既知のHTMLエンティティを文字へ置換します。
// テーブルにないエンティティは削除します。キャプションとして意味を
// 持たない断片を残すより欠落させる方が安全、という損失許容の正規化です。
func DecodeHTMLEntities(text string) string {
	text = entityReplacer.Replace(text)
	return unknownEntityRegex.ReplaceAllString(text, "")
}

// RemoveEmojis は絵文字・記号ブロックのコードポイントを取り除きます。
// 対象範囲: U+1F300..U+1F9FF / U+2600..U+26FF / U+2700..U+27BF
func RemoveEmojis(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if (r >= 0x1F300 && r <= 0x1F9FF) ||
			(r >= 0x2600 && r <= 0x26FF) ||
			(r >= 0x2700 && r <= 0x27BF) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Sanitize はマークアップ由来の記号（* # @）を取り除き、
// 連続空白を1つに畳んで前後をトリムします。
func Sanitize(text string) string {
	text = strings.NewReplacer("*", "", "#", "", "@", "").Replace(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Clean は絵文字除去とサニタイズをまとめた標準の整形パイプラインです。
func Clean(text string) string {
	return Sanitize(RemoveEmojis(text))
}

// NormalizeQuotes はリッチテキスト由来の引用符・省略記号をASCIIへ寄せます。
func NormalizeQuotes(text string) string {
	return strings.NewReplacer(
		"‘", "'", // ‘
		"’", "'", // ’
		"“", `"`, // “
		"”", `"`, // ”
		"…", "...", // …
	).Replace(text)
}

// urlUnsafeReplacer はURLパスセグメントとして危険な文字を取り除きます。
var urlUnsafeReplacer = strings.NewReplacer(
	"<", "", ">", "", `"`, "", "{", "", "}", "", "|", "", `\`, "", "^", "", "`", "",
)

// URLSlot はテキストを画像サービスのURLパスセグメントへ変換します。
// 危険文字を除去し、空白の連なりをアンダースコアに置き換えてから
// 残りをパーセントエンコードします。アクセント付き文字などの非ASCII文字は
// 非英語キャプションを支えるため、削除せずエンコードして保持します。
func URLSlot(text string) string {
	text = urlUnsafeReplacer.Replace(text)
	text = whitespaceRegex.ReplaceAllString(strings.TrimSpace(text), "_")
	return url.PathEscape(text)
}
