package domain

import "fmt"

// FormatRequest はキャプション整形1回分の入力です。呼び出しごとに作られ、
// 永続化されません。
type FormatRequest struct {
	RawText    string
	TemplateID string
	Language   string // 整形プロンプトに指定する出力言語
}

// FormattedCaption は整形済みの2スロットキャプションです。
// cmm のような単一スロットのテンプレートでは TopText が空になります。
type FormattedCaption struct {
	TopText    string `json:"top_text"`
	BottomText string `json:"bottom_text"`
}

// String は "top / bottom" 形式の表示用文字列を返すのだ。
func (c FormattedCaption) String() string {
	if c.TopText == "" {
		return c.BottomText
	}
	return fmt.Sprintf("%s / %s", c.TopText, c.BottomText)
}

// MemeResult は解決済みミーム1件の最終成果です。
type MemeResult struct {
	FinalImageURL  string `json:"final_image_url"`
	SourceImageURL string `json:"source_image_url"`
	DisplayText    string `json:"display_text"`
	TemplateID     string `json:"template_id"`
	// Fallback はプローブ失敗によりプレースホルダー画像へ退避したことを示します。
	Fallback bool `json:"fallback,omitempty"`
}

// BatchOutcome はバッチ生成における1項目分の成否です。
// 失敗は項目ごとに隔離され、兄弟項目の実行を巻き込みません。
type BatchOutcome struct {
	Index  int
	Input  string
	Result *MemeResult
	Err    error
}

// OK は項目が成功したかどうかを返すのだ。
func (o BatchOutcome) OK() bool {
	return o.Err == nil && o.Result != nil
}
