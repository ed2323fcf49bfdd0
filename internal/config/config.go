package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel         = "gemini-3-flash-preview"
	DefaultHTTPTimeout   = 10 * time.Second
	DefaultRateInterval  = 1 * time.Second
	DefaultLanguage      = "en"
	DefaultLocalFile     = "output/meme.png"        // 解決した画像を保存するデフォルトパスなのだ
	DefaultReportFile    = "output/batch_report.md" // バッチ結果一覧のデフォルト保存先なのだ
	DefaultMemeAPIBase   = "https://api.memegen.link/images"
	DefaultFallbackImage = "https://api.memegen.link/images/grave/meme_machine/out_of_order.png"
)

// Config はアプリケーション全体の環境設定（APIキーや接続先）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	MemeAPIBase      string
	FallbackImageURL string
	DisplayLanguage  string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		MemeAPIBase:      envutil.GetEnv("MEME_API_BASE", DefaultMemeAPIBase),
		FallbackImageURL: envutil.GetEnv("MEME_FALLBACK_IMAGE", DefaultFallbackImage),
		DisplayLanguage:  envutil.GetEnv("MEME_LANG", DefaultLanguage),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	TextFile   string // --text-file: 入力ファイル（'-'で標準入力）
	OutputFile string // --output-file: 解決した画像の保存先（ローカル or gs://...）
	ReportFile string // --report-file: バッチ結果一覧（Markdown）の保存先

	// テンプレート・整形関連
	TemplateID     string // --template: 分類をスキップして使うテンプレートID
	TemplatesFile  string // --templates-file: 追加テンプレート定義のJSONパス
	SkipFormatting bool   // --skip-formatting: 区切り済みテキストをそのまま使う
	VariantSeed    int    // --regenerate: 0以外で分類キャッシュを迂回して再抽選

	// AI挙動設定
	Language string // --lang: キャプションの出力言語
	AIModel  string // --model: テキスト生成用のGeminiモデル

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval: バッチ時のプロバイダ呼び出し間隔
	SaveImage    bool          // --save: 解決した画像をダウンロードして保存する
}
