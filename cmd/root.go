package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-meme-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は全コマンドで共有する実行時オプションなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.TextFile, "text-file", "f", "", "入力ファイルのパス（'-'で標準入力なのだ）。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultLocalFile, "保存パス（ローカル or gs://...）なのだ。")

	// --- テンプレート・整形設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.TemplateID, "template", "t", "", "分類をスキップして使うテンプレートIDなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.TemplatesFile, "templates-file", "", "追加テンプレート定義のJSONパスなのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.SkipFormatting, "skip-formatting", false, "区切り済みテキストをそのまま使うのだ。")
	rootCmd.PersistentFlags().IntVarP(&opts.VariantSeed, "regenerate", "r", 0, "0以外で前回と違う答えを狙って再抽選するのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "使用する Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Language, "lang", "l", "", "キャプションの出力言語なのだ（en/es/fr/de等）。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "バッチ時のプロバイダ呼び出し間隔なのだ。")

	// --- 保存制御 ---
	rootCmd.PersistentFlags().BoolVarP(&opts.SaveImage, "save", "s", false, "解決した画像をダウンロードして保存するのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// templates はAIを呼ばないので、キーなしでも動かせるのだ
	if cmd.Name() == "templates" {
		return nil
	}

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"ap-meme-go",
		addAppFlags,
		preRunAppE,
		memeCmd,
		batchCmd,
		templatesCmd,
	)
}

// loadConfig は環境変数とフラグをまとめて実行時設定を組み立てるのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	if opts.Language != "" {
		cfg.DisplayLanguage = opts.Language
	}
	cfg.Options = opts
	return cfg
}
