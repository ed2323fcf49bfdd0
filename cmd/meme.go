package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-meme-kit/internal/pipeline"
	"github.com/shouni/go-meme-kit/pkg/memerr"

	"github.com/spf13/cobra"
)

// memeCmd は、選択テキスト1件をキャプション付きミーム画像へ変換するのだ。
var memeCmd = &cobra.Command{
	Use:   "meme [text]",
	Short: "テキストをAIミームに変換するのだ！",
	Long: `入力テキストに合うテンプレートをAIに選ばせ、規約に沿った top/bottom
キャプションへ整形して、画像サービスのURLを解決するのだよ。`,
	Example: "  ap-meme-go meme \"deploying to production on friday\"\n" +
		"  ap-meme-go meme -t drake -r 1 \"tabs or spaces\"",
	RunE: memeCommand,
}

// init は将来的にフラグを追加する場合に使うのだ。
func init() {
}

// memeCommand は、meme サブコマンドの実行ロジック本体なのだ。
func memeCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if len(args) == 0 && opts.TextFile == "" && !isStdin() {
		return fmt.Errorf("ソース（引数 または --text-file）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := loadConfig()

	text, err := pipeline.ReadInputText(ctx, cfg, args)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("入力テキストが空なのだ")
	}

	slog.Info("ミーム生成パイプラインを起動するのだ！",
		"template", opts.TemplateID,
		"text_model", cfg.GeminiModel,
		"lang", cfg.DisplayLanguage)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	if err := pipeline.ExecuteMeme(ctx, cfg, text); err != nil {
		// エンドユーザー向けの文言は小さな固定集合に畳み込むのだ
		fmt.Fprintln(os.Stderr, memerr.UserMessage(err, cfg.DisplayLanguage))
		return err
	}

	return nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
