package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-meme-kit/internal/config"
	"github.com/shouni/go-meme-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// batchCmd は、改行区切りの複数テキストを並列でミームへ変換するのだ。
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "複数のテキストを一括でミームに変換するのだ！",
	Long: `--text-file か標準入力から改行区切りのテキストを読み込み、
各行を独立したパイプラインとして並列実行するのだ。
1行の失敗は他の行を巻き込まず、最後に全件の成否一覧が出るのだよ。`,
	Example: "  ap-meme-go batch -f inputs.txt\n" +
		"  cat inputs.txt | ap-meme-go batch -s -o output/meme.png",
	RunE: batchCommand,
}

// init は batch 専用のフラグを定義するのだ。
func init() {
	batchCmd.Flags().StringVar(&opts.ReportFile, "report-file", "", "成否一覧（Markdown）の保存先なのだ（例: "+config.DefaultReportFile+"）。")
}

// batchCommand は、batch サブコマンドの実行ロジック本体なのだ。
func batchCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.TextFile == "" && !isStdin() {
		return fmt.Errorf("ソース（--text-file または標準入力）を指定してほしいのだ")
	}

	// 2. 設定のロードと入力の分割
	cfg := loadConfig()

	raw, err := pipeline.ReadInputText(ctx, cfg, nil)
	if err != nil {
		return err
	}
	texts := pipeline.SplitBatchInput(raw)

	slog.Info("バッチパイプラインを起動するのだ！",
		"items", len(texts),
		"rate_interval", opts.RateInterval)

	// 3. パイプライン実行
	if err := pipeline.ExecuteBatch(ctx, cfg, texts); err != nil {
		return fmt.Errorf("バッチ実行中にエラーが発生したのだ: %w", err)
	}

	return nil
}
