package cmd

import (
	"fmt"

	"github.com/shouni/go-meme-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// templatesCmd は、利用可能なミームテンプレートの一覧を表示するのだ。
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "利用可能なテンプレートの一覧を表示するのだ！",
	Long: `組み込みテンプレートと --templates-file で追加したテンプレートを
ID順に一覧表示するのだ。AI呼び出しは行わないのだよ。`,
	Example: "  ap-meme-go templates\n" +
		"  ap-meme-go templates --templates-file extra.json",
	RunE: templatesCommand,
}

// templatesCommand は、templates サブコマンドの実行ロジック本体なのだ。
func templatesCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if err := pipeline.ExecuteTemplates(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("テンプレート一覧の取得に失敗したのだ: %w", err)
	}

	return nil
}
