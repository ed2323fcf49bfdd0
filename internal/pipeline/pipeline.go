package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/shouni/go-meme-kit/internal/builder"
	"github.com/shouni/go-meme-kit/internal/config"
	"github.com/shouni/go-meme-kit/pkg/domain"
	"github.com/shouni/go-meme-kit/pkg/memerr"
	"github.com/shouni/go-meme-kit/pkg/pipeline"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-utils/urlpath"
)

// ExecuteMeme は、選択テキスト1件をミームへ変換する単発パイプラインなのだ。
func ExecuteMeme(ctx context.Context, cfg *config.Config, text string) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := appCtx.MemePipeline.GenerateMeme(ctx, text, generateOpts(cfg))
	if err != nil {
		return fmt.Errorf("ミーム生成に失敗したのだ: %w", err)
	}

	printResult(result)

	if cfg.Options.SaveImage {
		outputPath := cfg.Options.OutputFile
		if err := saveImage(ctx, appCtx, result.FinalImageURL, outputPath); err != nil {
			return fmt.Errorf("画像の保存に失敗したのだ: %w", err)
		}
		slog.Info("画像を保存したのだ！", "path", outputPath)
	}

	slog.Info("ミーム生成が完了したのだ！", "template", result.TemplateID, "fallback", result.Fallback)
	return nil
}

// ExecuteBatch は、複数の入力を独立したパイプライン実行として一括処理するのだ。
// 1項目の失敗は他の項目を巻き込まず、全件の成否一覧を出力する。
func ExecuteBatch(ctx context.Context, cfg *config.Config, texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("バッチ入力が空なのだ")
	}

	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	slog.Info("バッチ生成を開始するのだ...", "items", len(texts))
	outcomes := appCtx.MemePipeline.GenerateBatch(ctx, texts, generateOpts(cfg))

	okCount := 0
	for _, o := range outcomes {
		if o.OK() {
			okCount++
			fmt.Printf("[%d] OK   %s\n", o.Index+1, o.Result.FinalImageURL)
			continue
		}
		fmt.Printf("[%d] FAIL %s\n", o.Index+1, memerr.UserMessage(o.Err, cfg.DisplayLanguage))
	}

	if cfg.Options.SaveImage {
		if err := saveBatchImages(ctx, appCtx, outcomes); err != nil {
			return err
		}
	}

	if cfg.Options.ReportFile != "" {
		if err := writeBatchReport(ctx, appCtx, outcomes, cfg); err != nil {
			return fmt.Errorf("レポートの保存に失敗したのだ: %w", err)
		}
		slog.Info("バッチレポートを保存したのだ！", "path", cfg.Options.ReportFile)
	}

	slog.Info("バッチ生成が完了したのだ！", "ok", okCount, "failed", len(texts)-okCount)
	return nil
}

// ExecuteTemplates は、利用可能なテンプレートの一覧を表示するのだ。
func ExecuteTemplates(ctx context.Context, cfg *config.Config) error {
	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return fmt.Errorf("failed to create GCS client factory: %w", err)
	}
	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return err
	}

	registry, err := builder.BuildRegistry(ctx, reader, cfg.Options.TemplatesFile)
	if err != nil {
		return err
	}

	templates := registry.All()
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	for _, t := range templates {
		topics := ""
		if len(t.Topics) > 0 {
			topics = " [" + strings.Join(t.Topics, ", ") + "]"
		}
		fmt.Printf("%-12s %s%s\n", t.ID, t.DisplayName, topics)
	}
	return nil
}

// ReadInputText は、引数・ファイル・標準入力の優先順でソーステキストを読み込むのだ。
func ReadInputText(ctx context.Context, cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if cfg.Options.TextFile != "" && cfg.Options.TextFile != "-" {
		gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to create GCS client factory: %w", err)
		}
		reader, err := gcsFactory.NewInputReader()
		if err != nil {
			return "", err
		}
		rc, err := reader.Open(ctx, cfg.Options.TextFile)
		if err != nil {
			return "", fmt.Errorf("入力ファイル '%s' の読み込みに失敗したのだ: %w", cfg.Options.TextFile, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("標準入力の読み込みに失敗したのだ: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SplitBatchInput は改行区切りの入力を項目リストへ変換するのだ。
func SplitBatchInput(raw string) []string {
	lines := strings.Split(raw, "\n")
	texts := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			texts = append(texts, trimmed)
		}
	}
	return texts
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
// ライフサイクル管理用の context と設定オブジェクトを受け取るのだ。
// 初期化中にエラーが発生した場合は、AppContext のポインタとエラーを返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	httpClient := &http.Client{Timeout: cfg.Options.HTTPTimeout}
	if cfg.Options.HTTPTimeout <= 0 {
		httpClient.Timeout = config.DefaultHTTPTimeout
	}

	aiClient, err := builder.InitializeAIClient(cfg, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai client: %w", err)
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	registry, err := builder.BuildRegistry(ctx, reader, cfg.Options.TemplatesFile)
	if err != nil {
		return nil, err
	}

	// Pipelineを一度だけ初期化
	memePipeline, err := builder.InitializeMemePipeline(cfg, httpClient, aiClient, registry)
	if err != nil {
		return nil, err
	}

	appCtx := builder.NewAppContext(cfg, httpClient, reader, writer, registry, memePipeline)
	return &appCtx, nil
}

// generateOpts は CLI オプションをパイプラインの調整項目へ写すのだ。
func generateOpts(cfg *config.Config) pipeline.GenerateOpts {
	return pipeline.GenerateOpts{
		TemplateID:     cfg.Options.TemplateID,
		SkipFormatting: cfg.Options.SkipFormatting,
		VariantSeed:    cfg.Options.VariantSeed,
	}
}

// printResult は解決結果を人間向けに出力するのだ。
func printResult(result domain.MemeResult) {
	fmt.Println(result.FinalImageURL)
	if result.DisplayText != "" {
		fmt.Println(result.DisplayText)
	}
}

// saveImage は解決済みのURLから画像を取得し、ローカルや gs:// の保存先へ書き込むのだ。
func saveImage(ctx context.Context, appCtx *builder.AppContext, imageURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	resp, err := appCtx.HTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("画像のダウンロードに失敗したのだ: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("画像のダウンロードに失敗したのだ (HTTP %d)", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return appCtx.Writer.Write(ctx, outputPath, bytes.NewReader(data), "image/png")
}

// writeBatchReport は成否一覧をMarkdownの表として書き出すのだ。
// 保存先はローカルパスでも gs:// でもよい。
func writeBatchReport(ctx context.Context, appCtx *builder.AppContext, outcomes []domain.BatchOutcome, cfg *config.Config) error {
	var sb strings.Builder
	sb.WriteString("# Batch Report\n\n")
	sb.WriteString("| # | Input | Result | Detail |\n")
	sb.WriteString("|---|-------|--------|--------|\n")

	okCount := 0
	for _, o := range outcomes {
		if o.OK() {
			okCount++
			fallback := ""
			if o.Result.Fallback {
				fallback = " (fallback)"
			}
			fmt.Fprintf(&sb, "| %d | %s | OK%s | %s |\n",
				o.Index+1, escapeCell(o.Input), fallback, o.Result.FinalImageURL)
			continue
		}
		fmt.Fprintf(&sb, "| %d | %s | FAIL | %s |\n",
			o.Index+1, escapeCell(o.Input), escapeCell(memerr.UserMessage(o.Err, cfg.DisplayLanguage)))
	}

	fmt.Fprintf(&sb, "\n%d ok / %d failed\n", okCount, len(outcomes)-okCount)

	return appCtx.Writer.Write(ctx, cfg.Options.ReportFile, strings.NewReader(sb.String()), "text/markdown")
}

// escapeCell はMarkdownの表を崩すパイプ文字と改行を無害化するのだ。
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// saveBatchImages は成功した項目の画像を連番付きのパスへ保存するのだ。
// 例: output/meme.png, 1 -> output/meme_1.png
func saveBatchImages(ctx context.Context, appCtx *builder.AppContext, outcomes []domain.BatchOutcome) error {
	basePath := appCtx.Options.OutputFile
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		indexedPath, err := urlpath.GenerateIndexedPath(basePath, o.Index+1)
		if err != nil {
			return fmt.Errorf("保存パスの生成に失敗したのだ: %w", err)
		}
		if err := saveImage(ctx, appCtx, o.Result.FinalImageURL, indexedPath); err != nil {
			slog.Warn("バッチ項目の画像保存に失敗したのだ", "item", o.Index+1, "error", err)
			continue
		}
		slog.Info("バッチ項目の画像を保存したのだ", "item", o.Index+1, "path", indexedPath)
	}
	return nil
}
