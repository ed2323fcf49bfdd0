package builder

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/shouni/go-meme-kit/internal/config"
	"github.com/shouni/go-meme-kit/pkg/classifier"
	"github.com/shouni/go-meme-kit/pkg/domain"
	"github.com/shouni/go-meme-kit/pkg/formatter"
	"github.com/shouni/go-meme-kit/pkg/gemini"
	"github.com/shouni/go-meme-kit/pkg/memegen"
	"github.com/shouni/go-meme-kit/pkg/pipeline"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// InitializeAIClient は gemini クライアントを初期化します。
// APIキーの不在・形式不正はここで即座にエラーになります。
func InitializeAIClient(cfg *config.Config, httpClient *http.Client) (gemini.GenerativeModel, error) {
	aiClient, err := gemini.NewClient(gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// BuildRegistry はビルトインのテンプレートテーブルに、指定があれば
// 追加定義のJSONを重ねてレジストリを構築します。
func BuildRegistry(ctx context.Context, reader remoteio.InputReader, templatesFile string) (*domain.Registry, error) {
	if templatesFile == "" {
		return domain.DefaultRegistry(), nil
	}

	rc, err := reader.Open(ctx, templatesFile)
	if err != nil {
		return nil, fmt.Errorf("テンプレート定義 '%s' の読み込みに失敗しました: %w", templatesFile, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("テンプレート定義 '%s' の読み取りに失敗しました: %w", templatesFile, err)
	}

	extra, err := domain.GetTemplates(data)
	if err != nil {
		return nil, err
	}

	// ビルトインの後に重ねるので、同じIDは追加定義が勝つのだ
	merged := append(domain.DefaultRegistry().All(), extra...)
	return domain.NewRegistry(merged), nil
}

// InitializeMemePipeline は分類器・整形器・リゾルバを組み上げて
// 生成パイプラインを初期化します。
func InitializeMemePipeline(
	cfg *config.Config,
	httpClient *http.Client,
	aiClient gemini.GenerativeModel,
	registry *domain.Registry,
) (*pipeline.Pipeline, error) {
	captionFormatter, err := formatter.New(aiClient, registry,
		formatter.WithLanguage(cfg.DisplayLanguage),
	)
	if err != nil {
		return nil, fmt.Errorf("整形器の初期化に失敗しました: %w", err)
	}

	templateClassifier, err := classifier.New(aiClient, registry)
	if err != nil {
		return nil, fmt.Errorf("分類器の初期化に失敗しました: %w", err)
	}

	resolver := memegen.New(captionFormatter,
		memegen.WithHTTPClient(httpClient),
		memegen.WithBaseURL(cfg.MemeAPIBase),
		memegen.WithFallbackImageURL(cfg.FallbackImageURL),
	)

	pipelineOpts := []pipeline.Option{}
	if cfg.Options.RateInterval > 0 {
		pipelineOpts = append(pipelineOpts, pipeline.WithRateInterval(cfg.Options.RateInterval))
	}

	return pipeline.New(templateClassifier, resolver, pipelineOpts...), nil
}
