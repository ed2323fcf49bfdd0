// Package pipeline は、分類 → 整形 → 画像解決の一連の流れを束ね、
// 単発生成とバッチ生成の入り口を提供します。
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-meme-kit/pkg/domain"
)

// DefaultRateInterval はバッチ実行時のプロバイダ呼び出し間隔です。
const DefaultRateInterval = time.Second

// TemplateClassifier はテンプレート分類器との契約です。
type TemplateClassifier interface {
	Classify(ctx context.Context, text string, variantSeed int) (string, error)
}

// MemeResolver は画像リゾルバとの契約です。
type MemeResolver interface {
	Resolve(ctx context.Context, templateID, text string, skipFormatting, forceRegenerate bool) (domain.MemeResult, error)
}

// GenerateOpts は1回の生成リクエストの調整項目です。
type GenerateOpts struct {
	// TemplateID を指定すると分類をスキップしてそのテンプレートを使います。
	TemplateID string
	// SkipFormatting はテキストが既に " / " 区切りを含む場合に整形を省きます。
	SkipFormatting bool
	// VariantSeed が0以外のとき、分類のキャッシュを迂回して再抽選します。
	VariantSeed int
}

// Pipeline はミーム生成の全工程をオーケストレートする司令塔です。
type Pipeline struct {
	classifier TemplateClassifier
	resolver   MemeResolver
	limiter    *rate.Limiter
}

// Option は Pipeline の挙動を調整します。
type Option func(*Pipeline)

// WithRateInterval はバッチ時のプロバイダ呼び出し間隔を上書きします。
// 0以下で無制限になります。
func WithRateInterval(interval time.Duration) Option {
	return func(p *Pipeline) {
		if interval > 0 {
			p.limiter = rate.NewLimiter(rate.Every(interval), 2)
		} else {
			p.limiter = nil
		}
	}
}

// New は Pipeline を初期化します。
func New(cl TemplateClassifier, r MemeResolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: cl,
		resolver:   r,
		limiter:    rate.NewLimiter(rate.Every(DefaultRateInterval), 2),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GenerateMeme は選択テキスト1件をミームへ変換します。
// テンプレート未指定なら分類器に選ばせ、解決結果を返します。
func (p *Pipeline) GenerateMeme(ctx context.Context, text string, opts GenerateOpts) (domain.MemeResult, error) {
	templateID := opts.TemplateID
	if templateID == "" {
		id, err := p.classifier.Classify(ctx, text, opts.VariantSeed)
		if err != nil {
			return domain.MemeResult{}, fmt.Errorf("テンプレートの選定に失敗しました: %w", err)
		}
		templateID = id
	}

	forceRegenerate := opts.VariantSeed != 0
	result, err := p.resolver.Resolve(ctx, templateID, text, opts.SkipFormatting, forceRegenerate)
	if err != nil {
		return domain.MemeResult{}, err
	}
	return result, nil
}

// GenerateBatch は複数の入力を独立したパイプライン実行として並列に処理します。
// 各項目の失敗はその項目の結果にだけ記録され、兄弟の実行を打ち切りません。
// すべて完了してから成否一覧を返します。
func (p *Pipeline) GenerateBatch(ctx context.Context, texts []string, opts GenerateOpts) []domain.BatchOutcome {
	outcomes := make([]domain.BatchOutcome, len(texts))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, text := range texts {
		eg.Go(func() error {
			if p.limiter != nil {
				if err := p.limiter.Wait(egCtx); err != nil {
					outcomes[i] = domain.BatchOutcome{Index: i, Input: text, Err: err}
					return nil
				}
			}

			logger := slog.With("item", i+1, "total", len(texts))
			logger.Info("バッチ項目の生成を開始します")

			startTime := time.Now()
			result, err := p.GenerateMeme(egCtx, text, opts)
			if err != nil {
				// エラーは項目ごとに隔離する。グループ全体は止めない契約なのだ。
				logger.Warn("バッチ項目が失敗しました", "error", err)
				outcomes[i] = domain.BatchOutcome{Index: i, Input: text, Err: err}
				return nil
			}

			logger.Info("バッチ項目の生成が完了しました",
				"template", result.TemplateID,
				"duration", time.Since(startTime).Round(time.Millisecond))
			outcomes[i] = domain.BatchOutcome{Index: i, Input: text, Result: &result}
			return nil
		})
	}

	// ワーカーはエラーを返さないため Wait は常に nil ですが、
	// 将来の変更に備えて作法どおり待ち合わせます。
	_ = eg.Wait()
	return outcomes
}
