// Package classifier は、入力テキストに最も合うミームテンプレートIDを
// 生成テキストプロバイダに選ばせます。
package classifier

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/shouni/go-meme-kit/pkg/cache"
	"github.com/shouni/go-meme-kit/pkg/domain"
	"github.com/shouni/go-meme-kit/pkg/gemini"
	"github.com/shouni/go-meme-kit/pkg/memerr"
)

//go:embed classify.tmpl
var classifyPrompt string

// 再生成時のサンプリング設定なのだ。多様性を上げるためのプロンプトレベルの
// ヒントであって、同じ答えが返る可能性は許容されます。
const (
	variantTemperature = float32(1.3)
	variantTopP        = float32(0.98)
)

// promptData は classify.tmpl へ渡すデータです。
type promptData struct {
	Templates     []domain.TemplateDescriptor
	WantDifferent bool
	InputText     string
}

// Classifier はキャッシュ付きのテンプレート分類器です。
// 分類結果は生テキストをキーにキャッシュされ、同一の選択範囲に対する
// 重複したプロバイダ呼び出しを避けます。
type Classifier struct {
	model    gemini.GenerativeModel
	registry *domain.Registry
	cache    *cache.Cache[string]
	tmpl     *template.Template
}

// Option は Classifier の挙動を調整します。
type Option func(*Classifier)

// WithCache は共有キャッシュインスタンスを注入します。
func WithCache(c *cache.Cache[string]) Option {
	return func(cl *Classifier) {
		if c != nil {
			cl.cache = c
		}
	}
}

// New は Classifier を初期化します。
func New(model gemini.GenerativeModel, registry *domain.Registry, opts ...Option) (*Classifier, error) {
	tmpl, err := template.New("classify").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(classifyPrompt)
	if err != nil {
		return nil, fmt.Errorf("分類プロンプトの解析に失敗しました: %w", err)
	}

	cl := &Classifier{
		model:    model,
		registry: registry,
		cache:    cache.New[string](cache.DefaultMaxSize, time.Hour),
		tmpl:     tmpl,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl, nil
}

// Classify はテキストに合うテンプレートIDを返します。
//
// variantSeed が 0 のときはキャッシュを参照し、ヒットすれば
// ネットワーク呼び出しなしで返します。0 以外（再生成）のときは
// キャッシュを読みも書きもせず、毎回プロバイダへ問い合わせます。
// 「もう一度」が常に新しい答えを試みるための契約です。
func (cl *Classifier) Classify(ctx context.Context, text string, variantSeed int) (string, error) {
	regenerate := variantSeed != 0

	if !regenerate {
		if cached, ok := cl.cache.Get(text); ok {
			slog.Debug("分類キャッシュにヒットしました", "template", cached)
			return cached, nil
		}
	}

	prompt, err := cl.buildPrompt(text, regenerate)
	if err != nil {
		return "", err
	}

	var genOpts []gemini.GenerateOption
	if regenerate {
		genOpts = append(genOpts,
			gemini.WithTemperature(variantTemperature),
			gemini.WithTopP(variantTopP),
		)
	}

	raw, err := cl.model.GenerateContent(ctx, prompt, genOpts...)
	if err != nil {
		if memerr.IsCritical(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", memerr.ErrClassificationFailed, err)
	}

	id := cleanResponse(raw)
	if id == "" {
		return "", fmt.Errorf("%w: 応答が空です", memerr.ErrClassificationFailed)
	}

	if !cl.registry.Known(id) {
		// 分類は曖昧な自然言語処理なので、リスト外のIDもそのまま返します。
		// 下流のレジストリフォールバックが受け止めます。
		slog.Debug("キュレーション外のテンプレートIDが返されました", "template", id)
	}

	if !regenerate {
		cl.cache.Set(text, id)
	}
	return id, nil
}

// buildPrompt はレジストリの一覧を埋め込んだ分類プロンプトを構築します。
// テンプレート一覧はID順に並べ、プロンプトを決定論的にします。
func (cl *Classifier) buildPrompt(text string, wantDifferent bool) (string, error) {
	templates := cl.registry.All()
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	var sb strings.Builder
	err := cl.tmpl.Execute(&sb, promptData{
		Templates:     templates,
		WantDifferent: wantDifferent,
		InputText:     text,
	})
	if err != nil {
		return "", fmt.Errorf("分類プロンプトの構築に失敗しました: %w", err)
	}
	return sb.String(), nil
}

// cleanResponse は応答からテンプレートIDだけを取り出します。
// コードフェンスや引用符、末尾の句点などのノイズを取り除きます。
func cleanResponse(raw string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	line = strings.Trim(line, "`\"'.,: ")
	return domain.NormalizeTemplateID(line)
}
