// Package formatter は、生テキストをテンプレート規約に沿った
// "top / bottom" 形式のキャプションへ整形します。
package formatter

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/shouni/go-meme-kit/pkg/cache"
	"github.com/shouni/go-meme-kit/pkg/domain"
	"github.com/shouni/go-meme-kit/pkg/gemini"
	"github.com/shouni/go-meme-kit/pkg/memerr"
	"github.com/shouni/go-meme-kit/pkg/textnorm"
)

//go:embed caption.tmpl
var captionPrompt string

// デフォルト値の定義なのだ
const (
	// DefaultPartLimit は各スロットの文字数上限です。
	DefaultPartLimit = 35
	// DefaultLanguage は出力言語の既定値です。
	DefaultLanguage = "en"
	// Separator は正規のスロット区切りです。
	Separator = " / "

	// cacheKeyPrefixLen はキャッシュキーに採用する生テキストの先頭文字数です。
	cacheKeyPrefixLen = 50
)

// separatorCandidates は応答行のゆらぎを吸収する区切り候補です。順序が重要です。
var separatorCandidates = []string{" / ", "/", " /"}

// promptData は caption.tmpl へ渡すデータです。
type promptData struct {
	TemplateName     string
	LayoutConvention string
	PartLimit        int
	Language         string
	InputText        string
}

// Formatter はテンプレート規約を考慮したキャプション整形器です。
// 整形結果は (テンプレートID, テキスト先頭50文字) をキーにキャッシュし、
// 同一選択範囲への再呼び出しでネットワーク往復を省きます。
type Formatter struct {
	model    gemini.GenerativeModel
	registry *domain.Registry
	cache    *cache.Cache[string]
	tmpl     *template.Template

	language  string
	partLimit int
}

// Option は Formatter の挙動を調整します。
type Option func(*Formatter)

// WithLanguage は出力言語の既定値を上書きします。
func WithLanguage(lang string) Option {
	return func(f *Formatter) {
		if lang != "" {
			f.language = lang
		}
	}
}

// WithPartLimit はスロットごとの文字数上限を上書きします。
func WithPartLimit(limit int) Option {
	return func(f *Formatter) {
		if limit > 0 {
			f.partLimit = limit
		}
	}
}

// WithCache は共有キャッシュインスタンスを注入します。
func WithCache(c *cache.Cache[string]) Option {
	return func(f *Formatter) {
		if c != nil {
			f.cache = c
		}
	}
}

// New は Formatter を初期化します。
func New(model gemini.GenerativeModel, registry *domain.Registry, opts ...Option) (*Formatter, error) {
	tmpl, err := template.New("caption").Parse(captionPrompt)
	if err != nil {
		return nil, fmt.Errorf("キャプションプロンプトの解析に失敗しました: %w", err)
	}

	f := &Formatter{
		model:     model,
		registry:  registry,
		cache:     cache.New[string](cache.DefaultMaxSize, time.Hour),
		tmpl:      tmpl,
		language:  DefaultLanguage,
		partLimit: DefaultPartLimit,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Format は生テキストをテンプレート規約に沿った "top / bottom" 文字列へ整形します。
// キャッシュヒット時はネットワーク呼び出しを行いません。
func (f *Formatter) Format(ctx context.Context, req domain.FormatRequest) (string, error) {
	key := f.cacheKey(req.TemplateID, req.RawText)
	if cached, ok := f.cache.Get(key); ok {
		slog.Debug("キャプションキャッシュにヒットしました", "template", req.TemplateID)
		return cached, nil
	}

	descriptor := f.registry.Describe(req.TemplateID)
	prompt, err := f.buildPrompt(descriptor, req)
	if err != nil {
		return "", err
	}

	raw, err := f.model.GenerateContent(ctx, prompt)
	if err != nil {
		// クリティカル系（429・キー設定）は種別を変えずに伝播させる契約です。
		if memerr.IsCritical(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", memerr.ErrFormattingFailed, err)
	}

	caption, err := f.parseResponse(raw)
	if err != nil {
		return "", err
	}

	f.cache.Set(key, caption)
	return caption, nil
}

// cacheKey はテンプレートIDとテキスト先頭の組からキーを作ります。
// 同じテキストでもテンプレートが違えば別のキャプションになるためです。
func (f *Formatter) cacheKey(templateID, rawText string) string {
	prefix := []rune(rawText)
	if len(prefix) > cacheKeyPrefixLen {
		prefix = prefix[:cacheKeyPrefixLen]
	}
	return domain.NormalizeTemplateID(templateID) + "#" + string(prefix)
}

// buildPrompt はテンプレート規約を埋め込んだ整形プロンプトを構築します。
func (f *Formatter) buildPrompt(descriptor domain.TemplateDescriptor, req domain.FormatRequest) (string, error) {
	lang := req.Language
	if lang == "" {
		lang = f.language
	}

	name := descriptor.DisplayName
	if name == "" {
		name = descriptor.ID
	}

	var sb strings.Builder
	err := f.tmpl.Execute(&sb, promptData{
		TemplateName:     name,
		LayoutConvention: descriptor.LayoutConvention,
		PartLimit:        f.partLimit,
		Language:         lang,
		InputText:        req.RawText,
	})
	if err != nil {
		return "", fmt.Errorf("整形プロンプトの構築に失敗しました: %w", err)
	}
	return sb.String(), nil
}

// parseResponse は応答の最初の行を取り出し、区切りでスロットに分割して
// 正規形 "part1 / part2" に組み直します。
func (f *Formatter) parseResponse(raw string) (string, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	line = strings.Trim(line, `"'`)
	line = textnorm.Clean(textnorm.DecodeHTMLEntities(line))

	for _, sep := range separatorCandidates {
		before, after, found := strings.Cut(line, sep)
		if !found {
			continue
		}
		part1 := strings.TrimSpace(before)
		part2 := strings.TrimSpace(after)
		if part1 == "" || part2 == "" {
			continue
		}
		return truncate(part1, f.partLimit) + Separator + truncate(part2, f.partLimit), nil
	}

	// 区切りが見つからない失敗は黙ってデフォルトに倒しません。
	// 呼び出し元がレートリミットとの区別に使うためです。
	return "", fmt.Errorf("%w: 応答に区切りが含まれていません", memerr.ErrFormattingFailed)
}

// truncate はルーン単位で上限まで切り詰めます。
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
