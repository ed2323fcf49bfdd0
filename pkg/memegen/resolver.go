// Package memegen は、整形済みキャプションをテンプレート別のレイアウト規則で
// top/bottom スロットへ割り付け、画像サービスのURLを解決します。
package memegen

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/shouni/go-meme-kit/pkg/domain"
	"github.com/shouni/go-meme-kit/pkg/memerr"
	"github.com/shouni/go-meme-kit/pkg/textnorm"
)

// デフォルト値の定義なのだ
const (
	// DefaultBaseURL は画像レンダリングサービスのベースURLです。
	DefaultBaseURL = "https://api.memegen.link/images"
	// DefaultFallbackImageURL はプローブ失敗時に返す固定のプレースホルダーです。
	DefaultFallbackImageURL = "https://api.memegen.link/images/grave/meme_machine/out_of_order.png"
	// DefaultProbeTimeout は存在確認プローブ1回の上限です。
	DefaultProbeTimeout = 8 * time.Second

	// SingleSlotTemplateID は単文テンプレートのIDです。topスロットには
	// 固定のプレースホルダーを置き、本文はbottomだけに流し込みます。
	SingleSlotTemplateID  = "cmm"
	singleSlotPlaceholder = "~"

	// fallbackBottomText は使える部分が残らなかったときの底値です。
	fallbackBottomText = "yes"

	// probeTTL はプローブ成功の記憶期間です。キャプションキャッシュより
	// 短いのは、画像サービス側のテンプレート可用性が独立に変わるためです。
	probeTTL = 5 * time.Minute
)

// CaptionFormatter はキャプション整形器との契約です。
type CaptionFormatter interface {
	Format(ctx context.Context, req domain.FormatRequest) (string, error)
}

// Resolver はテンプレートIDとテキストから最終的な画像URLを導きます。
type Resolver struct {
	httpClient  *http.Client
	baseURL     string
	fallbackURL string
	formatter   CaptionFormatter
	// probeCache は成功したプローブだけを短期間記憶し、同じテンプレートの
	// 再生成時に重複したHEADリクエストを省きます。
	probeCache *gocache.Cache
}

// Option は Resolver の挙動を調整します。
type Option func(*Resolver)

// WithHTTPClient はプローブに使うHTTPクライアントを注入します。
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// WithBaseURL は画像サービスのベースURLを上書きします。
func WithBaseURL(base string) Option {
	return func(r *Resolver) {
		if base != "" {
			r.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithFallbackImageURL はプレースホルダー画像URLを上書きします。
func WithFallbackImageURL(u string) Option {
	return func(r *Resolver) {
		if u != "" {
			r.fallbackURL = u
		}
	}
}

// New は Resolver を初期化します。
func New(formatter CaptionFormatter, opts ...Option) *Resolver {
	r := &Resolver{
		httpClient:  &http.Client{Timeout: DefaultProbeTimeout},
		baseURL:     DefaultBaseURL,
		fallbackURL: DefaultFallbackImageURL,
		formatter:   formatter,
		probeCache:  gocache.New(30*time.Minute, time.Hour),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve はテンプレートIDとテキストから最終画像URLと表示テキストを解決します。
//
// skipFormatting が真でテキストが既に " / " 区切りを含む場合は整形を省きます。
// forceRegenerate はプローブ記憶を迂回する再生成ヒントです（分類の再抽選は
// 上流のパイプラインが担います）。
//
// プローブが 429 を返した場合はレートリミットとしてそのまま伝播します。
// それ以外のプローブ失敗だけが、プレースホルダー画像と元の未加工テキストへの
// フォールバックに吸収されます。部分的失敗を握りつぶすのはこの一箇所だけです。
func (r *Resolver) Resolve(ctx context.Context, templateID, text string, skipFormatting, forceRegenerate bool) (domain.MemeResult, error) {
	id := domain.NormalizeTemplateID(templateID)

	caption, err := r.captionFor(ctx, id, text, skipFormatting)
	if err != nil {
		return domain.MemeResult{}, err
	}

	caption = textnorm.NormalizeQuotes(caption)
	top, bottom := deriveSlots(id, caption)

	targetURL := r.buildURL(id, top, bottom)

	if err := r.probe(ctx, targetURL, forceRegenerate); err != nil {
		if memerr.IsCritical(err) {
			return domain.MemeResult{}, err
		}
		slog.Warn("画像プローブに失敗したため、プレースホルダーへ退避します",
			"template", id, "url", targetURL, "error", err)
		return domain.MemeResult{
			FinalImageURL:  r.fallbackURL,
			SourceImageURL: r.fallbackURL,
			DisplayText:    text, // フォールバック時は未加工の入力を見せる契約です
			TemplateID:     id,
			Fallback:       true,
		}, nil
	}

	return domain.MemeResult{
		FinalImageURL:  targetURL,
		SourceImageURL: targetURL,
		DisplayText:    caption,
		TemplateID:     id,
	}, nil
}

// captionFor は必要に応じて整形器を呼び、スロット割り付け前のキャプションを返します。
func (r *Resolver) captionFor(ctx context.Context, id, text string, skipFormatting bool) (string, error) {
	if skipFormatting && strings.Contains(text, " / ") {
		return text, nil
	}
	caption, err := r.formatter.Format(ctx, domain.FormatRequest{
		RawText:    text,
		TemplateID: id,
	})
	if err != nil {
		return "", err
	}
	return caption, nil
}

// deriveSlots はテンプレート別のレイアウト規則でキャプションをスロットへ割り付けます。
func deriveSlots(id, caption string) (top, bottom string) {
	parts := splitParts(caption)

	if id == SingleSlotTemplateID {
		// 単文テンプレート: 本文はすべてbottomへ
		return singleSlotPlaceholder, strings.Join(parts, " ")
	}

	switch {
	case len(parts) >= 2:
		return parts[0], strings.Join(parts[1:], " ")
	case len(parts) == 1:
		// 区切りのない1文は単語の中間（切り上げ）で折り返す
		words := strings.Fields(parts[0])
		mid := (len(words) + 1) / 2
		top = strings.Join(words[:mid], " ")
		bottom = strings.Join(words[mid:], " ")
		if bottom == "" {
			bottom = fallbackBottomText
		}
		return top, bottom
	default:
		return strings.TrimSpace(caption), fallbackBottomText
	}
}

// splitParts は " / " でキャプションを分割し、空の断片を捨てます。
func splitParts(caption string) []string {
	raw := strings.Split(caption, " / ")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// buildURL は画像サービスのURLを組み立てます。単文テンプレートは
// bottomだけの2セグメント形式になります。
func (r *Resolver) buildURL(id, top, bottom string) string {
	if id == SingleSlotTemplateID {
		return fmt.Sprintf("%s/%s/%s.png", r.baseURL, id, textnorm.URLSlot(bottom))
	}
	return fmt.Sprintf("%s/%s/%s/%s.png", r.baseURL, id, textnorm.URLSlot(top), textnorm.URLSlot(bottom))
}

// probe は対象URLへ軽量な存在確認（HEAD）を発行します。
// 成功は短期間記憶し、forceRegenerate のときは記憶を迂回します。
func (r *Resolver) probe(ctx context.Context, targetURL string, forceRegenerate bool) error {
	if !forceRegenerate {
		if _, ok := r.probeCache.Get(targetURL); ok {
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return fmt.Errorf("プローブリクエストの構築に失敗しました: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", memerr.ErrTemplateUnavailable, err)
	}
	defer resp.Body.Close()

	// ここでも429はステータスコードだけで判定します。
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w (HTTP 429)", memerr.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w (HTTP %d)", memerr.ErrTemplateUnavailable, resp.StatusCode)
	}

	r.probeCache.Set(targetURL, true, probeTTL)
	return nil
}
