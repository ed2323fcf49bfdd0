// Package gemini は、生成テキストプロバイダへの最小限のRESTクライアントです。
//
// SDKを介さず素のHTTPで呼び出すのは、レスポンスのステータスコードを
// 発生地点でエラー種別（クリティカル/回復可能）へ変換するためです。
// 429 の判定はここで一度だけ行われ、以降のレイヤーは memerr の種別だけを見ます。
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/shouni/go-meme-kit/pkg/memerr"
)

// デフォルト値の定義なのだ
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-3-flash-preview"
	// DefaultTimeout はプロバイダ呼び出し1回の上限です。タイムアウトは
	// 汎用のネットワーク失敗として扱い、独自の種別は与えません。
	DefaultTimeout = 10 * time.Second

	defaultTemperature = float32(0.7)
	defaultTopP        = float32(0.9)
	defaultTopK        = int32(40)
)

// apiKeyRegex はGeminiのAPIキーの固定形式チェックです。
var apiKeyRegex = regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`)

// GenerativeModel はテキスト生成プロバイダとの契約です。
// 整形器と分類器はこのインターフェースにのみ依存します。
type GenerativeModel interface {
	GenerateContent(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
}

// Config はクライアントの接続設定です。
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// HTTPClient を指定しない場合は DefaultTimeout 付きのクライアントを使います。
	HTTPClient *http.Client
}

// Client は GenerativeModel のHTTP実装です。
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient は設定を検証してクライアントを生成します。
// APIキーの不在・形式不正は再試行不可のエラーとして即座に返します。
func NewClient(cfg Config) (*Client, error) {
	if err := ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
	}, nil
}

// ValidateAPIKey はキーの存在と固定形式を検査します。
func ValidateAPIKey(key string) error {
	if key == "" {
		return memerr.ErrNoAPIKey
	}
	if !apiKeyRegex.MatchString(key) {
		return memerr.ErrInvalidAPIKey
	}
	return nil
}

// generateOptions は1回の生成リクエストのサンプリング設定です。
type generateOptions struct {
	temperature     float32
	topP            float32
	topK            int32
	maxOutputTokens int32
}

// GenerateOption はサンプリング設定を上書きする関数型オプションです。
type GenerateOption func(*generateOptions)

// WithTemperature は温度を指定します。
func WithTemperature(t float32) GenerateOption {
	return func(o *generateOptions) { o.temperature = t }
}

// WithTopP は top-p を指定します。
func WithTopP(p float32) GenerateOption {
	return func(o *generateOptions) { o.topP = p }
}

// WithTopK は top-k を指定します。
func WithTopK(k int32) GenerateOption {
	return func(o *generateOptions) { o.topK = k }
}

// WithMaxOutputTokens は出力トークン数の上限を指定します。
func WithMaxOutputTokens(n int32) GenerateOption {
	return func(o *generateOptions) { o.maxOutputTokens = n }
}

// ワイヤー形式の定義（spec: generateContent REST API）なのだ
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP"`
	TopK            int32   `json:"topK"`
	MaxOutputTokens int32   `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates,omitempty"`
}

// GenerateContent はプロンプトを送信し、最初の候補テキストを返します。
func (c *Client) GenerateContent(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	o := generateOptions{
		temperature: defaultTemperature,
		topP:        defaultTopP,
		topK:        defaultTopK,
	}
	for _, opt := range opts {
		opt(&o)
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     o.temperature,
			TopP:            o.topP,
			TopK:            o.topK,
			MaxOutputTokens: o.maxOutputTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("リクエストの構築に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// タイムアウトもここに含まれます。診断用に原因は保持しつつ、
		// 制御フロー上は汎用のネットワーク失敗です。
		return "", fmt.Errorf("プロバイダへのリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("プロバイダ応答の読み取りに失敗しました: %w", err)
	}

	// ステータスコードが唯一の権威ある信号。メッセージ文字列は照合しません。
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w (HTTP 429)", memerr.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("プロバイダがエラーを返しました (HTTP %d)", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", memerr.ErrInvalidResponse, err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("プロバイダがエラーを返しました: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: 候補テキストが空です", memerr.ErrInvalidResponse)
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
