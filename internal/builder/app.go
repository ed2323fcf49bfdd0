package builder

import (
	"net/http"

	"github.com/shouni/go-meme-kit/internal/config"
	"github.com/shouni/go-meme-kit/pkg/domain"
	"github.com/shouni/go-meme-kit/pkg/pipeline"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config       *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、接続先など）。
	Options      config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です（テンプレート、言語など）。
	Reader       remoteio.InputReader   // Readerは、入力テキストや追加テンプレート定義の読み込みに使用する入力元です。
	Writer       remoteio.OutputWriter  // Writerは、解決した画像やレポートを保存するための出力先です。
	Registry     *domain.Registry       // Registryは、テンプレートIDから描画規約を引く読み取り専用テーブルです。
	MemePipeline *pipeline.Pipeline     // MemePipelineは、分類・整形・画像解決を束ねた生成パイプラインです。
	httpClient   *http.Client           // httpClient は外部APIとの通信に使う共通クライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	httpClient *http.Client,
	reader remoteio.InputReader,
	writer remoteio.OutputWriter,
	registry *domain.Registry,
	memePipeline *pipeline.Pipeline,
) AppContext {
	return AppContext{
		Config:       cfg,
		Options:      cfg.Options,
		Reader:       reader,
		Writer:       writer,
		Registry:     registry,
		MemePipeline: memePipeline,
		httpClient:   httpClient,
	}
}

// HTTPClient は共通のHTTPクライアントを返すのだ。画像ダウンロードなどに使う。
func (a *AppContext) HTTPClient() *http.Client {
	return a.httpClient
}
