package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/vision-weaver-kit/internal/config"
	"github.com/shouni/vision-weaver-kit/internal/telemetry"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config        // 環境変数と設定ファイルから読み込んだ設定
	Reader  remoteio.InputReader  // セッション JSON や gs:// の参照画像を読む入力元。GCS が使えなければローカルのみ
	Writer  remoteio.OutputWriter // 生成画像の保存先。GCS が使えなければローカルのみ
	Metrics *telemetry.Metrics    // フォールバックと生成時間の計測
	Cache   *cache.Cache          // 参照画像・検索結果・タグ展開の共有キャッシュ

	aiClient   gemini.GenerativeModel // Gemini の通信に使う共通クライアント
	httpClient httpkit.Requester      // 外部APIとの通信に使う共通クライアント
	closer     io.Closer              // GCS ファクトリ。ローカルのみなら nil
}

// NewAppContext は設定から共有クライアントを初期化します。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	httpClient := httpkit.New(cfg.HTTPTimeout)

	aiClient, err := InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("メトリクスの初期化に失敗しました: %w", err)
	}

	appCtx := &AppContext{
		Config:     cfg,
		Metrics:    metrics,
		Cache:      cache.New(cfg.SearchCacheTTL, 2*cfg.SearchCacheTTL),
		aiClient:   aiClient,
		httpClient: httpClient,
	}

	// GCS の認証情報がない環境でもローカルの入出力だけで動かせるようにする
	factory, err := gcsfactory.New(ctx)
	if err != nil {
		slog.WarnContext(ctx, "GCSクライアントの初期化に失敗しました。ローカルの入出力のみ使えます", "error", err)
		appCtx.Reader, appCtx.Writer = localIO()
		return appCtx, nil
	}
	appCtx.closer = factory

	localReader, localWriter := localIO()
	if reader, err := factory.InputReader(); err != nil {
		slog.WarnContext(ctx, "InputReaderの取得に失敗しました。ローカルのみ読み込めます", "error", err)
		appCtx.Reader = localReader
	} else {
		appCtx.Reader = reader
	}
	if writer, err := factory.OutputWriter(); err != nil {
		slog.WarnContext(ctx, "OutputWriterの取得に失敗しました。ローカルのみ保存できます", "error", err)
		appCtx.Writer = localWriter
	} else {
		appCtx.Writer = writer
	}
	return appCtx, nil
}

// localIO はクラウドのクライアントを持たない、ローカルファイル専用の入出力を返します。
func localIO() (remoteio.InputReader, remoteio.OutputWriter) {
	return remoteio.NewUniversalInputReader(nil, nil), remoteio.NewUniversalIOWriter(nil, nil)
}

// Close は GCS クライアントを解放します。
func (a *AppContext) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
