// Package builder は設定からコラボレーターとサービスを組み立てます。
package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/vision-weaver-kit/internal/config"
	"github.com/shouni/vision-weaver-kit/internal/service"
	"github.com/shouni/vision-weaver-kit/internal/store"
	"github.com/shouni/vision-weaver-kit/pkg/adapters"
	"github.com/shouni/vision-weaver-kit/pkg/export"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY が設定されていません")
	}
	const defaultGeminiTemperature = float32(0.2)
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// InitializeImagenClient は Imagen 用の genai クライアントを初期化します。
func InitializeImagenClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Imagenクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// BuildTagExpander はキャッシュ付きのタグ展開を構築します。
func BuildTagExpander(appCtx *AppContext) (adapters.TagExpander, error) {
	expander, err := adapters.NewGeminiTagExpander(appCtx.aiClient, appCtx.Config.TextModel,
		adapters.WithFallbackRecorder(appCtx.Metrics))
	if err != nil {
		return nil, err
	}
	return adapters.NewCachedTagExpander(expander, appCtx.Cache, appCtx.Config.SearchCacheTTL)
}

// BuildSearchProvider はキャッシュ付きの Unsplash 検索を構築します。
func BuildSearchProvider(appCtx *AppContext) (adapters.ImageSearchProvider, error) {
	search, err := adapters.NewUnsplashSearchProvider(appCtx.httpClient, appCtx.Config.UnsplashBaseURL,
		appCtx.Config.UnsplashAccessKey, adapters.WithFallbackRecorder(appCtx.Metrics))
	if err != nil {
		return nil, err
	}
	return adapters.NewCachedSearchProvider(search, appCtx.Cache, appCtx.Config.SearchCacheTTL)
}

// BuildImageGenerator は IMAGE_BACKEND に応じた画像生成を構築します。
func BuildImageGenerator(ctx context.Context, appCtx *AppContext) (adapters.ImageGenerator, error) {
	cfg := appCtx.Config
	model := cfg.ResolvedImageModel()

	switch cfg.ImageBackend {
	case config.BackendGemini:
		core, err := adapters.NewGeminiImageCore(appCtx.httpClient, referenceReader(appCtx), appCtx.Cache, cfg.SearchCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("GeminiImageCoreの初期化に失敗しました: %w", err)
		}
		limiter := rate.NewLimiter(rate.Every(cfg.GenerationInterval), 2)
		if cfg.GenerationInterval == 0 {
			limiter = nil
		}
		return adapters.NewGeminiImageGenerator(core, appCtx.aiClient, model, limiter,
			adapters.WithFallbackRecorder(appCtx.Metrics))
	case config.BackendImagen:
		client, err := InitializeImagenClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return adapters.NewImagenGenerator(client.Models, model, adapters.WithFallbackRecorder(appCtx.Metrics))
	default:
		return nil, fmt.Errorf("未対応の画像バックエンドです: %s", cfg.ImageBackend)
	}
}

// referenceReader は Reader が nil のとき型付き nil を渡さないようにします。
func referenceReader(appCtx *AppContext) adapters.ReferenceReader {
	if appCtx.Reader == nil {
		return nil
	}
	return appCtx.Reader
}

// BuildWeaverService はセッションストアと3つのコラボレーターからサービスを構築します。
func BuildWeaverService(ctx context.Context, appCtx *AppContext) (*service.WeaverService, error) {
	st, err := store.NewSessionStore(appCtx.Config.SessionTTL)
	if err != nil {
		return nil, err
	}
	expander, err := BuildTagExpander(appCtx)
	if err != nil {
		return nil, fmt.Errorf("タグ展開の初期化に失敗しました: %w", err)
	}
	search, err := BuildSearchProvider(appCtx)
	if err != nil {
		return nil, fmt.Errorf("画像検索の初期化に失敗しました: %w", err)
	}
	generator, err := BuildImageGenerator(ctx, appCtx)
	if err != nil {
		return nil, fmt.Errorf("画像生成の初期化に失敗しました: %w", err)
	}
	return service.NewWeaverService(st, expander, search, generator,
		service.WithGenerationRecorder(appCtx.Metrics, appCtx.Config.ImageBackend))
}

// BuildExporter は生成画像の書き出しを構築します。
func BuildExporter(appCtx *AppContext) (*export.ImageExporter, error) {
	if appCtx.Writer == nil {
		return nil, errors.New("出力先の OutputWriter がありません")
	}
	return export.NewImageExporter(appCtx.Writer, appCtx.httpClient)
}
