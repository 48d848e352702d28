package adapters

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"google.golang.org/genai"
)

// TagExpander はプロンプトを概念タグの一覧に広げます。
// 失敗しても呼び出し側にエラーは返さず、代替のタグを返します。
type TagExpander interface {
	Expand(ctx context.Context, prompt string) []string
}

// ImageSearchProvider はクエリからムードボード用の画像を探します。
// 失敗時は決定的なプレースホルダー画像を返します。
type ImageSearchProvider interface {
	Search(ctx context.Context, query string) []domain.InspirationImage
}

// ImageGenerator は合成済みプロンプトから3枚の画像を生成します。
// 失敗時はシード付きのプレースホルダーを返します。
type ImageGenerator interface {
	Generate(ctx context.Context, req domain.ImageGenerationRequest) []domain.GeneratedImage
}

// TextModel はタグ展開に使う Gemini テキストモデルです。gemini.GenerativeModel が満たします。
type TextModel interface {
	GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error)
}

// ImageModel は Gemini 画像モデルです。gemini.GenerativeModel が満たします。
type ImageModel interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// ImagenModels は genai の Models のうち Imagen 生成だけを切り出したものです。
type ImagenModels interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImageCacher は、画像や検索結果をキャッシュするためのインターフェースです。
// go-cache の *cache.Cache がそのまま満たします。
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// HTTPClient は URL からバイト列を取得します。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// RequestDoer は組み立て済みのリクエストを実行し、本文を返します。
type RequestDoer interface {
	DoRequest(req *http.Request) ([]byte, error)
}

// ReferenceReader は gs:// やローカルの参照画像を開きます。remoteio.InputReader が満たします。
type ReferenceReader interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FallbackRecorder は代替結果への切り替えを記録します。
type FallbackRecorder interface {
	RecordFallback(ctx context.Context, collaborator, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordFallback(context.Context, string, string) {}
