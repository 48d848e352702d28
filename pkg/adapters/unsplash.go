package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultUnsplashBaseURL = "https://api.unsplash.com"
	unsplashPerPage        = 20
)

// UnsplashSearchProvider は Unsplash の検索 API でムードボード画像を探します。
// アクセスキーが無い場合は API を呼ばずにプレースホルダーを返します。
type UnsplashSearchProvider struct {
	client    RequestDoer
	baseURL   string
	accessKey string
	opts      options
}

// NewUnsplashSearchProvider は UnsplashSearchProvider を初期化します。
func NewUnsplashSearchProvider(client RequestDoer, baseURL, accessKey string, opts ...Option) (*UnsplashSearchProvider, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	if baseURL == "" {
		baseURL = DefaultUnsplashBaseURL
	}
	return &UnsplashSearchProvider{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		opts:      buildOptions(opts),
	}, nil
}

type unsplashSearchResponse struct {
	Results []domain.InspirationImage `json:"results"`
	Errors  []string                  `json:"errors"`
}

// Search は最大20件の正方形の画像を返します。
func (p *UnsplashSearchProvider) Search(ctx context.Context, query string) []domain.InspirationImage {
	ctx, span := tracer.Start(ctx, "UnsplashSearchProvider.Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	if p.accessKey == "" {
		degrade(ctx, p.opts.recorder, collaboratorSearch, "missing_access_key", nil, "query", query)
		return FallbackImages(query)
	}

	images, err := p.search(ctx, query)
	if err != nil {
		degrade(ctx, p.opts.recorder, collaboratorSearch, "unsplash_request_failed", err, "query", query)
		return FallbackImages(query)
	}
	span.SetAttributes(attribute.Int("results", len(images)))
	return images
}

func (p *UnsplashSearchProvider) search(ctx context.Context, query string) ([]domain.InspirationImage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", fmt.Sprint(unsplashPerPage))
	params.Set("orientation", "squarish")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)
	req.Header.Set("Accept-Version", "v1")

	body, err := p.client.DoRequest(req)
	if err != nil {
		return nil, err
	}

	var payload unsplashSearchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("検索結果の解析に失敗しました: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("Unsplash API エラー: %s", strings.Join(payload.Errors, "; "))
	}

	images := make([]domain.InspirationImage, 0, min(len(payload.Results), unsplashPerPage))
	for _, img := range payload.Results {
		if img.ID == "" {
			continue
		}
		images = append(images, img)
		if len(images) == unsplashPerPage {
			break
		}
	}
	return images, nil
}
