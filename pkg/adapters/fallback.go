package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	collaboratorTags     = "tag_expander"
	collaboratorSearch   = "image_search"
	collaboratorGenerate = "image_generator"

	fallbackSearchCount   = 20
	fallbackIDPrefix      = "fallback-"
	generatedImageCount   = 3
	placeholderImageBase  = "https://picsum.photos/seed/"
	instrumentationScope  = "github.com/shouni/vision-weaver-kit/pkg/adapters"
	fallbackReasonAttrKey = "fallback.reason"
)

var tracer = otel.Tracer(instrumentationScope)

// FallbackTags はタグ展開に失敗したときの固定タグです。
func FallbackTags() []string {
	return []string{"fantasy art", "epic", "dragon", "mountain", "glowing", "magic", "cinematic lighting"}
}

// FallbackImages はクエリから決まる20枚のプレースホルダー画像を返します。
// 同じクエリなら何度呼んでも同じ結果になります。
func FallbackImages(query string) []domain.InspirationImage {
	seed := url.PathEscape(query)
	images := make([]domain.InspirationImage, fallbackSearchCount)
	for i := range images {
		images[i] = domain.InspirationImage{
			ID: fmt.Sprintf("%s%s-%d", fallbackIDPrefix, query, i),
			URLs: domain.ImageURLs{
				Thumb:   fmt.Sprintf("%s%s%d/200", placeholderImageBase, seed, i),
				Regular: fmt.Sprintf("%s%s%d/400", placeholderImageBase, seed, i),
			},
			AltDescription: domain.StringPtr("a random image for query: " + query),
		}
	}
	return images
}

// IsFallbackImage は FallbackImages が作った画像かどうかを返します。
func IsFallbackImage(img domain.InspirationImage) bool {
	return strings.HasPrefix(img.ID, fallbackIDPrefix)
}

// FallbackGenerated は生成失敗時の3枚のプレースホルダーです。
func FallbackGenerated(seed int64) []domain.GeneratedImage {
	out := make([]domain.GeneratedImage, generatedImageCount)
	for i := range out {
		out[i] = fallbackGeneratedAt(i, seed)
	}
	return out
}

func fallbackGeneratedAt(i int, seed int64) domain.GeneratedImage {
	return domain.GeneratedImage{
		Src:  fmt.Sprintf("%serror%d/512", placeholderImageBase, i+1),
		Seed: seed,
	}
}

// degrade は代替結果へ切り替えたことをログ、スパン、メトリクスに残します。
func degrade(ctx context.Context, rec FallbackRecorder, collaborator, reason string, err error, attrs ...any) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String(fallbackReasonAttrKey, reason))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
	}
	rec.RecordFallback(ctx, collaborator, reason)

	args := append([]any{"collaborator", collaborator, "reason", reason}, attrs...)
	if err != nil {
		args = append(args, "error", err)
	}
	slog.WarnContext(ctx, "代替結果で続行します", args...)
}
