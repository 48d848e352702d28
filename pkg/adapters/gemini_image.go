package adapters

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/vision-weaver-kit/pkg/composer"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"github.com/shouni/vision-weaver-kit/pkg/imgutil"
	"github.com/shouni/vision-weaver-kit/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const defaultAspectRatio = "1:1"

// GeminiImageGenerator は Gemini 画像モデルで3枚を並列に生成します。
// 構図ガイドがあれば参照画像パーツとして送ります。
type GeminiImageGenerator struct {
	core    *GeminiImageCore
	model   ImageModel
	name    string
	limiter *rate.Limiter
	opts    options
}

// NewGeminiImageGenerator は依存関係を注入して初期化します。limiter が nil なら制限しません。
func NewGeminiImageGenerator(core *GeminiImageCore, model ImageModel, modelName string, limiter *rate.Limiter, opts ...Option) (*GeminiImageGenerator, error) {
	if core == nil {
		return nil, errors.New("core is required")
	}
	if model == nil {
		return nil, errors.New("model is required")
	}
	if modelName == "" {
		return nil, errors.New("modelName is required")
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, generatedImageCount)
	}
	return &GeminiImageGenerator{
		core:    core,
		model:   model,
		name:    modelName,
		limiter: limiter,
		opts:    buildOptions(opts),
	}, nil
}

// Generate は3枚の画像を返します。失敗した枠はプレースホルダーで埋めます。
func (g *GeminiImageGenerator) Generate(ctx context.Context, req domain.ImageGenerationRequest) []domain.GeneratedImage {
	ctx, span := tracer.Start(ctx, "GeminiImageGenerator.Generate")
	defer span.End()

	seed := utils.DereferenceSeed(req.Seed)
	span.SetAttributes(attribute.String("model", g.name), attribute.Int64("seed", seed), attribute.Bool("reference", req.ReferenceURL != ""))

	parts := []*genai.Part{{Text: composer.Combine(req.Prompt, req.NegativePrompt)}}
	if req.ReferenceURL != "" {
		if ref := g.core.PrepareImagePart(ctx, req.ReferenceURL); ref != nil {
			parts = append(parts, ref)
		}
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = defaultAspectRatio
	}

	images := make([]domain.GeneratedImage, generatedImageCount)
	failures := make([]error, generatedImageCount)
	var eg errgroup.Group
	for i := range images {
		eg.Go(func() error {
			src, err := g.generateOne(ctx, parts, aspect, req.Seed, i)
			if err != nil {
				failures[i] = err
				images[i] = fallbackGeneratedAt(i, seed)
				return nil
			}
			images[i] = domain.GeneratedImage{Src: src, Seed: seed}
			return nil
		})
	}
	_ = eg.Wait()

	if err := errors.Join(failures...); err != nil {
		degrade(ctx, g.opts.recorder, collaboratorGenerate, "gemini_generation_failed", err, "model", g.name)
	}
	return images
}

// generateOne は1枚分を生成して data URL を返します。
// シードは枠ごとにずらし、同じ画像が3枚並ばないようにします。
func (g *GeminiImageGenerator) generateOne(ctx context.Context, parts []*genai.Part, aspect string, seed *int64, index int) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var slotSeed *int64
	if seed != nil {
		v := *seed + int64(index)
		slotSeed = &v
	}

	start := time.Now()
	resp, err := g.model.GenerateWithParts(ctx, g.name, parts, gemini.GenerateOptions{
		AspectRatio: aspect,
		Seed:        slotSeed,
	})
	if err != nil {
		return "", err
	}
	data, mimeType, err := g.core.ParseToResponse(resp)
	if err != nil {
		return "", err
	}
	slog.DebugContext(ctx, "画像を生成しました", "index", index+1, "mime_type", mimeType, "duration", time.Since(start).Round(time.Millisecond))
	return imgutil.EncodeDataURL(mimeType, data), nil
}
