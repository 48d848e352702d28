package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/shouni/vision-weaver-kit/pkg/composer"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"github.com/shouni/vision-weaver-kit/pkg/imgutil"
	"github.com/shouni/vision-weaver-kit/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

const (
	DefaultImagenModel = "imagen-3.0-generate-002"
	imagenMimeType     = "image/jpeg"
)

// ImagenGenerator は Imagen の GenerateImages で3枚を一度に生成します。
// Imagen はシードを受け付けないため、シードは結果に付けて返すだけです。
type ImagenGenerator struct {
	models ImagenModels
	model  string
	opts   options
}

// NewImagenGenerator は ImagenGenerator を初期化します。modelName が空なら既定のモデルを使います。
func NewImagenGenerator(models ImagenModels, modelName string, opts ...Option) (*ImagenGenerator, error) {
	if models == nil {
		return nil, errors.New("models is required")
	}
	if modelName == "" {
		modelName = DefaultImagenModel
	}
	return &ImagenGenerator{models: models, model: modelName, opts: buildOptions(opts)}, nil
}

// Generate はネガティブを区切り付きでつないだプロンプトを送り、3枚を data URL で返します。
func (g *ImagenGenerator) Generate(ctx context.Context, req domain.ImageGenerationRequest) []domain.GeneratedImage {
	ctx, span := tracer.Start(ctx, "ImagenGenerator.Generate")
	defer span.End()

	seed := utils.DereferenceSeed(req.Seed)
	span.SetAttributes(attribute.String("model", g.model), attribute.Int64("seed", seed))

	aspect := req.AspectRatio
	if aspect == "" {
		aspect = defaultAspectRatio
	}
	resp, err := g.models.GenerateImages(ctx, g.model, composer.Combine(req.Prompt, req.NegativePrompt), &genai.GenerateImagesConfig{
		NumberOfImages: generatedImageCount,
		OutputMIMEType: imagenMimeType,
		AspectRatio:    aspect,
	})
	if err == nil && resp == nil {
		err = errors.New("nil response")
	}
	if err != nil {
		degrade(ctx, g.opts.recorder, collaboratorGenerate, "imagen_request_failed", err, "model", g.model)
		return FallbackGenerated(seed)
	}

	images := make([]domain.GeneratedImage, 0, generatedImageCount)
	for _, gi := range resp.GeneratedImages {
		if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			continue
		}
		images = append(images, domain.GeneratedImage{
			Src:  imgutil.EncodeDataURL(imagenMimeType, gi.Image.ImageBytes),
			Seed: seed,
		})
		if len(images) == generatedImageCount {
			break
		}
	}
	if len(images) == 0 {
		degrade(ctx, g.opts.recorder, collaboratorGenerate, "imagen_empty_response",
			fmt.Errorf("no images in response (%d entries)", len(resp.GeneratedImages)), "model", g.model)
		return FallbackGenerated(seed)
	}
	// 安全フィルターで一部が欠けた場合も3枚にそろえる
	for i := len(images); i < generatedImageCount; i++ {
		images = append(images, fallbackGeneratedAt(i, seed))
	}
	return images
}
