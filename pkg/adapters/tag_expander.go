package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultTextModel = "gemini-2.5-flash"
	expandTagCount   = 20
)

const expandPromptTemplate = `Based on the user prompt %q, generate a diverse list of %d conceptual tags for generating AI art. ` +
	`Include tags related to style, subject, composition, and mood. ` +
	`Respond with JSON only, in the form {"tags": ["tag", ...]}.`

// GeminiTagExpander は Gemini テキストモデルでプロンプトを概念タグに広げます。
type GeminiTagExpander struct {
	model TextModel
	name  string
	opts  options
}

// NewGeminiTagExpander は GeminiTagExpander を初期化します。modelName が空なら既定のモデルを使います。
func NewGeminiTagExpander(model TextModel, modelName string, opts ...Option) (*GeminiTagExpander, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if modelName == "" {
		modelName = DefaultTextModel
	}
	return &GeminiTagExpander{model: model, name: modelName, opts: buildOptions(opts)}, nil
}

// Expand はモデルの JSON 応答からタグを取り出します。
// 呼び出しや解析に失敗したときは FallbackTags を返します。
func (e *GeminiTagExpander) Expand(ctx context.Context, prompt string) []string {
	ctx, span := tracer.Start(ctx, "GeminiTagExpander.Expand")
	defer span.End()
	span.SetAttributes(attribute.String("model", e.name))

	resp, err := e.model.GenerateContent(ctx, e.name, fmt.Sprintf(expandPromptTemplate, prompt, expandTagCount))
	if err != nil {
		degrade(ctx, e.opts.recorder, collaboratorTags, "gemini_request_failed", err, "model", e.name)
		return FallbackTags()
	}
	if resp == nil || resp.RawResponse == nil {
		degrade(ctx, e.opts.recorder, collaboratorTags, "empty_response", nil, "model", e.name)
		return FallbackTags()
	}

	tags, err := parseTagsJSON(resp.RawResponse.Text())
	if err != nil {
		degrade(ctx, e.opts.recorder, collaboratorTags, "malformed_response", err, "model", e.name)
		return FallbackTags()
	}
	span.SetAttributes(attribute.Int("tags", len(tags)))
	return tags
}

type tagsPayload struct {
	Tags []string `json:"tags"`
}

// parseTagsJSON は ```json フェンスを外してから {"tags": [...]} を読みます。
// tags が無い場合は空の一覧です。
func parseTagsJSON(text string) ([]string, error) {
	body := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(body, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}

	var payload tagsPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("タグJSONの解析に失敗しました: %w", err)
	}

	tags := make([]string, 0, len(payload.Tags))
	for _, t := range payload.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}
