// Package composer は創作セッションから画像生成用のプロンプトを組み立てます。
// 関数はすべて純粋で、並行に呼び出しても安全です。
package composer

import (
	"fmt"
	"strings"

	"github.com/shouni/vision-weaver-kit/pkg/domain"
)

const closingSentence = "The final image must be visually stunning, coherent, and highly detailed."

// Prompt はポジティブとネガティブに分けた合成結果です。
type Prompt struct {
	Positive string `json:"positive"`
	Negative string `json:"negative"`
}

// Display は1本の文字列にまとめた表示用の形式を返します。
func (p Prompt) Display() string {
	return Combine(p.Positive, p.Negative)
}

// Combine はネガティブプロンプトを区切り付きでポジティブの後ろにつなげます。
// ネガティブが空ならポジティブをそのまま返します。
func Combine(positive, negative string) string {
	if negative == "" {
		return positive
	}
	return fmt.Sprintf("%s --- Negative prompt: avoid %s.", positive, negative)
}

// Compose はセッションのスナップショットからプロンプトを作ります。
func Compose(s domain.CreativeSession) Prompt {
	return Prompt{
		Positive: PositivePrompt(s),
		Negative: NegativePrompt(s),
	}
}

// PositivePrompt は固定順の文を単一スペースで連結します。
func PositivePrompt(s domain.CreativeSession) string {
	sentences := make([]string, 0, 7)
	sentences = append(sentences, fmt.Sprintf("Create a high-quality, detailed image of: %s.", s.OriginalPrompt))

	if s.SelectedStyle != nil {
		sentences = append(sentences, fmt.Sprintf("The artistic style is %s: %s.", s.SelectedStyle.Name, s.SelectedStyle.Prompt))
	}
	if tags := ExtractTags(s.ApprovedImages, MaxConceptTags); len(tags) > 0 {
		sentences = append(sentences, fmt.Sprintf("Incorporate these key concepts: %s.", strings.Join(tags, ", ")))
	}
	if len(s.ColorPalette) > 0 {
		sentences = append(sentences, fmt.Sprintf("The dominant color palette should be: %s.", strings.Join(s.ColorPalette, ", ")))
	}
	if s.CompositionGuideURL != nil {
		sentences = append(sentences, ClassifyComposition(s.CompositionInfluence).Sentence())
	}
	sentences = append(sentences, ClassifyGuidance(s.GuidanceScale).Sentence(), closingSentence)

	return strings.Join(sentences, " ")
}

// NegativePrompt は不採用画像のタグと自由記述をカンマでつなぎます。
func NegativePrompt(s domain.CreativeSession) string {
	parts := make([]string, 0, 2)
	if tags := ExtractTags(s.DislikedImages, MaxConceptTags); len(tags) > 0 {
		parts = append(parts, strings.Join(tags, ", "))
	}
	if s.NegativePrompt != "" {
		parts = append(parts, s.NegativePrompt)
	}
	return strings.Join(parts, ", ")
}
