package domain

import (
	"fmt"
	"math"
	"slices"
)

const (
	DefaultGuidanceScale        = 7.5
	DefaultCompositionInfluence = 0.5

	MinGuidanceScale        = 1.0
	MaxGuidanceScale        = 20.0
	MinCompositionInfluence = 0.0
	MaxCompositionInfluence = 1.0
)

// Style はアートスタイルのカタログ項目です。
type Style struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	Thumbnail string `json:"thumbnail"`
}

// CreativeSession は2つのフェーズを通して引き継がれる創作セッションの集約です。
type CreativeSession struct {
	OriginalPrompt       string             `json:"originalPrompt"`
	ExpandedTags         []string           `json:"expandedTags"`
	SelectedStyle        *Style             `json:"selectedStyle"`
	ColorPalette         []string           `json:"colorPalette"`
	ApprovedImages       []InspirationImage `json:"approvedImages"`
	DislikedImages       []InspirationImage `json:"dislikedImages"`
	CompositionGuideURL  *string            `json:"compositionGuideUrl"`
	GuidanceScale        float64            `json:"guidanceScale"`
	CompositionInfluence float64            `json:"compositionInfluence"`
	NegativePrompt       string             `json:"negativePrompt"`
	Seed                 *int64             `json:"seed"`
}

// NewCreativeSession は空のフォーム状態のセッションを返します。
func NewCreativeSession() CreativeSession {
	return CreativeSession{
		ExpandedTags:         []string{},
		ColorPalette:         []string{},
		ApprovedImages:       []InspirationImage{},
		DislikedImages:       []InspirationImage{},
		GuidanceScale:        DefaultGuidanceScale,
		CompositionInfluence: DefaultCompositionInfluence,
	}
}

// Reset はセッションを最初からやり直します。
func (s *CreativeSession) Reset() {
	*s = NewCreativeSession()
}

// Clone はフェーズ境界を越えて渡すためのディープコピーを返します。
func (s CreativeSession) Clone() CreativeSession {
	c := s
	c.ExpandedTags = slices.Clone(s.ExpandedTags)
	c.ColorPalette = slices.Clone(s.ColorPalette)
	c.ApprovedImages = cloneImages(s.ApprovedImages)
	c.DislikedImages = cloneImages(s.DislikedImages)
	if s.SelectedStyle != nil {
		style := *s.SelectedStyle
		c.SelectedStyle = &style
	}
	if s.CompositionGuideURL != nil {
		url := *s.CompositionGuideURL
		c.CompositionGuideURL = &url
	}
	if s.Seed != nil {
		seed := *s.Seed
		c.Seed = &seed
	}
	return c
}

func cloneImages(src []InspirationImage) []InspirationImage {
	if src == nil {
		return nil
	}
	out := make([]InspirationImage, len(src))
	for i, img := range src {
		out[i] = img
		if img.AltDescription != nil {
			out[i].AltDescription = StringPtr(*img.AltDescription)
		}
	}
	return out
}

// SetPrompt は元のプロンプトを差し替えます。
func (s *CreativeSession) SetPrompt(prompt string) {
	s.OriginalPrompt = prompt
}

// SelectStyle はスタイルを設定します。nil で選択解除です。
func (s *CreativeSession) SelectStyle(style *Style) {
	if style == nil {
		s.SelectedStyle = nil
		return
	}
	st := *style
	s.SelectedStyle = &st
}

// SelectPalette はカラーパレットを置き換えます。
func (s *CreativeSession) SelectPalette(colors []string) {
	s.ColorPalette = slices.Clone(colors)
	if s.ColorPalette == nil {
		s.ColorPalette = []string{}
	}
}

// SetNegativePrompt は除外したい要素の自由記述を設定します。
func (s *CreativeSession) SetNegativePrompt(text string) {
	s.NegativePrompt = text
}

// SetGuidanceScale はガイダンススケールを設定します。範囲外は ErrOutOfRange です。
func (s *CreativeSession) SetGuidanceScale(v float64) error {
	if math.IsNaN(v) || v < MinGuidanceScale || v > MaxGuidanceScale {
		return fmt.Errorf("guidanceScale %v not in [%v, %v]: %w", v, MinGuidanceScale, MaxGuidanceScale, ErrOutOfRange)
	}
	s.GuidanceScale = v
	return nil
}

// SetCompositionInfluence は構図ガイドの影響度を設定します。範囲外は ErrOutOfRange です。
func (s *CreativeSession) SetCompositionInfluence(v float64) error {
	if math.IsNaN(v) || v < MinCompositionInfluence || v > MaxCompositionInfluence {
		return fmt.Errorf("compositionInfluence %v not in [%v, %v]: %w", v, MinCompositionInfluence, MaxCompositionInfluence, ErrOutOfRange)
	}
	s.CompositionInfluence = v
	return nil
}

// SetSeed は再利用するシードを記録します。nil でクリアです。
func (s *CreativeSession) SetSeed(seed *int64) {
	if seed == nil {
		s.Seed = nil
		return
	}
	v := *seed
	s.Seed = &v
}
