package composer

// GuidanceBand はガイダンススケールを3段階に分類したものです。
type GuidanceBand int

const (
	GuidanceBalanced GuidanceBand = iota
	GuidanceHighFidelity
	GuidanceHighCreativity
)

// CompositionBand は構図ガイドの影響度を3段階に分類したものです。
type CompositionBand int

const (
	CompositionModerate CompositionBand = iota
	CompositionStrict
	CompositionLoose
)

// 境界値はいずれも中間帯に含まれます。
const (
	highFidelityAbove   = 12.0
	highCreativityBelow = 5.0
	strictAbove         = 0.7
	looseBelow          = 0.3
)

// ClassifyGuidance はガイダンススケールを分類します。
func ClassifyGuidance(v float64) GuidanceBand {
	switch {
	case v > highFidelityAbove:
		return GuidanceHighFidelity
	case v < highCreativityBelow:
		return GuidanceHighCreativity
	default:
		return GuidanceBalanced
	}
}

// ClassifyComposition は構図ガイドの影響度を分類します。
func ClassifyComposition(v float64) CompositionBand {
	switch {
	case v > strictAbove:
		return CompositionStrict
	case v < looseBelow:
		return CompositionLoose
	default:
		return CompositionModerate
	}
}

// Sentence はプロンプトに差し込む指示文です。
func (b GuidanceBand) Sentence() string {
	switch b {
	case GuidanceHighFidelity:
		return "Follow the prompt's instructions with very high fidelity."
	case GuidanceHighCreativity:
		return "Use the prompt as a loose inspiration, be highly creative and artistic."
	default:
		return "Balance creative interpretation with the prompt's instructions."
	}
}

func (b GuidanceBand) String() string {
	switch b {
	case GuidanceHighFidelity:
		return "high-fidelity"
	case GuidanceHighCreativity:
		return "high-creativity"
	default:
		return "balanced"
	}
}

// Sentence はプロンプトに差し込む指示文です。
func (b CompositionBand) Sentence() string {
	switch b {
	case CompositionStrict:
		return "Strictly adhere to the composition, structure, and layout of the guide image."
	case CompositionLoose:
		return "Loosely base the composition on the guide image, taking creative liberties."
	default:
		return "The overall composition and layout should be inspired by the user's guide image."
	}
}

func (b CompositionBand) String() string {
	switch b {
	case CompositionStrict:
		return "strict"
	case CompositionLoose:
		return "loose"
	default:
		return "moderate"
	}
}
