package domain

// ImageURLs は検索結果画像のサムネイルと表示用の URL です。
type ImageURLs struct {
	Thumb   string `json:"thumb"`
	Regular string `json:"regular"`
}

// InspirationImage はムードボードに並べる参照画像です。
// AltDescription がタグ抽出の唯一の情報源で、nil の場合はタグを提供しません。
type InspirationImage struct {
	ID             string    `json:"id"`
	URLs           ImageURLs `json:"urls"`
	AltDescription *string   `json:"alt_description"`
}

// Description は代替テキストとその有無を返します。
func (img InspirationImage) Description() (string, bool) {
	if img.AltDescription == nil {
		return "", false
	}
	return *img.AltDescription, true
}

// GeneratedImage は生成結果の1枚です。Src は data URL またはリモート URL です。
// Seed は要求時のシードをそのまま返すだけで、画素の再現性は保証しません。
type GeneratedImage struct {
	Src  string `json:"src"`
	Seed int64  `json:"seed"`
}

// ImageGenerationRequest は画像生成コラボレーターへの1回分の要求です。
type ImageGenerationRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	ReferenceURL   string // 構図ガイド画像。空なら参照なし
	Seed           *int64
}

// StringPtr は文字列のポインタを返します。AltDescription の組み立てに使います。
func StringPtr(s string) *string {
	return &s
}
