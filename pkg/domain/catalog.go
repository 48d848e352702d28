package domain

import "strings"

// Palette は名前付きのカラーパレットです。
type Palette struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

var artStyles = []Style{
	{ID: "photorealistic", Name: "Photorealistic", Prompt: "hyperrealistic, photorealistic, 8k, detailed, sharp focus", Thumbnail: "https://picsum.photos/seed/photorealistic/200"},
	{ID: "anime", Name: "Anime", Prompt: "anime style, vibrant, detailed illustration, by Makoto Shinkai", Thumbnail: "https://picsum.photos/seed/anime/200"},
	{ID: "abstract", Name: "Abstract", Prompt: "abstract art, geometric shapes, non-representational, bold colors", Thumbnail: "https://picsum.photos/seed/abstract/200"},
	{ID: "impressionist", Name: "Impressionist", Prompt: "impressionistic painting, visible brush strokes, soft light, by Monet", Thumbnail: "https://picsum.photos/seed/impressionist/200"},
	{ID: "cyberpunk", Name: "Cyberpunk", Prompt: "cyberpunk city, neon lights, dystopian future, high-tech, Blade Runner aesthetic", Thumbnail: "https://picsum.photos/seed/cyberpunk/200"},
	{ID: "steampunk", Name: "Steampunk", Prompt: "steampunk, victorian era, gears and cogs, intricate machinery, brass and copper", Thumbnail: "https://picsum.photos/seed/steampunk/200"},
	{ID: "fantasy", Name: "Fantasy Art", Prompt: "epic fantasy art, mythical creatures, magical landscape, detailed, by Frank Frazetta", Thumbnail: "https://picsum.photos/seed/fantasy/200"},
	{ID: "minimalist", Name: "Minimalist", Prompt: "minimalist, clean lines, simple shapes, limited color palette, whitespace", Thumbnail: "https://picsum.photos/seed/minimalist/200"},
}

var colorPalettes = []Palette{
	{Name: "Sunset", Colors: []string{"#FFC371", "#FF5F6D", "#A44A3F"}},
	{Name: "Ocean", Colors: []string{"#0077be", "#00a8cc", "#90c5e8"}},
	{Name: "Forest", Colors: []string{"#2F4F4F", "#556B2F", "#8FBC8F"}},
	{Name: "Neon", Colors: []string{"#39ff14", "#fe019a", "#00f6fe"}},
	{Name: "Vintage", Colors: []string{"#D4B996", "#A0522D", "#694E4E"}},
	{Name: "Monochrome", Colors: []string{"#333333", "#888888", "#DDDDDD"}},
}

// ArtStyles はスタイルカタログのコピーを返します。
func ArtStyles() []Style {
	out := make([]Style, len(artStyles))
	copy(out, artStyles)
	return out
}

// ColorPalettes はパレットカタログのコピーを返します。
func ColorPalettes() []Palette {
	out := make([]Palette, len(colorPalettes))
	for i, p := range colorPalettes {
		out[i] = Palette{Name: p.Name, Colors: append([]string(nil), p.Colors...)}
	}
	return out
}

// FindStyle は ID でスタイルを引きます。
func FindStyle(id string) (Style, error) {
	for _, s := range artStyles {
		if s.ID == id {
			return s, nil
		}
	}
	return Style{}, ErrUnknownStyle
}

// FindPalette は名前でパレットを引きます。大文字小文字は区別しません。
func FindPalette(name string) (Palette, error) {
	for _, p := range colorPalettes {
		if strings.EqualFold(p.Name, name) {
			return Palette{Name: p.Name, Colors: append([]string(nil), p.Colors...)}, nil
		}
	}
	return Palette{}, ErrUnknownPalette
}
