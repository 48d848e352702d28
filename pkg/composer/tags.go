package composer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shouni/vision-weaver-kit/pkg/domain"
)

const (
	// MaxConceptTags は画像群から取り出すタグの上限です。
	MaxConceptTags = 15

	suggestionLimit     = 10
	suggestionMinLength = 4
	searchQueryTags     = 5
)

// tokenize は空白とカンマの両方で区切り、空のトークンを捨てます。
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// ExtractTags は代替テキストから重複のないタグを初出順に最大 limit 個取り出します。
// 代替テキストのない画像は読み飛ばします。
func ExtractTags(images []domain.InspirationImage, limit int) []string {
	return collectTokens(images, limit, func(string) bool { return true })
}

// SuggestNegativePrompt は不採用画像から除外候補の文字列を作ります。
// 4文字以上のトークンを先頭から10個まで使います。
func SuggestNegativePrompt(disliked []domain.InspirationImage) string {
	tags := collectTokens(disliked, suggestionLimit, func(tok string) bool {
		return utf8.RuneCountInString(tok) >= suggestionMinLength
	})
	return strings.Join(tags, ", ")
}

func collectTokens(images []domain.InspirationImage, limit int, keep func(string) bool) []string {
	tags := make([]string, 0, max(limit, 0))
	if limit <= 0 {
		return tags
	}
	seen := make(map[string]struct{})
	for _, img := range images {
		desc, ok := img.Description()
		if !ok {
			continue
		}
		for _, tok := range tokenize(desc) {
			if _, dup := seen[tok]; dup || !keep(tok) {
				continue
			}
			seen[tok] = struct{}{}
			tags = append(tags, tok)
			if len(tags) == limit {
				return tags
			}
		}
	}
	return tags
}

// SearchQuery は画像検索に使うクエリを返します。
// 展開タグがあれば先頭5個を空白でつなぎ、なければ元のプロンプトを使います。
func SearchQuery(tags []string, prompt string) string {
	if len(tags) == 0 {
		return prompt
	}
	if len(tags) > searchQueryTags {
		tags = tags[:searchQueryTags]
	}
	return strings.Join(tags, " ")
}
