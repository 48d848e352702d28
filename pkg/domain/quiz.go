package domain

import (
	"fmt"
	"slices"
	"strings"
)

// QuizChoice はクイズの選択肢です。選ぶと Tags がプロンプトに追加されます。
type QuizChoice struct {
	Label    string   `json:"label"`
	ImageURL string   `json:"imageUrl"`
	Tags     []string `json:"tags"`
}

// QuizQuestion は二択の質問です。
type QuizQuestion struct {
	ID        int           `json:"id"`
	Dichotomy string        `json:"dichotomy"`
	Question  string        `json:"question"`
	Choices   [2]QuizChoice `json:"choices"`
}

// QuizAnswer は1問分の回答です。ChoiceIndex は 0 か 1。
type QuizAnswer struct {
	QuestionID  int `json:"questionId"`
	ChoiceIndex int `json:"choiceIndex"`
}

var quizQuestions = []QuizQuestion{
	{
		ID: 1, Dichotomy: "Complexity", Question: "Which do you prefer?",
		Choices: [2]QuizChoice{
			{Label: "Detailed & Intricate", ImageURL: "https://picsum.photos/seed/detailed/500", Tags: []string{"detailed", "intricate", "complex patterns", "ornate"}},
			{Label: "Simple & Minimalist", ImageURL: "https://picsum.photos/seed/minimalist/500", Tags: []string{"minimalist", "simple", "clean lines", "uncluttered"}},
		},
	},
	{
		ID: 2, Dichotomy: "Form", Question: "Which form appeals to you?",
		Choices: [2]QuizChoice{
			{Label: "Geometric & Straight", ImageURL: "https://picsum.photos/seed/geometric/500", Tags: []string{"geometric shapes", "straight lines", "structured", "symmetrical"}},
			{Label: "Organic & Curved", ImageURL: "https://picsum.photos/seed/organic/500", Tags: []string{"organic shapes", "curved lines", "flowing", "natural"}},
		},
	},
	{
		ID: 3, Dichotomy: "Color", Question: "Which color palette is more you?",
		Choices: [2]QuizChoice{
			{Label: "Vibrant & Saturated", ImageURL: "https://picsum.photos/seed/vibrant/500", Tags: []string{"vibrant colors", "saturated", "high contrast", "bold"}},
			{Label: "Muted & Desaturated", ImageURL: "https://picsum.photos/seed/muted/500", Tags: []string{"muted colors", "desaturated", "soft palette", "subtle tones"}},
		},
	},
	{
		ID: 4, Dichotomy: "Mood", Question: "What mood are you going for?",
		Choices: [2]QuizChoice{
			{Label: "Dark & Moody", ImageURL: "https://picsum.photos/seed/moody/500", Tags: []string{"dark", "moody", "dramatic lighting", "shadows", "chiaroscuro"}},
			{Label: "Bright & Airy", ImageURL: "https://picsum.photos/seed/bright/500", Tags: []string{"bright", "airy", "light", "high-key lighting", "soft light"}},
		},
	},
	{
		ID: 5, Dichotomy: "Realism", Question: "Which reality do you envision?",
		Choices: [2]QuizChoice{
			{Label: "Photorealistic & Lifelike", ImageURL: "https://picsum.photos/seed/photorealistic/500", Tags: []string{"photorealistic", "hyperrealistic", "lifelike", "8k resolution"}},
			{Label: "Stylized & Abstract", ImageURL: "https://picsum.photos/seed/stylized/500", Tags: []string{"stylized", "abstract", "illustrative", "painterly", "surreal"}},
		},
	},
}

// QuizQuestions はクイズの質問一覧を返します。
func QuizQuestions() []QuizQuestion {
	out := make([]QuizQuestion, len(quizQuestions))
	for i, q := range quizQuestions {
		for j := range q.Choices {
			q.Choices[j].Tags = slices.Clone(q.Choices[j].Tags)
		}
		out[i] = q
	}
	return out
}

// AccumulateQuizTags は回答を順に畳み込み、選ばれた選択肢のタグを連結します。
func AccumulateQuizTags(answers []QuizAnswer) ([]string, error) {
	tags := make([]string, 0, len(answers)*5)
	for _, a := range answers {
		choice, err := lookupChoice(a)
		if err != nil {
			return nil, err
		}
		tags = append(tags, choice.Tags...)
	}
	return tags, nil
}

func lookupChoice(a QuizAnswer) (QuizChoice, error) {
	for _, q := range quizQuestions {
		if q.ID != a.QuestionID {
			continue
		}
		if a.ChoiceIndex < 0 || a.ChoiceIndex >= len(q.Choices) {
			break
		}
		return q.Choices[a.ChoiceIndex], nil
	}
	return QuizChoice{}, fmt.Errorf("question %d choice %d: %w", a.QuestionID, a.ChoiceIndex, ErrUnknownQuizAnswer)
}

// AppendQuizTags はクイズのタグをプロンプト末尾に ", " 区切りで追記します。
func AppendQuizTags(prompt string, tags []string) string {
	if len(tags) == 0 {
		return prompt
	}
	joined := strings.Join(tags, ", ")
	if strings.TrimSpace(prompt) == "" {
		return joined
	}
	return prompt + ", " + joined
}
