// Package placeholder builds deterministic stand-in results for when no
// provider produced a usable answer. Every function is a pure function of its
// input and cannot fail.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"

	"kotoba-gateway/internal/models"
	"kotoba-gateway/internal/textproc"
)

var (
	questionSuffixRE = regexp.MustCompile(`[？?]$`)
	commandSuffixRE  = regexp.MustCompile(`(なさい|しろ|せよ|ください)$`)
)

var actionSuggestions = map[models.SentenceType]string{
	models.SentenceCommand:     "Thực hiện yêu cầu được nêu (placeholder)",
	models.SentenceQuestion:    "Cân nhắc câu trả lời phù hợp (placeholder)",
	models.SentenceDeclarative: "Ghi nhớ thông tin chính (placeholder)",
}

// SentenceType guesses the category of a sentence from its ending. Command
// endings win over question markers.
func SentenceType(sentence string) models.SentenceType {
	t := models.SentenceDeclarative
	if questionSuffixRE.MatchString(sentence) || strings.Contains(sentence, "か") {
		t = models.SentenceQuestion
	}
	if commandSuffixRE.MatchString(sentence) {
		t = models.SentenceCommand
	}
	return t
}

// Sentence classifies one sentence by rule.
func Sentence(sentence string) models.Sentence {
	normalized := textproc.Normalize(sentence)
	t := SentenceType(sentence)
	return models.Sentence{
		Original:         sentence,
		Normalized:       normalized,
		Type:             t,
		TypeLabel:        t.Label(),
		MainIdea:         fmt.Sprintf("Ý chính (placeholder) của câu: %q", normalized),
		ActionSuggestion: actionSuggestions[t],
	}
}

// Sentences classifies every sentence by rule.
func Sentences(sentences []string) []models.Sentence {
	out := make([]models.Sentence, 0, len(sentences))
	for _, s := range sentences {
		out = append(out, Sentence(s))
	}
	return out
}

// Translation returns a clearly marked stand-in translation.
func Translation(text string) string {
	return "Tiếng Việt (server fallback): " + text
}

// Vocabulary returns a single synthetic entry that uses the input as its
// reading.
func Vocabulary(input string) (mainTranslation string, entries []models.VocabEntry) {
	mainTranslation = fmt.Sprintf("Dịch mẫu của câu: %q (chưa có nhà cung cấp)", input)
	entries = []models.VocabEntry{
		{
			Kanji:    "",
			Reading:  input,
			HanViet:  "",
			Meaning:  fmt.Sprintf("Nghĩa mẫu của %q", input),
			Synonyms: []string{input + " の類義語 (mẫu)"},
			Examples: []models.Example{
				{JP: input + " の例文 (mẫu)", VI: fmt.Sprintf("Ví dụ tiếng Việt cho %q (mẫu)", input)},
				{JP: "もう一つの例文 (mẫu)", VI: "Ví dụ khác (mẫu)"},
			},
		},
	}
	return mainTranslation, entries
}
