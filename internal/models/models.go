package models

// ProviderFallback tags results produced by the placeholder generator.
const ProviderFallback = "fallback"

// SentenceType is one of the three sentence categories taught to learners.
type SentenceType string

const (
	SentenceCommand     SentenceType = "命令文"
	SentenceQuestion    SentenceType = "疑問文"
	SentenceDeclarative SentenceType = "肯定文"
)

var sentenceTypeLabels = map[SentenceType]string{
	SentenceCommand:     "Câu mệnh lệnh",
	SentenceQuestion:    "Câu nghi vấn",
	SentenceDeclarative: "Câu khẳng định",
}

// UnknownTypeLabel is shown for categories outside the known set.
const UnknownTypeLabel = "Không xác định"

// ParseSentenceType reports whether s names a known category.
func ParseSentenceType(s string) (SentenceType, bool) {
	t := SentenceType(s)
	_, ok := sentenceTypeLabels[t]
	return t, ok
}

// Label returns the Vietnamese label for the category.
func (t SentenceType) Label() string {
	if label, ok := sentenceTypeLabels[t]; ok {
		return label
	}
	return UnknownTypeLabel
}

// Sentence is one classified sentence.
type Sentence struct {
	Original         string       `json:"original"`
	Normalized       string       `json:"normalized"`
	Type             SentenceType `json:"type"`
	TypeLabel        string       `json:"typeLabel"`
	MainIdea         string       `json:"mainIdea"`
	ActionSuggestion string       `json:"actionSuggestion"`
}

// Classification is the shaped result of the classify operation.
type Classification struct {
	Sentences []Sentence `json:"sentences"`
	Provider  string     `json:"provider"`
}

// Translation is the shaped result of the translate operation.
type Translation struct {
	Source     string `json:"source"`
	Translated string `json:"translated"`
	Provider   string `json:"provider"`
}

// Example pairs a Japanese example sentence with its Vietnamese translation.
type Example struct {
	JP string `json:"jp"`
	VI string `json:"vi"`
}

// VocabEntry describes one word extracted from the looked-up text.
type VocabEntry struct {
	Kanji    string    `json:"kanji"`
	Reading  string    `json:"reading"`
	HanViet  string    `json:"hanViet"`
	Meaning  string    `json:"meaning"`
	Synonyms []string  `json:"synonyms"`
	Examples []Example `json:"examples"`
}

// VocabLookup is the shaped result of the vocabulary lookup operation.
type VocabLookup struct {
	Input           string       `json:"input"`
	MainTranslation string       `json:"mainTranslation"`
	VocabList       []VocabEntry `json:"vocabList"`
	Provider        string       `json:"provider"`
}
