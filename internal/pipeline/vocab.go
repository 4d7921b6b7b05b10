package pipeline

import (
	"strings"

	"kotoba-gateway/internal/decode"
	"kotoba-gateway/internal/models"
	"kotoba-gateway/internal/morph"
	"kotoba-gateway/internal/placeholder"
	"kotoba-gateway/internal/provider"
	"kotoba-gateway/internal/textproc"
)

// VocabInput is the normalized text to look up plus the content words found
// in it, which are offered to the model as hints.
type VocabInput struct {
	Text  string
	Hints []string
}

// NewVocabInput normalizes raw and extracts its content words.
func NewVocabInput(raw string) VocabInput {
	text := textproc.Normalize(raw)
	return VocabInput{Text: text, Hints: morph.ContentWords(text)}
}

var (
	fieldMainTranslation = decode.NewField("mainTranslation", "translation", "translated")
	fieldVocabList       = decode.NewField("vocabList", "vocabulary", "words", "items")
	fieldKanji           = decode.NewField("kanji", "word")
	fieldReading         = decode.NewField("reading", "kana", "furigana")
	fieldHanViet         = decode.NewField("hanViet", "han_viet", "sinoVietnamese")
	fieldMeaning         = decode.NewField("meaning", "vi", "definition")
	fieldSynonyms        = decode.NewField("synonyms")
	fieldExamples        = decode.NewField("examples")
	fieldExampleJP       = decode.NewField("jp", "ja", "japanese", "sentence")
	fieldExampleVI       = decode.NewField("vi", "vietnamese", "translation")
)

// VocabOperation looks up the vocabulary of a word or sentence.
func VocabOperation() Operation[VocabInput, models.VocabLookup] {
	return Operation[VocabInput, models.VocabLookup]{
		Name: "vocabLookup",
		Check: func(in VocabInput) error {
			if in.Text == "" {
				return ErrNoInput
			}
			return nil
		},
		Prompt:   vocabPrompt,
		Options:  provider.CallOptions{JSON: true, Temperature: temperature(0.3)},
		Validate: validateVocab,
		Placeholder: func(in VocabInput) models.VocabLookup {
			main, entries := placeholder.Vocabulary(in.Text)
			return models.VocabLookup{Input: in.Text, MainTranslation: main, VocabList: entries}
		},
	}
}

func vocabPrompt(kind provider.Kind, in VocabInput) (string, bool) {
	if kind != provider.KindLLM {
		return "", false
	}

	var b strings.Builder
	b.WriteString("You are a Japanese vocabulary tutor for Vietnamese learners.\n")
	b.WriteString("Translate the input into Vietnamese and explain its important words.\n")
	b.WriteString("For every word give the kanji form, the kana reading, the Sino-Vietnamese (Hán Việt) reading, ")
	b.WriteString("the Vietnamese meaning, at least one Japanese synonym and at least one example sentence with its Vietnamese translation.\n")
	b.WriteString("Answer with JSON only, no prose, in this shape:\n")
	b.WriteString(`{"mainTranslation":"...","vocabList":[{"kanji":"...","reading":"...","hanViet":"...","meaning":"...","synonyms":["..."],"examples":[{"jp":"...","vi":"..."}]}]}`)
	if len(in.Hints) > 0 {
		b.WriteString("\nCover at least these words: ")
		b.WriteString(strings.Join(in.Hints, "、"))
	}
	b.WriteString("\n\nInput:\n")
	b.WriteString(in.Text)
	return b.String(), true
}

func validateVocab(payload any, in VocabInput) (models.VocabLookup, error) {
	obj, ok := decode.Object(payload)
	if !ok {
		return models.VocabLookup{}, validationErr("payload is not an object")
	}

	var rawEntries []any
	arr, present, ok := fieldVocabList.Array(obj)
	switch {
	case present && !ok:
		return models.VocabLookup{}, validationErr("vocabList is not an array")
	case present:
		rawEntries = arr
	default:
		// A single word may come back flat, without a list around it.
		if _, hasMeaning := fieldMeaning.Lookup(obj); !hasMeaning {
			return models.VocabLookup{}, validationErr("vocabList missing")
		}
		rawEntries = []any{obj}
	}
	if len(rawEntries) == 0 {
		return models.VocabLookup{}, validationErr("vocabList is empty")
	}

	entries := make([]models.VocabEntry, 0, len(rawEntries))
	for i, raw := range rawEntries {
		entryObj, ok := decode.Object(raw)
		if !ok {
			return models.VocabLookup{}, validationErr("entry %d is not an object", i)
		}
		entry, err := shapeVocabEntry(entryObj, i, in)
		if err != nil {
			return models.VocabLookup{}, err
		}
		entries = append(entries, entry)
	}

	mainTranslation, present, ok := fieldMainTranslation.String(obj)
	if present && !ok {
		return models.VocabLookup{}, validationErr("mainTranslation is not a string")
	}
	if mainTranslation == "" {
		mainTranslation = entries[0].Meaning
	}

	return models.VocabLookup{
		Input:           in.Text,
		MainTranslation: mainTranslation,
		VocabList:       entries,
	}, nil
}

func shapeVocabEntry(obj map[string]any, i int, in VocabInput) (models.VocabEntry, error) {
	optional := func(f decode.Field) (string, error) {
		v, present, ok := f.String(obj)
		if present && !ok {
			return "", validationErr("entry %d: %s is not a string", i, f.Name)
		}
		return v, nil
	}

	kanji, err := optional(fieldKanji)
	if err != nil {
		return models.VocabEntry{}, err
	}
	reading, err := optional(fieldReading)
	if err != nil {
		return models.VocabEntry{}, err
	}
	hanViet, err := optional(fieldHanViet)
	if err != nil {
		return models.VocabEntry{}, err
	}
	meaning, err := optional(fieldMeaning)
	if err != nil {
		return models.VocabEntry{}, err
	}
	if meaning == "" {
		return models.VocabEntry{}, validationErr("entry %d: meaning missing", i)
	}

	if reading == "" {
		reading = kanji
	}
	if reading == "" {
		reading = in.Text
	}

	synArr, present, ok := fieldSynonyms.Array(obj)
	if !present || !ok {
		return models.VocabEntry{}, validationErr("entry %d: synonyms missing", i)
	}
	synonyms, ok := decode.Strings(synArr)
	if !ok {
		return models.VocabEntry{}, validationErr("entry %d: synonyms must be strings", i)
	}
	if len(synonyms) == 0 {
		return models.VocabEntry{}, validationErr("entry %d: synonyms empty", i)
	}

	exArr, present, ok := fieldExamples.Array(obj)
	if !present || !ok {
		return models.VocabEntry{}, validationErr("entry %d: examples missing", i)
	}
	examples, err := shapeExamples(exArr, i)
	if err != nil {
		return models.VocabEntry{}, err
	}

	return models.VocabEntry{
		Kanji:    kanji,
		Reading:  reading,
		HanViet:  hanViet,
		Meaning:  meaning,
		Synonyms: synonyms,
		Examples: examples,
	}, nil
}

// shapeExamples accepts objects with a Japanese sentence and an optional
// translation, or bare Japanese strings.
func shapeExamples(arr []any, entry int) ([]models.Example, error) {
	examples := make([]models.Example, 0, len(arr))
	for j, raw := range arr {
		switch v := raw.(type) {
		case string:
			if jp := strings.TrimSpace(v); jp != "" {
				examples = append(examples, models.Example{JP: jp})
			}
		case map[string]any:
			jp, present, ok := fieldExampleJP.String(v)
			if present && !ok {
				return nil, validationErr("entry %d example %d: jp is not a string", entry, j)
			}
			vi, present, ok := fieldExampleVI.String(v)
			if present && !ok {
				return nil, validationErr("entry %d example %d: vi is not a string", entry, j)
			}
			if jp == "" {
				continue
			}
			examples = append(examples, models.Example{JP: jp, VI: vi})
		default:
			return nil, validationErr("entry %d example %d is not an object", entry, j)
		}
	}
	if len(examples) == 0 {
		return nil, validationErr("entry %d: examples empty", entry)
	}
	return examples, nil
}
