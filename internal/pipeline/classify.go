package pipeline

import (
	"fmt"
	"strings"

	"kotoba-gateway/internal/decode"
	"kotoba-gateway/internal/models"
	"kotoba-gateway/internal/placeholder"
	"kotoba-gateway/internal/provider"
	"kotoba-gateway/internal/textproc"
)

// ClassifyInput holds the sentences of a normalized text.
type ClassifyInput struct {
	Text      string
	Sentences []string
}

// NewClassifyInput normalizes raw and splits it into sentences.
func NewClassifyInput(raw string) ClassifyInput {
	text := textproc.Normalize(raw)
	return ClassifyInput{Text: text, Sentences: textproc.Split(text)}
}

var (
	fieldSentences        = decode.NewField("sentences", "items", "results")
	fieldOriginal         = decode.NewField("original", "sentence", "text")
	fieldNormalized       = decode.NewField("normalized")
	fieldSentenceType     = decode.NewField("type", "sentenceType", "category")
	fieldMainIdea         = decode.NewField("mainIdea", "main_idea", "summary")
	fieldActionSuggestion = decode.NewField("actionSuggestion", "action_suggestion", "suggestion")
)

// ClassifyOperation classifies each sentence of a text.
func ClassifyOperation() Operation[ClassifyInput, models.Classification] {
	return Operation[ClassifyInput, models.Classification]{
		Name: "classify",
		Check: func(in ClassifyInput) error {
			if len(in.Sentences) == 0 {
				return ErrNoInput
			}
			return nil
		},
		Prompt:   classifyPrompt,
		Options:  provider.CallOptions{JSON: true, Temperature: temperature(0.2)},
		Validate: validateClassification,
		Placeholder: func(in ClassifyInput) models.Classification {
			return models.Classification{Sentences: placeholder.Sentences(in.Sentences)}
		},
	}
}

func classifyPrompt(kind provider.Kind, in ClassifyInput) (string, bool) {
	if kind != provider.KindLLM {
		return "", false
	}

	var b strings.Builder
	b.WriteString("You are a Japanese language assistant for Vietnamese learners.\n")
	b.WriteString("Classify each Japanese sentence below as exactly one of: ")
	fmt.Fprintf(&b, "%s (command or request), %s (question), %s (statement).\n",
		models.SentenceCommand, models.SentenceQuestion, models.SentenceDeclarative)
	b.WriteString("For each sentence give the main idea and a suggested action, both in Vietnamese.\n")
	b.WriteString("Answer with JSON only, no prose, in this shape:\n")
	b.WriteString(`{"sentences":[{"original":"...","normalized":"...","type":"命令文|疑問文|肯定文","mainIdea":"...","actionSuggestion":"..."}]}`)
	b.WriteString("\nKeep the sentences in the given order.\n\nSentences:\n")
	for i, s := range in.Sentences {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String(), true
}

func validateClassification(payload any, in ClassifyInput) (models.Classification, error) {
	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		arr, present, ok := fieldSentences.Array(v)
		if !present || !ok {
			return models.Classification{}, validationErr("sentences array missing")
		}
		items = arr
	default:
		return models.Classification{}, validationErr("payload is not an object")
	}
	if len(items) == 0 {
		return models.Classification{}, validationErr("sentences array is empty")
	}

	out := make([]models.Sentence, 0, len(items))
	for i, item := range items {
		obj, ok := decode.Object(item)
		if !ok {
			return models.Classification{}, validationErr("sentence %d is not an object", i)
		}
		s, err := shapeSentence(obj, i, in)
		if err != nil {
			return models.Classification{}, err
		}
		if s.Original == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return models.Classification{}, validationErr("no usable sentences")
	}

	return models.Classification{Sentences: out}, nil
}

func shapeSentence(obj map[string]any, i int, in ClassifyInput) (models.Sentence, error) {
	original, present, ok := fieldOriginal.String(obj)
	if present && !ok {
		return models.Sentence{}, validationErr("sentence %d: original is not a string", i)
	}
	if original == "" && i < len(in.Sentences) {
		original = in.Sentences[i]
	}

	normalized, present, ok := fieldNormalized.String(obj)
	if present && !ok {
		return models.Sentence{}, validationErr("sentence %d: normalized is not a string", i)
	}
	if normalized == "" {
		normalized = textproc.Normalize(original)
	}

	rawType, present, ok := fieldSentenceType.String(obj)
	if !present || !ok {
		return models.Sentence{}, validationErr("sentence %d: type missing", i)
	}
	t, known := models.ParseSentenceType(rawType)
	if !known {
		return models.Sentence{}, validationErr("sentence %d: unknown type %q", i, rawType)
	}

	mainIdea, present, ok := fieldMainIdea.String(obj)
	if present && !ok {
		return models.Sentence{}, validationErr("sentence %d: mainIdea is not a string", i)
	}
	action, present, ok := fieldActionSuggestion.String(obj)
	if present && !ok {
		return models.Sentence{}, validationErr("sentence %d: actionSuggestion is not a string", i)
	}

	return models.Sentence{
		Original:         original,
		Normalized:       normalized,
		Type:             t,
		TypeLabel:        t.Label(),
		MainIdea:         mainIdea,
		ActionSuggestion: action,
	}, nil
}

func temperature(v float64) *float64 {
	return &v
}
