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

// TranslateInput is the normalized text to translate.
type TranslateInput struct {
	Text string
}

// NewTranslateInput normalizes raw.
func NewTranslateInput(raw string) TranslateInput {
	return TranslateInput{Text: textproc.Normalize(raw)}
}

var fieldTranslated = decode.NewField("translated", "translation", "translatedText", "vi", "text")

// languageNames spells out the language codes LLM prompts are likely to see.
var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"id": "Indonesian",
	"ja": "Japanese",
	"ko": "Korean",
	"th": "Thai",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

func languageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// TranslateOperation translates from sourceLang into targetLang. Translator
// providers receive the bare text and the codes; LLM providers receive an
// instruction naming both languages.
func TranslateOperation(sourceLang, targetLang string) Operation[TranslateInput, models.Translation] {
	return Operation[TranslateInput, models.Translation]{
		Name: "translate",
		Check: func(in TranslateInput) error {
			if in.Text == "" {
				return ErrNoInput
			}
			return nil
		},
		Prompt: translatePrompt(sourceLang, targetLang),
		Options: provider.CallOptions{
			JSON:        true,
			Temperature: temperature(0.2),
			SourceLang:  sourceLang,
			TargetLang:  targetLang,
		},
		Validate: validateTranslation,
		Placeholder: func(in TranslateInput) models.Translation {
			return models.Translation{Source: in.Text, Translated: placeholder.Translation(in.Text)}
		},
	}
}

func translatePrompt(sourceLang, targetLang string) func(provider.Kind, TranslateInput) (string, bool) {
	source, target := languageName(sourceLang), languageName(targetLang)

	return func(kind provider.Kind, in TranslateInput) (string, bool) {
		switch kind {
		case provider.KindTranslator:
			return in.Text, true
		case provider.KindLLM:
			var b strings.Builder
			fmt.Fprintf(&b, "Translate the following %s text into natural %s.\n", source, target)
			b.WriteString("Preserve the meaning and tone; do not add explanations.\n")
			fmt.Fprintf(&b, `Answer with JSON only: {"translated":"<%s translation>"}`, target)
			b.WriteString("\n\nText:\n")
			b.WriteString(in.Text)
			return b.String(), true
		default:
			return "", false
		}
	}
}

func validateTranslation(payload any, in TranslateInput) (models.Translation, error) {
	obj, ok := decode.Object(payload)
	if !ok {
		return models.Translation{}, validationErr("payload is not an object")
	}
	translated, present, ok := fieldTranslated.String(obj)
	if !present || !ok {
		return models.Translation{}, validationErr("translated text missing")
	}
	if translated == "" {
		return models.Translation{}, validationErr("translated text is empty")
	}
	return models.Translation{Source: in.Text, Translated: translated}, nil
}
