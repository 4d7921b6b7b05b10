package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba-gateway/internal/decode"
	"kotoba-gateway/internal/models"
	"kotoba-gateway/internal/provider"
)

func decoded(t *testing.T, raw string) any {
	t.Helper()
	v, ok := decode.Decode(raw)
	require.True(t, ok, "fixture must decode: %s", raw)
	return v
}

func TestClassifyFallbackForCommand(t *testing.T) {
	p, err := New(ClassifyOperation(), nil, quietSettings())
	require.NoError(t, err)

	res, err := p.Run(context.Background(), NewClassifyInput("食べてください"))
	require.NoError(t, err)

	assert.Equal(t, models.ProviderFallback, res.Provider)
	require.Len(t, res.Value.Sentences, 1)
	s := res.Value.Sentences[0]
	assert.Equal(t, models.SentenceCommand, s.Type)
	assert.Equal(t, "Câu mệnh lệnh", s.TypeLabel)
}

func TestClassifyInputSplitsSentences(t *testing.T) {
	in := NewClassifyInput("  今日は晴れです。 行きますか？ ")
	assert.Equal(t, "今日は晴れです。 行きますか？", in.Text)
	assert.Equal(t, []string{"今日は晴れです", "行きますか"}, in.Sentences)
}

func TestClassifyPrompt(t *testing.T) {
	in := NewClassifyInput("今日は晴れです。行きますか")

	prompt, ok := classifyPrompt(provider.KindLLM, in)
	require.True(t, ok)
	assert.Contains(t, prompt, "1. 今日は晴れです")
	assert.Contains(t, prompt, "2. 行きますか")
	assert.Contains(t, prompt, "命令文")

	_, ok = classifyPrompt(provider.KindTranslator, in)
	assert.False(t, ok)
}

func TestValidateClassification(t *testing.T) {
	in := ClassifyInput{Sentences: []string{"行きますか", "座ってください"}}

	t.Run("aliases and defaults", func(t *testing.T) {
		payload := decoded(t, `{"sentences":[
			{"sentenceType":"疑問文","main_idea":"Hỏi","suggestion":"Đáp"},
			{"original":"座ってください","category":"命令文"}
		]}`)

		got, err := validateClassification(payload, in)
		require.NoError(t, err)
		require.Len(t, got.Sentences, 2)

		assert.Equal(t, "行きますか", got.Sentences[0].Original)
		assert.Equal(t, "行きますか", got.Sentences[0].Normalized)
		assert.Equal(t, models.SentenceQuestion, got.Sentences[0].Type)
		assert.Equal(t, "Hỏi", got.Sentences[0].MainIdea)
		assert.Equal(t, "Đáp", got.Sentences[0].ActionSuggestion)
		assert.Equal(t, models.SentenceCommand, got.Sentences[1].Type)
		assert.Equal(t, "Câu mệnh lệnh", got.Sentences[1].TypeLabel)
	})

	t.Run("top level array", func(t *testing.T) {
		got, err := validateClassification(decoded(t, `[{"type":"肯定文"}]`), in)
		require.NoError(t, err)
		assert.Equal(t, "行きますか", got.Sentences[0].Original)
	})

	t.Run("sentences beyond the input without original are dropped", func(t *testing.T) {
		got, err := validateClassification(decoded(t, `{"sentences":[{"type":"肯定文"},{"type":"肯定文"},{"type":"肯定文"}]}`), in)
		require.NoError(t, err)
		assert.Len(t, got.Sentences, 2)
	})

	rejected := map[string]string{
		"not an object":      `"text"`,
		"missing sentences":  `{"result":"ok"}`,
		"sentences not list": `{"sentences":"x"}`,
		"empty sentences":    `{"sentences":[]}`,
		"item not object":    `{"sentences":["行きますか"]}`,
		"missing type":       `{"sentences":[{"original":"行きますか"}]}`,
		"unknown type":       `{"sentences":[{"original":"行きますか","type":"感嘆文"}]}`,
		"type not string":    `{"sentences":[{"type":1}]}`,
		"original not str":   `{"sentences":[{"original":2,"type":"肯定文"}]}`,
		"main idea not str":  `{"sentences":[{"type":"肯定文","mainIdea":["x"]}]}`,
	}
	for name, raw := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := validateClassification(decoded(t, raw), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTranslatePrompt(t *testing.T) {
	in := NewTranslateInput(" こんにちは ")

	prompt := translatePrompt("ja", "vi")

	raw, ok := prompt(provider.KindTranslator, in)
	require.True(t, ok)
	assert.Equal(t, "こんにちは", raw)

	text, ok := prompt(provider.KindLLM, in)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(text, "こんにちは"))
	assert.Contains(t, text, "Translate the following Japanese text into natural Vietnamese.")
	assert.Contains(t, text, `"translated"`)
}

func TestTranslatePromptFollowsConfiguredLanguages(t *testing.T) {
	text, ok := translatePrompt("en", "FR")(provider.KindLLM, TranslateInput{Text: "good morning"})
	require.True(t, ok)
	assert.Contains(t, text, "Translate the following English text into natural French.")
	assert.Contains(t, text, "<French translation>")
	assert.NotContains(t, text, "Japanese")
	assert.NotContains(t, text, "Vietnamese")

	text, ok = translatePrompt("ja", "pt-BR")(provider.KindLLM, TranslateInput{Text: "はい"})
	require.True(t, ok)
	assert.Contains(t, text, "into natural pt-br.")
}

func TestTranslateOperationPromptsWithItsLanguages(t *testing.T) {
	var seen string
	llm := &provider.Func{
		ID:    "gemini",
		Type:  provider.KindLLM,
		Ready: true,
		Responder: func(_ context.Context, prompt string, _ provider.CallOptions) (string, error) {
			seen = prompt
			return `{"translated":"안녕하세요"}`, nil
		},
	}

	p, err := New(TranslateOperation("ja", "ko"), []provider.Provider{llm}, quietSettings())
	require.NoError(t, err)

	res, err := p.Run(context.Background(), NewTranslateInput("こんにちは"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", res.Provider)
	assert.Contains(t, seen, "Japanese text into natural Korean")
}

func TestTranslateThroughTranslator(t *testing.T) {
	lt := &provider.Func{
		ID:    "libretranslate",
		Type:  provider.KindTranslator,
		Ready: true,
		Responder: func(_ context.Context, prompt string, opts provider.CallOptions) (string, error) {
			assert.Equal(t, "こんにちは", prompt)
			assert.Equal(t, "ja", opts.SourceLang)
			assert.Equal(t, "vi", opts.TargetLang)
			return `{"translatedText":"Xin chào"}`, nil
		},
	}

	p, err := New(TranslateOperation("ja", "vi"), []provider.Provider{lt}, quietSettings())
	require.NoError(t, err)

	res, err := p.Run(context.Background(), NewTranslateInput("こんにちは"))
	require.NoError(t, err)
	assert.Equal(t, "libretranslate", res.Provider)
	assert.Equal(t, models.Translation{Source: "こんにちは", Translated: "Xin chào"}, res.Value)
}

func TestTranslatorSkippedOutsideTranslate(t *testing.T) {
	lt := &provider.Func{ID: "libretranslate", Type: provider.KindTranslator, Ready: true}

	p, err := New(ClassifyOperation(), []provider.Provider{lt}, quietSettings())
	require.NoError(t, err)

	res, err := p.Run(context.Background(), NewClassifyInput("行きますか"))
	require.NoError(t, err)
	assert.Equal(t, models.ProviderFallback, res.Provider)
	assert.Equal(t, []Stage{StageUnsupported}, stages(res.Attempts))
}

func TestTranslateFallback(t *testing.T) {
	p, err := New(TranslateOperation("ja", "vi"), nil, quietSettings())
	require.NoError(t, err)

	res, err := p.Run(context.Background(), NewTranslateInput("ありがとう"))
	require.NoError(t, err)
	assert.Equal(t, models.ProviderFallback, res.Provider)
	assert.Equal(t, "ありがとう", res.Value.Source)
	assert.Equal(t, "Tiếng Việt (server fallback): ありがとう", res.Value.Translated)
}

func TestValidateTranslation(t *testing.T) {
	in := TranslateInput{Text: "はい"}

	for _, raw := range []string{`{"translated":"Vâng"}`, `{"translation":" Vâng "}`, `{"vi":"Vâng"}`} {
		got, err := validateTranslation(decoded(t, raw), in)
		require.NoError(t, err, raw)
		assert.Equal(t, "Vâng", got.Translated)
		assert.Equal(t, "はい", got.Source)
	}

	for _, raw := range []string{`{"translated":""}`, `{"translated":3}`, `{"other":"x"}`, `["Vâng"]`} {
		_, err := validateTranslation(decoded(t, raw), in)
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
}

func TestVocabInputHints(t *testing.T) {
	in := NewVocabInput(" 私は日本語を勉強します ")
	assert.Equal(t, "私は日本語を勉強します", in.Text)
	assert.Contains(t, in.Hints, "日本語")

	prompt, ok := vocabPrompt(provider.KindLLM, in)
	require.True(t, ok)
	assert.Contains(t, prompt, "日本語")
	assert.True(t, strings.HasSuffix(prompt, in.Text))

	_, ok = vocabPrompt(provider.KindTranslator, in)
	assert.False(t, ok)
}

func TestValidateVocab(t *testing.T) {
	in := VocabInput{Text: "勉強"}

	t.Run("full payload", func(t *testing.T) {
		got, err := validateVocab(decoded(t, `{
			"mainTranslation":"học tập",
			"vocabList":[{"kanji":"勉強","reading":"べんきょう","hanViet":"miễn cường","meaning":"học",
				"synonyms":["学習"," "],"examples":[{"jp":"毎日勉強する","vi":"Học mỗi ngày"}]}]
		}`), in)
		require.NoError(t, err)

		assert.Equal(t, "勉強", got.Input)
		assert.Equal(t, "học tập", got.MainTranslation)
		require.Len(t, got.VocabList, 1)
		assert.Equal(t, models.VocabEntry{
			Kanji:    "勉強",
			Reading:  "べんきょう",
			HanViet:  "miễn cường",
			Meaning:  "học",
			Synonyms: []string{"学習"},
			Examples: []models.Example{{JP: "毎日勉強する", VI: "Học mỗi ngày"}},
		}, got.VocabList[0])
	})

	t.Run("flat payload with aliases", func(t *testing.T) {
		got, err := validateVocab(decoded(t, `{"kana":"べんきょう","definition":"học","synonyms":["学習"],
			"examples":["毎日勉強する",{"japanese":"勉強しよう","vietnamese":"Học thôi"}]}`), in)
		require.NoError(t, err)

		require.Len(t, got.VocabList, 1)
		assert.Equal(t, "học", got.MainTranslation)
		assert.Equal(t, "べんきょう", got.VocabList[0].Reading)
		assert.Equal(t, []models.Example{{JP: "毎日勉強する"}, {JP: "勉強しよう", VI: "Học thôi"}}, got.VocabList[0].Examples)
	})

	t.Run("reading defaults", func(t *testing.T) {
		got, err := validateVocab(decoded(t, `{"words":[
			{"kanji":"学習","meaning":"học","synonyms":["勉強"],"examples":[{"jp":"学習する"}]},
			{"meaning":"học","synonyms":["勉強"],"examples":[{"jp":"学習する"}]}
		]}`), in)
		require.NoError(t, err)
		assert.Equal(t, "学習", got.VocabList[0].Reading)
		assert.Equal(t, "勉強", got.VocabList[1].Reading)
	})

	rejected := map[string]string{
		"meaning only":         `{"meaning":"x"}`,
		"not an object":        `[1,2]`,
		"no list no meaning":   `{"mainTranslation":"x"}`,
		"empty list":           `{"vocabList":[]}`,
		"list not array":       `{"vocabList":{}}`,
		"entry not object":     `{"vocabList":["勉強"]}`,
		"missing meaning":      `{"vocabList":[{"kanji":"勉強","synonyms":["a"],"examples":["b"]}]}`,
		"empty synonyms":       `{"vocabList":[{"meaning":"x","synonyms":[],"examples":["b"]}]}`,
		"blank synonyms":       `{"vocabList":[{"meaning":"x","synonyms":[" "],"examples":["b"]}]}`,
		"synonym not string":   `{"vocabList":[{"meaning":"x","synonyms":[1],"examples":["b"]}]}`,
		"empty examples":       `{"vocabList":[{"meaning":"x","synonyms":["a"],"examples":[]}]}`,
		"examples without jp":  `{"vocabList":[{"meaning":"x","synonyms":["a"],"examples":[{"vi":"y"}]}]}`,
		"example wrong kind":   `{"vocabList":[{"meaning":"x","synonyms":["a"],"examples":[5]}]}`,
		"one bad entry of two": `{"vocabList":[{"meaning":"x","synonyms":["a"],"examples":["b"]},{"meaning":"y","synonyms":["a"],"examples":[]}]}`,
		"mainTranslation kind": `{"mainTranslation":1,"vocabList":[{"meaning":"x","synonyms":["a"],"examples":["b"]}]}`,
		"hanViet not a string": `{"vocabList":[{"meaning":"x","hanViet":false,"synonyms":["a"],"examples":["b"]}]}`,
	}
	for name, raw := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := validateVocab(decoded(t, raw), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestVocabRejectsFencedMeaningOnly(t *testing.T) {
	p, err := New(VocabOperation(), []provider.Provider{replying("a", "```json\n{\"meaning\":\"x\"}\n```")}, quietSettings())
	require.NoError(t, err)

	res, err := p.Run(context.Background(), VocabInput{Text: "勉強"})
	require.NoError(t, err)
	assert.Equal(t, models.ProviderFallback, res.Provider)
	assert.Equal(t, []Stage{StageValidate}, stages(res.Attempts))

	require.Len(t, res.Value.VocabList, 1)
	assert.Equal(t, "勉強", res.Value.VocabList[0].Reading)
	assert.Len(t, res.Value.VocabList[0].Examples, 2)
}
