package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba-gateway/internal/models"
)

func TestSentenceType(t *testing.T) {
	tests := []struct {
		sentence string
		want     models.SentenceType
	}{
		{"食べてください", models.SentenceCommand},
		{"早く寝なさい", models.SentenceCommand},
		{"静かにしろ", models.SentenceCommand},
		{"直ちに報告せよ", models.SentenceCommand},
		{"行きますか", models.SentenceQuestion},
		{"本当?", models.SentenceQuestion},
		{"本当？", models.SentenceQuestion},
		{"書いてくださいますか", models.SentenceQuestion},
		{"今日は晴れです", models.SentenceDeclarative},
		{"", models.SentenceDeclarative},
	}

	for _, tt := range tests {
		t.Run(tt.sentence, func(t *testing.T) {
			assert.Equal(t, tt.want, SentenceType(tt.sentence))
		})
	}
}

func TestSentence(t *testing.T) {
	s := Sentence("食べてください")

	assert.Equal(t, "食べてください", s.Original)
	assert.Equal(t, "食べてください", s.Normalized)
	assert.Equal(t, models.SentenceCommand, s.Type)
	assert.Equal(t, "Câu mệnh lệnh", s.TypeLabel)
	assert.Contains(t, s.MainIdea, "食べてください")
	assert.Equal(t, "Thực hiện yêu cầu được nêu (placeholder)", s.ActionSuggestion)
}

func TestSentencesDeterministic(t *testing.T) {
	in := []string{"行きますか", "座ってください", "雨です"}
	first := Sentences(in)
	second := Sentences(in)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestTranslation(t *testing.T) {
	assert.Equal(t, "Tiếng Việt (server fallback): こんにちは", Translation("こんにちは"))
}

func TestVocabulary(t *testing.T) {
	main1, entries1 := Vocabulary("こんにちは")
	main2, entries2 := Vocabulary("こんにちは")

	assert.Equal(t, main1, main2)
	assert.Equal(t, entries1, entries2)
	require.Len(t, entries1, 1)

	e := entries1[0]
	assert.Equal(t, "こんにちは", e.Reading)
	assert.NotEmpty(t, e.Meaning)
	assert.NotEmpty(t, e.Synonyms)
	assert.Len(t, e.Examples, 2)
}
