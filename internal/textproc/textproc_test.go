package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \t\r\n ", want: ""},
		{name: "trims", input: "  こんにちは  ", want: "こんにちは"},
		{name: "strips emoji", input: "今日は😀いい天気🌞です", want: "今日はいい天気です"},
		{name: "strips heart with selector", input: "ありがとう❤️", want: "ありがとう"},
		{name: "tabs become space", input: "明日\t\t行きます", want: "明日 行きます"},
		{name: "collapses runs", input: "a   b\n\nc", want: "a b c"},
		{name: "ideographic space run", input: "東京　　大阪", want: "東京 大阪"},
		{name: "emoji at edge leaves no trailing space", input: "はい 👍", want: "はい"},
		{name: "keeps single newline", input: "一\n二", want: "一\n二"},
		{name: "keeps dingbat digits", input: "❶ 食べる ➓", want: "❶ 食べる ➓"},
		{name: "keeps ornamental brackets", input: "❨注意❩ ❰はい❱", want: "❨注意❩ ❰はい❱"},
		{name: "keeps enclosed letters", input: "🄰案", want: "🄰案"},
		{name: "strips dingbat pictographs", input: "☀晴れ✅ ✨", want: "晴れ"},
		{name: "strips flags and skin tones", input: "日本🇯🇵 👍🏽", want: "日本"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"今日は😀 いい天気 🌞 です",
		"\t食べて\r\nください。 ",
		"a \t 　 b",
		"👍👍 👍",
		"x‍y️ z",
		"改行\n\n\nのテスト\t",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: []string{}},
		{name: "terminators only", text: "。！？", want: []string{}},
		{name: "single without terminator", text: "こんにちは", want: []string{"こんにちは"}},
		{name: "single with terminator", text: "食べてください。", want: []string{"食べてください"}},
		{
			name: "mixed terminators",
			text: "行きますか？はい！ 行きます。Really?!ok",
			want: []string{"行きますか", "はい", "行きます", "Really", "ok"},
		},
		{name: "terminator runs", text: "えっ！？！本当。。", want: []string{"えっ", "本当"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text))
		})
	}
}

func TestSplitPreservesContentOrder(t *testing.T) {
	text := "一つ目です。 二つ目ですか？三つ目!  四つ目"
	strip := func(s string) string {
		s = terminatorRE.ReplaceAllString(s, "")
		return strings.Join(strings.Fields(s), "")
	}

	joined := strings.Join(Split(text), "")
	assert.Equal(t, strip(text), strip(joined))
}
