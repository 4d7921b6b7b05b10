// Package morph extracts study-worthy content words from Japanese text using
// the kagome morphological analyzer and the IPA dictionary.
package morph

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

var (
	tk     *tokenizer.Tokenizer
	tkOnce sync.Once
)

// contentClasses are the top-level IPA parts of speech worth studying.
var contentClasses = map[string]bool{
	"名詞":  true,
	"動詞":  true,
	"形容詞": true,
}

// skippedSubclasses are second-level IPA tags that never carry lexical content.
var skippedSubclasses = map[string]bool{
	"代名詞": true,
	"数":   true,
	"非自立": true,
	"接尾":  true,
}

var stopWords = map[string]bool{
	"です":  true,
	"だ":   true,
	"する":  true,
	"ある":  true,
	"いる":  true,
	"なる":  true,
	"私":   true,
	"あなた": true,
	"こと":  true,
	"もの":  true,
}

func load() *tokenizer.Tokenizer {
	tkOnce.Do(func() {
		t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		if err != nil {
			slog.Warn("kagome tokenizer unavailable", "err", err)
			return
		}
		tk = t
	})
	return tk
}

// ContentWords returns the de-duplicated dictionary forms of the nouns, verbs
// and adjectives in text, in order of first appearance. Particles, auxiliaries,
// pronouns, numbers and a small list of very common words are skipped.
func ContentWords(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	t := load()
	if t == nil {
		return nil
	}

	seen := make(map[string]bool)
	var words []string
	for _, token := range t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		pos := token.POS()
		if len(pos) == 0 || !contentClasses[pos[0]] {
			continue
		}
		if len(pos) > 1 && skippedSubclasses[pos[1]] {
			continue
		}

		word := token.Surface
		if base, ok := token.BaseForm(); ok && base != "" && base != "*" {
			word = base
		}
		word = strings.TrimSpace(word)
		if word == "" || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}
	return words
}
