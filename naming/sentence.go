// Package naming turns ranked candidate name fragments into short,
// collision-free identifiers.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sentence is an ordered list of lower-case words.
type Sentence []string

// NewSentence splits text into words at punctuation, spaces, camelCase
// humps and letter/digit boundaries.
func NewSentence(text string) Sentence {
	var words Sentence
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(text)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			switch {
			case unicode.IsDigit(r) != unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsLower(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				// "HTTPServer" splits before the S.
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Join concatenates sentences.
func Join(parts ...Sentence) Sentence {
	var out Sentence
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// String renders the sentence as kebab-case.
func (s Sentence) String() string {
	return strings.Join(s, "-")
}

// Pascal renders the sentence as PascalCase.
func (s Sentence) Pascal() string {
	title := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	for _, w := range s {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// Camel renders the sentence as camelCase.
func (s Sentence) Camel() string {
	if len(s) == 0 {
		return ""
	}
	return s[0] + s[1:].Pascal()
}

// Snake renders the sentence as snake_case.
func (s Sentence) Snake() string {
	return strings.Join(s, "_")
}
