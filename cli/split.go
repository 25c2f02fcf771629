package cli

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrUnterminatedQuote = errors.New("unterminated quote")

// SplitLine splits a shell line into words. Single quotes keep everything
// literally, a backslash outside them escapes the next character. On an
// unterminated quote the words read so far are returned with the error.
func SplitLine(line string) ([]string, error) {
	var (
		words   []string
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inWord = true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				words = append(words, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		words = append(words, word.String())
	}
	if quote != 0 || escaped {
		return words, ErrUnterminatedQuote
	}
	return words, nil
}
