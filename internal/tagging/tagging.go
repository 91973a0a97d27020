// Package tagging annotates transcribed text with glossary tags so a
// reader can follow culturally significant vocabulary inline. The tag map
// is supplied by the caller; nothing here touches storage.
package tagging

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptyText = errors.New("tagging: text is required")
	ErrNoTagMap  = errors.New("tagging: tag map is required")
)

// punctuation strips the sentence punctuation that would otherwise hide a
// word from the tag map ("seed," still matches "seed").
var punctuation = strings.NewReplacer(".", "", ",", "", "!", "", "?", "")

var tagPattern = regexp.MustCompile(`\[.*?\]`)

// TagWords annotates every word of text that has a tag map entry with its
// tag in brackets, preserving the original word form. Words are matched
// after stripping punctuation; whitespace runs collapse to single spaces.
func TagWords(text string, tags map[string]string) (string, error) {
	if text == "" {
		return "", ErrEmptyText
	}
	if tags == nil {
		return "", ErrNoTagMap
	}
	words := strings.Fields(text)
	out := make([]string, len(words))
	for i, word := range words {
		if tag := tags[punctuation.Replace(word)]; tag != "" {
			out[i] = word + " [" + tag + "]"
		} else {
			out[i] = word
		}
	}
	return strings.Join(out, " "), nil
}

// CountTags reports how many bracketed tags TagWords placed in tagged.
func CountTags(tagged string) int {
	return len(tagPattern.FindAllString(tagged, -1))
}
