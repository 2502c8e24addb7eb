package services

import (
	"strings"

	goaway "github.com/TwiN/go-away"
)

// DefaultBannedWords flag listings for restricted goods. Matching is
// case-insensitive substring over the listing's name and description.
var DefaultBannedWords = []string{
	"drug",
	"narcotic",
	"weapon",
	"firearm",
	"ammunition",
	"explosive",
	"counterfeit",
	"stolen",
}

// Classifier gives a dangerous/safe verdict for listing text. It is immutable
// after construction and safe for concurrent use.
type Classifier struct {
	bannedWords []string
	profanity   *goaway.ProfanityDetector
}

// NewClassifier builds a classifier from the default banned-word list plus any
// configured extras.
func NewClassifier(extraWords []string) *Classifier {
	words := make([]string, 0, len(DefaultBannedWords)+len(extraWords))
	for _, w := range DefaultBannedWords {
		words = append(words, strings.ToLower(w))
	}
	for _, w := range extraWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}

	return &Classifier{
		bannedWords: words,
		profanity:   goaway.NewProfanityDetector(),
	}
}

// IsDangerous reports whether the concatenated name and description trip the
// banned-word list or the profanity filter.
func (c *Classifier) IsDangerous(name, description string) bool {
	text := strings.ToLower(name + " " + description)

	for _, word := range c.bannedWords {
		if strings.Contains(text, word) {
			return true
		}
	}

	return c.profanity.IsProfane(text)
}
