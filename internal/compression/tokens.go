package compression

import "unicode/utf8"

// TokenCounter estimates the token count of text.
type TokenCounter interface {
	Count(text string) int
}

// DefaultCharsPerToken is the characters-per-token ratio of EstimateCounter.
const DefaultCharsPerToken = 4

// EstimateCounter approximates tokens as ceil(characters / CharsPerToken).
type EstimateCounter struct {
	CharsPerToken int
}

// Count implements TokenCounter.
func (c EstimateCounter) Count(text string) int {
	cpt := c.CharsPerToken
	if cpt <= 0 {
		cpt = DefaultCharsPerToken
	}
	n := utf8.RuneCountInString(text)
	return (n + cpt - 1) / cpt
}
