package chunking

import (
	"strings"
	"unicode/utf8"
)

// Splitter breaks oversized text into chunks of at most MaxChunkSize
// characters, preferring paragraph boundaries and falling back to sentence
// boundaries inside oversized paragraphs. A single sentence longer than
// MaxChunkSize is returned whole.
type Splitter struct {
	MaxChunkSize int
}

func NewSplitter(maxChunkSize int) *Splitter {
	if maxChunkSize <= 0 {
		maxChunkSize = 5000
	}
	return &Splitter{MaxChunkSize: maxChunkSize}
}

func (s *Splitter) Split(text string) []string {
	if utf8.RuneCountInString(text) <= s.MaxChunkSize {
		return []string{text}
	}

	var chunks []string
	current := ""
	for _, para := range strings.Split(text, "\n\n") {
		// +2 accounts for the paragraph separator rejoining costs.
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(para)+2 > s.MaxChunkSize {
			if current != "" {
				chunks = append(chunks, current)
			}
			if utf8.RuneCountInString(para) > s.MaxChunkSize {
				current = s.splitParagraph(para, &chunks)
			} else {
				current = para
			}
			continue
		}
		if current != "" {
			current += "\n\n" + para
		} else {
			current = para
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitParagraph splits an oversized paragraph at ". " sentence boundaries,
// flushing completed chunks and returning the trailing buffer so following
// paragraphs can still accumulate onto it.
func (s *Splitter) splitParagraph(para string, chunks *[]string) string {
	sentences := strings.Split(strings.ReplaceAll(para, ". ", ".\n"), "\n")
	sub := ""
	for _, sentence := range sentences {
		if utf8.RuneCountInString(sub)+utf8.RuneCountInString(sentence)+1 > s.MaxChunkSize {
			if sub != "" {
				*chunks = append(*chunks, sub)
			}
			sub = sentence
			continue
		}
		if sub != "" {
			sub += " " + sentence
		} else {
			sub = sentence
		}
	}
	return sub
}
