package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitReturnsWholeTextWhenUnderLimit(t *testing.T) {
	s := NewSplitter(100)
	text := "short paragraph one.\n\nshort paragraph two."
	got := s.Split(text)
	if len(got) != 1 || got[0] != text {
		t.Fatalf("Split() = %q, want single original text", got)
	}
}

func TestSplitAtParagraphBoundaries(t *testing.T) {
	s := NewSplitter(50)
	paraA := strings.Repeat("a", 30)
	paraB := strings.Repeat("b", 30)
	paraC := strings.Repeat("c", 30)
	got := s.Split(paraA + "\n\n" + paraB + "\n\n" + paraC)

	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %q", len(got), got)
	}
	for i, chunk := range got {
		if utf8.RuneCountInString(chunk) > 50 {
			t.Fatalf("chunk %d exceeds limit: %d chars", i, utf8.RuneCountInString(chunk))
		}
	}
}

func TestSplitOversizedParagraphAtSentences(t *testing.T) {
	s := NewSplitter(60)
	sentence := strings.Repeat("w", 24) + "."
	para := sentence + " " + sentence + " " + sentence + " " + sentence
	got := s.Split(para)

	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i, chunk := range got {
		if utf8.RuneCountInString(chunk) > 60 {
			t.Fatalf("chunk %d exceeds limit: %d chars", i, utf8.RuneCountInString(chunk))
		}
	}
}

func TestSplitSingleOversizedSentenceReturnedWhole(t *testing.T) {
	s := NewSplitter(40)
	sentence := strings.Repeat("x", 90)
	got := s.Split(sentence)

	if len(got) != 1 {
		t.Fatalf("expected oversized sentence kept whole, got %d chunks", len(got))
	}
	if got[0] != sentence {
		t.Fatalf("sentence was altered")
	}
}

func TestSplitConcatenationReconstructsText(t *testing.T) {
	s := NewSplitter(80)
	paras := []string{
		"First paragraph with some words in it.",
		"Second paragraph, also fairly short.",
		"Third paragraph that carries a little more text than the others do here.",
		"Fourth one.",
	}
	text := strings.Join(paras, "\n\n")
	got := s.Split(text)

	normalize := func(v string) string {
		return strings.Join(strings.Fields(v), " ")
	}
	if normalize(strings.Join(got, " ")) != normalize(text) {
		t.Fatalf("concatenated chunks do not reconstruct text:\n%q\nvs\n%q", strings.Join(got, " "), text)
	}
}

func TestSplitEveryChunkWithinLimit(t *testing.T) {
	s := NewSplitter(120)
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("A sentence of modest length that repeats. ")
		if i%7 == 0 {
			b.WriteString("\n\n")
		}
	}
	for i, chunk := range s.Split(b.String()) {
		if utf8.RuneCountInString(chunk) > 120 {
			t.Fatalf("chunk %d exceeds limit: %d chars", i, utf8.RuneCountInString(chunk))
		}
	}
}

func TestNewSplitterDefaultsMaxChunkSize(t *testing.T) {
	if got := NewSplitter(0).MaxChunkSize; got != 5000 {
		t.Fatalf("default MaxChunkSize = %d, want 5000", got)
	}
}
