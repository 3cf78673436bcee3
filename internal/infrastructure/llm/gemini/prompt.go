package gemini

import (
	"fmt"
	"strings"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

func buildAnswerPrompt(query string, entries []domain.ResultEntry) string {
	var contextBuilder strings.Builder
	for idx, entry := range entries {
		filename, _ := entry.Metadata[domain.PayloadFilename].(string)
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] source=%s score=%.3f\n%s\n\n",
			idx+1,
			filename,
			entry.Score,
			entry.Text,
		))
	}
	if contextBuilder.Len() == 0 {
		contextBuilder.WriteString("(no documents retrieved)\n")
	}

	return fmt.Sprintf(`Answer the user's question only from the context below.
Cite sources by their name, e.g. "according to %s".
If the context is insufficient, say so directly.

Question:
%s

Context:
%s
`, exampleSource(entries), query, contextBuilder.String())
}

func exampleSource(entries []domain.ResultEntry) string {
	for _, entry := range entries {
		if filename, ok := entry.Metadata[domain.PayloadFilename].(string); ok && filename != "" {
			return filename
		}
	}
	return "the retrieved document"
}
