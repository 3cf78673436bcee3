package usecase

import (
	"context"
	"fmt"

	"github.com/tashrique/cl-rag/internal/core/domain"
	"github.com/tashrique/cl-rag/internal/core/ports"
)

// QueryUseCase answers a query from retrieved context. Retrieval is advisory
// and cannot fail; only answer generation surfaces errors.
type QueryUseCase struct {
	searcher  ports.SemanticSearcher
	generator ports.AnswerGenerator
}

func NewQueryUseCase(searcher ports.SemanticSearcher, generator ports.AnswerGenerator) *QueryUseCase {
	return &QueryUseCase{
		searcher:  searcher,
		generator: generator,
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, query string, topK int) (*domain.Answer, error) {
	entries := uc.searcher.SemanticSearch(ctx, query, topK)

	answerText, err := uc.generator.GenerateAnswer(ctx, query, entries)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:    answerText,
		Sources: entries,
	}, nil
}
