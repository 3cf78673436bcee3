package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tashrique/cl-rag/internal/core/domain"
	"github.com/tashrique/cl-rag/internal/infrastructure/resilience"
)

// Embedding task types. Document and query embeddings are optimized
// differently by the backend and must not be mixed.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, genModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Embedder builds vectors for documents and queries.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

type embedRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType"`
	Title    string  `json:"title,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

func (e *Embedder) EmbedDocument(ctx context.Context, text, title string) ([]float32, error) {
	return e.client.embed(ctx, text, taskRetrievalDocument, title)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.client.embed(ctx, text, taskRetrievalQuery, "")
}

func (c *Client) embed(ctx context.Context, text, taskType, title string) ([]float32, error) {
	request := embedRequest{
		Model:    "models/" + c.embedModel,
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: taskType,
		Title:    title,
	}

	var response struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}

	path := fmt.Sprintf("/v1beta/models/%s:embedContent", c.embedModel)
	if err := c.postJSON(ctx, path, request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Embedding.Values, nil
}

// Generator produces answer text grounded in retrieved entries.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, query string, entries []domain.ResultEntry) (string, error) {
	return g.client.generate(ctx, buildAnswerPrompt(query, entries))
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"contents": []content{{Parts: []part{{Text: prompt}}}},
	}

	var response struct {
		Candidates []struct {
			Content content `json:"content"`
		} `json:"candidates"`
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.genModel)
	if err := c.postJSON(ctx, path, request, &response, "generate"); err != nil {
		return "", err
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty generation result")
	}
	return strings.TrimSpace(response.Candidates[0].Content.Parts[0].Text), nil
}
