package pipeline

import (
	"context"
	"fmt"
	"strings"

	"foxo/internal/rag/interfaces"
	"foxo/internal/rag/schema"
	"foxo/pkg/logger"
)

// NoContextSentinel stands in for the context block when retrieval found
// nothing. The prompt instructs the model to refuse rather than guess, so the
// sentinel keeps the template shape intact on empty results.
const NoContextSentinel = "No context documents found."

// snippetLimit caps how much of each chunk is shown to the model.
const snippetLimit = 1500

const qaTemplate = `
You are an AI assistant for answering questions based on the provided context.
Your task is to synthesize an answer from the retrieved document snippets.
If the context doesn't contain the answer, state that you cannot answer based on the provided information.
Do NOT use any external knowledge.
After providing the answer, list the sources you used from the context, including the Filename and Page number.

CONTEXT:
%s

QUESTION:
%s

ANSWER:
`

// FormatContext renders retrieved chunks into the context block of the QA
// prompt. Each chunk gets a numbered source header so the model can cite the
// originating file and page.
func FormatContext(docs []*schema.Document) string {
	if len(docs) == 0 {
		return NoContextSentinel
	}

	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		header := fmt.Sprintf("Source %d (File: %s, Page: %s)", i+1, doc.Source(), doc.PageLabel())
		snippet := doc.Text
		if runes := []rune(snippet); len(runes) > snippetLimit {
			snippet = string(runes[:snippetLimit])
		}
		parts = append(parts, fmt.Sprintf("%s:\n%s\n---\n", header, snippet))
	}
	return strings.Join(parts, "\n")
}

// QAResult carries the answer together with the chunks that grounded it.
type QAResult struct {
	Question    string
	Answer      string
	ContextDocs []*schema.Document
}

// QAPipeline answers a question strictly from retrieved document context.
type QAPipeline struct {
	retriever *RetrievalPipeline
	llm       interfaces.LLM
	log       *logger.Logger
}

// NewQAPipeline creates a new QAPipeline.
func NewQAPipeline(retriever *RetrievalPipeline, llm interfaces.LLM, log *logger.Logger) *QAPipeline {
	return &QAPipeline{
		retriever: retriever,
		llm:       llm,
		log:       log,
	}
}

// Run retrieves context for the question and asks the model to answer from
// that context alone.
func (p *QAPipeline) Run(ctx context.Context, question string) (*QAResult, error) {
	docs, err := p.retriever.Run(ctx, question)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(qaTemplate, FormatContext(docs), question)

	answer, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		p.log.WithError(err).Error("LLM failed to generate answer")
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &QAResult{
		Question:    question,
		Answer:      strings.TrimSpace(answer),
		ContextDocs: docs,
	}, nil
}
