package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foxo/internal/llm"
	"foxo/internal/rag/pipeline"
	"foxo/internal/rag/storages/vectorstore"
	"foxo/pkg/logger"
)

// ToolName enumerates the tools the assistant may call. The set is closed:
// anything else coming back from the model is treated as a protocol error.
type ToolName string

const (
	ToolQueryKnowledgeBase ToolName = "query_internal_knowledge_base"
	ToolCalculator         ToolName = "simple_calculator"
	ToolWebSearch          ToolName = "perform_web_search"
)

// ErrUnknownTool is returned when the model requests a tool outside the
// declared set.
var ErrUnknownTool = errors.New("unknown tool")

// KnowledgeBase answers a question from ingested documents.
type KnowledgeBase interface {
	Run(ctx context.Context, question string) (*pipeline.QAResult, error)
}

// Searcher runs a web search and reports results as text.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// Toolset holds the assistant's tools and dispatches calls to them.
type Toolset struct {
	kb     KnowledgeBase
	calc   *Calculator
	search Searcher
	log    *logger.Logger
}

// NewToolset creates a Toolset over the given tools.
func NewToolset(kb KnowledgeBase, calc *Calculator, search Searcher, log *logger.Logger) *Toolset {
	return &Toolset{
		kb:     kb,
		calc:   calc,
		search: search,
		log:    log,
	}
}

// Specs declares the tools to the model.
func (t *Toolset) Specs() []llm.ToolSpec {
	return []llm.ToolSpec{
		{
			Name:        string(ToolQueryKnowledgeBase),
			Description: "Queries the internal knowledge base (ingested documents) to answer questions about company policies, product specifications, internal reports, etc. Returns the answer and source citations.",
			Params: []llm.ToolParam{{
				Name:        "query",
				Type:        "string",
				Description: "The specific question to ask the internal knowledge base.",
				Required:    true,
			}},
		},
		{
			Name:        string(ToolCalculator),
			Description: "A simple calculator that evaluates basic arithmetic expressions. It supports addition (+), subtraction (-), multiplication (*), division (/), and parentheses.",
			Params: []llm.ToolParam{{
				Name:        "expression",
				Type:        "string",
				Description: "A basic arithmetic expression string to evaluate, for example '2+2' or '(5-3)*8'.",
				Required:    true,
			}},
		},
		{
			Name:        string(ToolWebSearch),
			Description: "Performs a web search to find up-to-date information or general knowledge not found in local documents.",
			Params: []llm.ToolParam{{
				Name:        "query",
				Type:        "string",
				Description: "The search query for up-to-date information or current events.",
				Required:    true,
			}},
		},
	}
}

// Execute runs the requested tool and returns its textual result. Tool
// failures come back as text for the model to react to. Only a request for a
// tool outside the declared set is an error.
func (t *Toolset) Execute(ctx context.Context, call llm.FunctionCall) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error(fmt.Sprintf("Tool %s panicked: %v", call.Name, r))
			result = fmt.Sprintf("Error: The tool '%s' failed unexpectedly.", call.Name)
			err = nil
		}
	}()

	switch ToolName(call.Name) {
	case ToolQueryKnowledgeBase:
		query, ok := stringArg(call.Args, "query")
		if !ok {
			return "Error: The 'query' argument is required.", nil
		}
		return t.queryKnowledgeBase(ctx, query), nil
	case ToolCalculator:
		expression, ok := stringArg(call.Args, "expression")
		if !ok {
			return "Error: The 'expression' argument is required.", nil
		}
		return t.calc.Evaluate(expression), nil
	case ToolWebSearch:
		query, ok := stringArg(call.Args, "query")
		if !ok {
			return "Error: The 'query' argument is required.", nil
		}
		return t.search.Search(ctx, query), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
}

func (t *Toolset) queryKnowledgeBase(ctx context.Context, query string) string {
	result, err := t.kb.Run(ctx, query)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return "Error: The knowledge base is not available. Ingest documents before querying it."
		}
		t.log.WithError(err).Error("Knowledge base query failed")
		return fmt.Sprintf("Sorry, an error occurred while querying the documents: %v", err)
	}

	answer := result.Answer
	if answer == "" {
		answer = "No definitive answer found in the documents."
	}

	if len(result.ContextDocs) == 0 {
		return fmt.Sprintf("Answer: %s (No specific source documents were strongly matched for this query).", answer)
	}

	citations := make([]string, 0, len(result.ContextDocs))
	for _, doc := range result.ContextDocs {
		citations = append(citations, fmt.Sprintf("[Source: %s, Page: %s]", doc.Source(), doc.PageLabel()))
	}
	return fmt.Sprintf("Answer: %s\nCited Sources: %s", answer, strings.Join(citations, "; "))
}

func stringArg(args map[string]any, name string) (string, bool) {
	raw, ok := args[name]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
