package agent

import (
	"context"
	"fmt"
	"strings"

	"foxo/internal/llm"
	"foxo/pkg/logger"
)

// terminateSentinel is the marker the model is instructed to end its final
// answer with. It is stripped before the answer reaches the user.
const terminateSentinel = "TERMINATE"

// continuePrompt nudges the model onward when it replies with text that does
// not carry the sentinel.
const continuePrompt = "Please continue. If you have fully answered the question, end your response with the exact word TERMINATE."

const systemPrompt = "You are a helpful AI assistant. You have access to three tools: " +
	"'query_internal_knowledge_base' to answer questions using ingested documents, " +
	"'simple_calculator' to evaluate basic arithmetic expressions, and " +
	"'perform_web_search' to look up current events or general knowledge on the web. " +
	"If the user's question seems to require looking up company-specific information, " +
	"you MUST call the 'query_internal_knowledge_base' function. " +
	"Do not answer from your general knowledge if the question pertains to ingested documents. " +
	"After receiving the result from a function, present it clearly to the user. " +
	"If the function result indicates no answer or an error, relay that. " +
	"For general conversation not related to documents, you can answer directly. " +
	"After you have provided the complete answer to the user's current question, " +
	"end your response with the exact word TERMINATE."

// TurnKind classifies entries in a conversation transcript.
type TurnKind string

const (
	TurnUser       TurnKind = "user"
	TurnAssistant  TurnKind = "assistant"
	TurnToolCall   TurnKind = "tool_call"
	TurnToolResult TurnKind = "tool_result"
	TurnError      TurnKind = "error"
)

// Turn is one entry of the conversation transcript in a provider-neutral
// shape, suitable for API responses and logs.
type Turn struct {
	Kind    TurnKind `json:"kind"`
	Content string   `json:"content"`
	Tool    string   `json:"tool,omitempty"`
}

// Reply is the outcome of one assistant exchange.
type Reply struct {
	Answer string `json:"answer"`
	Turns  []Turn `json:"turns"`
}

// Router drives the tool-calling loop between the chat model and the
// Toolset. Each exchange is bounded by a fixed number of model rounds so a
// model that never terminates cannot spin forever.
type Router struct {
	model          llm.ChatModel
	tools          *Toolset
	maxAutoReplies int
	log            *logger.Logger
}

// NewRouter creates a Router. maxAutoReplies bounds the number of model
// rounds per exchange.
func NewRouter(model llm.ChatModel, tools *Toolset, maxAutoReplies int, log *logger.Logger) *Router {
	if maxAutoReplies <= 0 {
		maxAutoReplies = 5
	}
	return &Router{
		model:          model,
		tools:          tools,
		maxAutoReplies: maxAutoReplies,
		log:            log,
	}
}

// Ask runs one full exchange for the question and returns the final answer
// together with the transcript of everything that happened on the way.
func (r *Router) Ask(ctx context.Context, question string) (*Reply, error) {
	history := []llm.Message{{Role: llm.SpeakerUser, Text: question}}
	turns := []Turn{{Kind: TurnUser, Content: question}}
	specs := r.tools.Specs()

	lastAnswer := ""
	for round := 0; round < r.maxAutoReplies; round++ {
		r.log.WithPayload(map[string]interface{}{"round": round + 1}).Debug("Agent round")

		msg, err := r.model.Chat(ctx, systemPrompt, history, specs)
		if err != nil {
			return nil, fmt.Errorf("chat round %d failed: %w", round+1, err)
		}
		history = append(history, *msg)

		if msg.FunctionCall != nil {
			call := *msg.FunctionCall
			turns = append(turns, Turn{
				Kind:    TurnToolCall,
				Tool:    call.Name,
				Content: fmt.Sprintf("%v", call.Args),
			})

			result, err := r.tools.Execute(ctx, call)
			if err != nil {
				r.log.WithError(err).Error("Tool dispatch failed")
				turns = append(turns, Turn{
					Kind:    TurnError,
					Tool:    call.Name,
					Content: err.Error(),
				})
				return &Reply{
					Answer: fmt.Sprintf("Error: The assistant requested an unknown tool '%s'.", call.Name),
					Turns:  turns,
				}, nil
			}

			turns = append(turns, Turn{Kind: TurnToolResult, Tool: call.Name, Content: result})
			history = append(history, llm.Message{
				Role: llm.SpeakerTool,
				FunctionResponse: &llm.FunctionResponse{
					Name:     call.Name,
					Response: map[string]any{"result": result},
				},
			})
			continue
		}

		text := strings.TrimSpace(msg.Text)
		if text != "" {
			turns = append(turns, Turn{Kind: TurnAssistant, Content: text})
		}

		if answer, done := stripTerminate(text); done {
			if answer == "" {
				answer = lastAnswer
			}
			return &Reply{Answer: answer, Turns: turns}, nil
		}
		if text != "" {
			lastAnswer = text
		}

		history = append(history, llm.Message{Role: llm.SpeakerUser, Text: continuePrompt})
	}

	r.log.Warn("Agent exchange hit the round budget without terminating")
	if lastAnswer == "" {
		lastAnswer = "The conversation ended without a final answer."
	}
	return &Reply{Answer: lastAnswer, Turns: turns}, nil
}

// stripTerminate reports whether the text ends the exchange and returns it
// with the sentinel removed.
func stripTerminate(text string) (string, bool) {
	trimmed := strings.TrimRight(text, " \t\r\n")
	if !strings.HasSuffix(trimmed, terminateSentinel) {
		return text, false
	}
	answer := strings.TrimSuffix(trimmed, terminateSentinel)
	return strings.TrimSpace(answer), true
}
