// Package agent answers free-form market questions with a tool-calling model
// backed by the Sectors API tools.
package agent

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/supertypeai/sectors-kb/internal/agent/prompts"
	"github.com/supertypeai/sectors-kb/internal/llm"
	"github.com/supertypeai/sectors-kb/internal/logger"
)

// Result holds the outcome of one question.
type Result struct {
	RunID     string        `json:"run_id"`
	Question  string        `json:"question"`
	Answer    string        `json:"answer"`
	ToolCalls int           `json:"tool_calls"`
	Tokens    int           `json:"tokens"`
	Duration  time.Duration `json:"duration"`
	Messages  []llm.Message `json:"messages"`
}

// Config configures a Runner.
type Config struct {
	Provider    llm.LLMProvider
	Registry    *llm.ToolRegistry
	ChatOptions *llm.ChatOptions // nil means temperature 0 with the provider's model
	MaxToolIter int
	Verbose     bool
}

// Runner sends each question through the tool loop.
type Runner struct {
	provider    llm.LLMProvider
	registry    *llm.ToolRegistry
	opts        *llm.ChatOptions
	maxToolIter int
	verbose     bool
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("agent: provider is required")
	}
	if cfg.Registry == nil || cfg.Registry.Count() == 0 {
		return nil, fmt.Errorf("agent: at least one tool is required")
	}
	opts := cfg.ChatOptions
	if opts == nil {
		opts = &llm.ChatOptions{Temperature: 0}
	}
	if cfg.MaxToolIter <= 0 {
		cfg.MaxToolIter = 10
	}
	return &Runner{
		provider:    cfg.Provider,
		registry:    cfg.Registry,
		opts:        opts,
		maxToolIter: cfg.MaxToolIter,
		verbose:     cfg.Verbose,
	}, nil
}

// Ask answers one question. Any provider or tool failure is returned as is.
func (r *Runner) Ask(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("agent: empty question")
	}
	start := time.Now()
	runID := uuid.NewString()
	log := logger.L().With().Str("run_id", runID).Logger()
	log.Debug().Str("question", question).Strs("tools", r.registry.Names()).Msg("agent run")

	messages := []llm.Message{
		llm.SystemMessage(prompts.System),
		llm.UserMessage(question),
	}

	cfg := llm.LoopConfig{MaxIterations: r.maxToolIter}
	if r.verbose {
		cfg.Observer = func(call llm.ToolCall, res llm.ToolResult) {
			ev := log.Info().Str("tool", call.Name).Str("args", string(call.Arguments))
			if res.Err != nil {
				ev.Err(res.Err).Msg("tool invocation failed")
				return
			}
			ev.Int("bytes", len(res.Content)).Msg("tool invocation")
		}
	}

	resp, msgs, err := llm.RunToolLoop(ctx, r.provider, r.registry, messages, r.opts, cfg)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("agent run failed")
		return nil, fmt.Errorf("answering %q: %w", question, err)
	}

	calls := 0
	for _, m := range msgs {
		calls += len(m.ToolCalls)
	}
	res := &Result{
		RunID:     runID,
		Question:  question,
		Answer:    resp.Content,
		ToolCalls: calls,
		Tokens:    resp.Usage.TotalTokens,
		Duration:  time.Since(start),
		Messages:  msgs,
	}
	log.Debug().Int("tool_calls", calls).Dur("elapsed", res.Duration).Msg("agent run done")
	return res, nil
}

// AskAll answers questions in order, writing each transcript block to w.
// It stops at the first failure.
func (r *Runner) AskAll(ctx context.Context, questions []string, w io.Writer) ([]*Result, error) {
	results := make([]*Result, 0, len(questions))
	for _, q := range questions {
		fmt.Fprintln(w, prompts.QuestionLabel, q)
		res, err := r.Ask(ctx, q)
		if err != nil {
			return results, err
		}
		WriteAnswer(w, res.Answer)
		results = append(results, res)
	}
	return results, nil
}

// WriteAnswer prints an answer block followed by the separator.
func WriteAnswer(w io.Writer, answer string) {
	fmt.Fprintf(w, "%s \n %s \n\n%s\n\n", prompts.AnswerLabel, answer, prompts.Separator)
}
