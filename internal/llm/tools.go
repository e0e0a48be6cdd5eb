package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/supertypeai/sectors-kb/internal/logger"
)

// Tool represents a function/tool that can be called by the LLM.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *JSONSchema `json:"parameters"`
	Handler     ToolHandler `json:"-"`
}

// ToolHandler executes a tool call and returns a string result.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// JSONSchema represents a JSON Schema definition for tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Format      string                 `json:"format,omitempty"`
	Default     any                    `json:"default,omitempty"`
}

// ObjectSchema creates a JSON Schema for an object with the given properties.
func ObjectSchema(desc string, props map[string]*JSONSchema, required ...string) *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: desc,
		Properties:  props,
		Required:    required,
	}
}

// StringProp creates a JSON Schema for a string property.
func StringProp(desc string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc}
}

// DateProp creates a string property in YYYY-MM-DD form.
func DateProp(desc string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Format: "date"}
}

// IntProp creates a JSON Schema for an integer property.
func IntProp(desc string, def int) *JSONSchema {
	return &JSONSchema{Type: "integer", Description: desc, Default: def}
}

// ToolRegistry holds the tools offered to the model. List returns them in
// registration order.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry, replacing one with the same name.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[tool.Name]; !ok {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

// RegisterFunc registers a tool with an inline handler.
func (r *ToolRegistry) RegisterFunc(name, desc string, params *JSONSchema, handler ToolHandler) {
	r.Register(Tool{
		Name:        name,
		Description: desc,
		Parameters:  params,
		Handler:     handler,
	})
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools.
func (r *ToolRegistry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Names returns the names of all registered tools.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs a tool call and returns the string result.
func (r *ToolRegistry) Execute(ctx context.Context, call ToolCall) (string, error) {
	tool, ok := r.Get(call.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}
	if tool.Handler == nil {
		return "", fmt.Errorf("llm: tool %q has no handler", call.Name)
	}
	return tool.Handler(ctx, call.Arguments)
}

// ExecuteAll runs calls one at a time in the order given and stops at the
// first failure. The returned results cover the calls that completed.
func (r *ToolRegistry) ExecuteAll(ctx context.Context, calls []ToolCall, observe Observer) ([]ToolResult, error) {
	results := make([]ToolResult, 0, len(calls))
	for _, c := range calls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		output, err := r.Execute(ctx, c)
		res := ToolResult{ToolCallID: c.ID, Name: c.Name, Content: output, Err: err}
		if observe != nil {
			observe(c, res)
		}
		if err != nil {
			return results, fmt.Errorf("tool %s: %w", c.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Observer is called after every tool invocation.
type Observer func(call ToolCall, result ToolResult)

// ToolResult represents the result of executing a tool.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	Err        error  `json:"-"`
}

// ToMessage converts a ToolResult to a Message for feeding back to the LLM.
func (tr ToolResult) ToMessage() Message {
	return ToolResultMessage(tr.ToolCallID, tr.Name, tr.Content)
}

// LoopConfig tunes RunToolLoop.
type LoopConfig struct {
	MaxIterations int
	Observer      Observer
}

// RunToolLoop sends messages to the model, executes the tool calls it asks
// for, feeds the results back and repeats until the model answers in text.
// A failing tool call ends the loop with that error.
func RunToolLoop(ctx context.Context, provider LLMProvider, registry *ToolRegistry,
	messages []Message, opts *ChatOptions, cfg LoopConfig) (*Response, []Message, error) {

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}
	tools := registry.List()

	msgs := make([]Message, len(messages))
	copy(msgs, messages)

	for i := 0; i < maxIterations; i++ {
		resp, err := provider.Chat(ctx, msgs, tools, opts)
		if err != nil {
			return nil, msgs, err
		}
		logger.L().Debug().
			Int("iteration", i).
			Str("provider", resp.Provider).
			Int("tool_calls", len(resp.ToolCalls)).
			Int("tokens", resp.Usage.TotalTokens).
			Msg("llm response")

		if !resp.HasToolCalls() {
			msgs = append(msgs, AssistantMessage(resp.Content))
			return resp, msgs, nil
		}

		msgs = append(msgs, AssistantToolCallMessage(resp.ToolCalls))

		results, err := registry.ExecuteAll(ctx, resp.ToolCalls, cfg.Observer)
		for _, result := range results {
			msgs = append(msgs, result.ToMessage())
		}
		if err != nil {
			return nil, msgs, err
		}
	}

	return nil, msgs, fmt.Errorf("%w (%d)", ErrMaxIterations, maxIterations)
}
