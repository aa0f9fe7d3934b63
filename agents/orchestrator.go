package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	appcontext "github.com/va6996/aifns/context"
	"github.com/va6996/aifns/llm"
	"github.com/va6996/aifns/log"
	"github.com/va6996/aifns/tools"
)

// DefaultMaxTurns is the function-call budget of a Run without WithMaxTurns
const DefaultMaxTurns = 10

// Result is returned by Run even when it fails. Transcript holds every
// message exchanged up to the point of return.
type Result struct {
	ConversationID string
	Completion     *llm.Completion
	Transcript     []llm.Message
	Turns          int
}

// Orchestrator sends a conversation to the model, dispatches the
// capabilities it asks for and resumes until the model stops. It keeps no
// per-conversation state and can serve concurrent Runs.
type Orchestrator struct {
	client       llm.Client
	registry     *tools.Registry
	model        string
	maxTurns     int
	modelTimeout time.Duration
	toolTimeout  time.Duration
	systemPrompt string
	temperature  *float64
	maxTokens    int64
	recorder     Recorder
}

var _ Conversation = (*Orchestrator)(nil)

type Option func(*Orchestrator)

// WithModel sets the model name sent with every request
func WithModel(model string) Option {
	return func(o *Orchestrator) { o.model = model }
}

// WithMaxTurns bounds the number of function calls one Run may dispatch
func WithMaxTurns(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxTurns = n
		}
	}
}

// WithModelTimeout bounds each model call. Zero means no limit.
func WithModelTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.modelTimeout = d }
}

// WithToolTimeout bounds each capability invocation. Zero means no limit.
func WithToolTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.toolTimeout = d }
}

// WithSystemPrompt is prepended when the transcript has no system message
func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) { o.systemPrompt = prompt }
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) Option {
	return func(o *Orchestrator) { o.temperature = &t }
}

// WithMaxTokens caps the tokens generated per completion
func WithMaxTokens(n int64) Option {
	return func(o *Orchestrator) { o.maxTokens = n }
}

// WithRecorder reports every dispatched capability call to r
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func NewOrchestrator(client llm.Client, registry *tools.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		registry: registry,
		maxTurns: DefaultMaxTurns,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry returns the capabilities offered to the model
func (o *Orchestrator) Registry() *tools.Registry {
	return o.registry
}

// Run drives the conversation until the model stops or a fatal error
// occurs. The caller's slice is copied, never modified.
func (o *Orchestrator) Run(ctx context.Context, messages []llm.Message) (*Result, error) {
	ctx, conversationID := appcontext.EnsureConversationID(ctx)

	res := &Result{
		ConversationID: conversationID,
		Transcript:     o.initialTranscript(messages),
	}
	schemas := o.registry.Schemas()

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		completion, err := o.complete(ctx, res.Transcript, schemas)
		if err != nil {
			log.Errorf(ctx, "Model request failed on turn %d: %v", res.Turns, err)
			return res, &Error{Kind: ErrModel, Turn: res.Turns, Err: err}
		}
		res.Completion = completion

		switch completion.FinishReason {
		case llm.FinishStop:
			res.Transcript = append(res.Transcript, completion.Message)
			log.Infof(ctx, "Conversation finished after %d function calls", res.Turns)
			return res, nil

		case llm.FinishLength:
			return res, &Error{Kind: ErrTruncated, FinishReason: completion.FinishReason, Turn: res.Turns}

		case llm.FinishFunctionCall:
			if err := o.dispatch(ctx, res, completion.Message); err != nil {
				return res, err
			}

		default:
			return res, &Error{Kind: ErrUnknownFinishReason, FinishReason: completion.FinishReason, Turn: res.Turns}
		}
	}
}

func (o *Orchestrator) initialTranscript(messages []llm.Message) []llm.Message {
	transcript := make([]llm.Message, 0, len(messages)+1)
	if o.systemPrompt != "" && !hasSystemMessage(messages) {
		transcript = append(transcript, llm.SystemMessage(o.systemPrompt))
	}
	return append(transcript, messages...)
}

func hasSystemMessage(messages []llm.Message) bool {
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			return true
		}
	}
	return false
}

func (o *Orchestrator) complete(ctx context.Context, transcript []llm.Message, schemas []tools.Schema) (*llm.Completion, error) {
	callCtx, cancel := withOptionalTimeout(ctx, o.modelTimeout)
	defer cancel()

	req := llm.Request{
		Model:       o.model,
		Messages:    append([]llm.Message(nil), transcript...),
		Tools:       schemas,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
	completion, err := o.client.Complete(callCtx, req)
	if err != nil {
		return nil, err
	}
	if completion == nil {
		return nil, fmt.Errorf("empty completion")
	}
	return completion, nil
}

// dispatch handles one function_call completion. Nothing is appended to the
// transcript unless the call is dispatched.
func (o *Orchestrator) dispatch(ctx context.Context, res *Result, msg llm.Message) error {
	call := msg.FunctionCall
	if call == nil {
		return &Error{Kind: ErrMalformedArguments, FinishReason: llm.FinishFunctionCall, Turn: res.Turns,
			Err: fmt.Errorf("completion has no function call")}
	}

	if res.Turns >= o.maxTurns {
		return &Error{Kind: ErrTurnBudgetExceeded, Capability: call.Name, Turn: res.Turns}
	}

	args, err := parseArguments(call.Arguments)
	if err != nil {
		return &Error{Kind: ErrMalformedArguments, Capability: call.Name, Turn: res.Turns, Err: err}
	}

	desc, ok := o.registry.Resolve(call.Name)
	if !ok {
		return &Error{Kind: ErrUnknownCapability, Capability: call.Name, Turn: res.Turns}
	}

	log.Infof(ctx, "Dispatching %s (turn %d)", call.Name, res.Turns+1)
	start := time.Now()
	result := o.invoke(ctx, desc, args)
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return err
	}

	content := encodeResult(result)
	res.Transcript = append(res.Transcript, msg, llm.FunctionResultMessage(call.Name, call.ID, content))
	res.Turns++

	if o.recorder != nil {
		rec := ToolCall{
			ConversationID: res.ConversationID,
			Turn:           res.Turns,
			Capability:     call.Name,
			Arguments:      call.Arguments,
			Result:         content,
			Duration:       elapsed,
		}
		if err := o.recorder.RecordToolCall(ctx, rec); err != nil {
			log.Warnf(ctx, "Failed to record call to %s: %v", call.Name, err)
		}
	}
	return nil
}

// invoke runs the capability under the tool timeout. A capability that
// ignores its context is abandoned when the timeout fires.
func (o *Orchestrator) invoke(ctx context.Context, desc *tools.Descriptor, args any) any {
	callCtx, cancel := withOptionalTimeout(ctx, o.toolTimeout)
	defer cancel()

	done := make(chan any, 1)
	go func() {
		done <- desc.Invoke(callCtx, args)
	}()

	select {
	case result := <-done:
		return result
	case <-callCtx.Done():
		log.Warnf(ctx, "Capability %s abandoned: %v", desc.Name(), callCtx.Err())
		return fmt.Sprintf("%s failed: %v", desc.Name(), callCtx.Err())
	}
}

func parseArguments(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// encodeResult serializes {"res": result} without HTML escaping. A result
// that cannot be encoded is replaced by the encoding error text.
func encodeResult(result any) string {
	s, err := marshalResult(result)
	if err != nil {
		s, _ = marshalResult(fmt.Sprintf("unserializable result: %v", err))
	}
	return s
}

func marshalResult(result any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any{"res": result}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
