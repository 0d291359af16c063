// Package engine drives the bounded request/tool-result loop shared by all
// provider adapters. One Generate call owns one logical thread of control:
// requests are strictly sequential, all tool results of a round are
// gathered in request order before the next request goes out, and the loop
// never exceeds its iteration budget or returns a partial result.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/absmartly/browser-extension-sub003/domchange"
	"github.com/absmartly/browser-extension-sub003/internal/metrics"
	"github.com/absmartly/browser-extension-sub003/llm"
	"github.com/absmartly/browser-extension-sub003/pagetools"
	"github.com/absmartly/browser-extension-sub003/prompts"
	"github.com/absmartly/browser-extension-sub003/session"
)

const (
	// DefaultMaxIterations bounds the request/tool-result loop.
	DefaultMaxIterations = 10

	// DefaultRequestTimeout bounds each outbound model request.
	DefaultRequestTimeout = 60 * time.Second
)

// Options are the per-call extras of a generate request.
type Options struct {
	// Session continues an earlier conversation; nil starts a new one.
	Session *session.Session

	// DOMStructure is a summary of the page used instead of full page
	// content on the first turn; the model then inspects elements through
	// the query tools.
	DOMStructure string

	// PageURL is included in the user turn when set.
	PageURL string
}

// Request is one generate call.
type Request struct {
	PageContent    string
	Prompt         string
	CurrentChanges []domchange.Directive
	Images         []llm.ImageContent
	Options        Options
}

// Result is the outcome of a successful generate call. It always carries
// the (possibly newly created) session so the caller can resume.
type Result struct {
	domchange.GenerationResult
	Session *session.Session
}

// Config tunes the loop. The zero value gets the defaults.
type Config struct {
	MaxIterations  int
	RequestTimeout time.Duration

	// Limiter paces outbound requests when set; the loop stays sequential
	// either way.
	Limiter *rate.Limiter

	// Metrics records loop observations when set.
	Metrics *metrics.Collector
}

// Generator wires a provider adapter to the session manager, the tool
// dispatcher and the validator, and runs the agentic loop.
type Generator struct {
	provider   llm.Provider
	sessions   *session.Manager
	dispatcher *pagetools.Dispatcher
	prompts    *prompts.Provider
	cfg        Config
	logger     *zap.Logger
}

// New creates a Generator. A nil prompt provider gets the default template;
// a nil logger defaults to a no-op.
func New(provider llm.Provider, dispatcher *pagetools.Dispatcher, promptSrc *prompts.Provider, cfg Config, logger *zap.Logger) *Generator {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if promptSrc == nil {
		promptSrc = prompts.NewProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		provider:   provider,
		sessions:   session.NewManager(logger),
		dispatcher: dispatcher,
		prompts:    promptSrc,
		cfg:        cfg,
		logger:     logger.With(zap.String("component", "engine")),
	}
}

// GetToolDefinition returns the canonical terminal tool schema, for
// introspection and debug tooling.
func (g *Generator) GetToolDefinition() llm.ToolSchema {
	return pagetools.GenerateChangesSchema()
}

// Generate turns the user's request into a validated generation result.
// The session is mutated only here: the user turn is appended on entry and
// one assistant turn with the final response text on exit.
func (g *Generator) Generate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	sess := g.sessions.CreateOrContinue(req.Options.Session)

	if !sess.HTMLSent && req.PageContent == "" && req.Options.DOMStructure == "" {
		return nil, g.fail(llm.NewError(llm.ErrMissingContext,
			"first turn requires page content or a DOM structure summary"), 0, start)
	}

	system := g.sessions.BuildSystemPrompt(
		g.prompts.SystemPrompt(), req.PageContent, req.Options.DOMStructure,
		g.provider.Name(), sess)

	msgs := make([]llm.Message, 0, len(sess.Messages)+2)
	msgs = append(msgs, llm.NewSystemMessage(system))
	for _, turn := range sess.Messages {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	userMsg := llm.NewUserMessage(g.buildUserContent(req)).WithImages(req.Images)
	msgs = append(msgs, userMsg)
	sess.Append(llm.RoleUser, req.Prompt)

	chatReq := &llm.ChatRequest{
		Messages: msgs,
		Tools:    pagetools.Definitions(),
	}

	for round := 1; round <= g.cfg.MaxIterations; round++ {
		if g.cfg.Limiter != nil {
			if err := g.cfg.Limiter.Wait(ctx); err != nil {
				return nil, g.fail(err, round, start)
			}
		}

		resp, err := g.complete(ctx, chatReq)
		if err != nil {
			return nil, g.fail(err, round, start)
		}
		if len(resp.Choices) == 0 {
			return nil, g.fail(llm.NewError(llm.ErrUpstreamError,
				"provider returned no choices").WithProvider(g.provider.Name()), round, start)
		}
		assistant := resp.Choices[0].Message

		// A terminal call wins over inspection calls in the same response.
		if terminal := findTerminal(assistant.ToolCalls); terminal != nil {
			vr := domchange.Validate(terminal.Arguments)
			if !vr.Valid {
				g.logger.Warn("terminal tool output invalid",
					zap.Strings("violations", vr.Errors))
				return nil, g.fail(llm.NewError(llm.ErrToolValidation,
					"model output failed validation").WithCause(vr.Err()), round, start)
			}
			sess.Append(llm.RoleAssistant, vr.Result.Response)
			g.observe("final", round, start)
			g.logger.Info("generate complete",
				zap.Int("rounds", round),
				zap.Int("dom_changes", len(vr.Result.DOMChanges)),
				zap.String("action", string(vr.Result.Action)))
			return &Result{GenerationResult: *vr.Result, Session: sess}, nil
		}

		if len(assistant.ToolCalls) == 0 {
			// Conversational reply, no page changes.
			sess.Append(llm.RoleAssistant, assistant.Content)
			g.observe("conversational", round, start)
			return &Result{
				GenerationResult: domchange.GenerationResult{
					DOMChanges: []domchange.Directive{},
					Response:   assistant.Content,
					Action:     domchange.ActionNone,
				},
				Session: sess,
			}, nil
		}

		// Inspection round: dispatch every call in request order, then ask
		// again with the gathered results.
		g.logger.Debug("dispatching inspection tools",
			zap.Int("round", round), zap.Int("calls", len(assistant.ToolCalls)))
		chatReq.Messages = append(chatReq.Messages, assistant)
		for _, call := range assistant.ToolCalls {
			if g.cfg.Metrics != nil {
				g.cfg.Metrics.ObserveDispatch(call.Name)
			}
			chatReq.Messages = append(chatReq.Messages, g.dispatcher.Dispatch(ctx, call))
		}
	}

	return nil, g.fail(llm.NewError(llm.ErrIterationBudget,
		fmt.Sprintf("no final answer after %d request rounds", g.cfg.MaxIterations)),
		g.cfg.MaxIterations, start)
}

// complete issues one model request under the per-request deadline. An
// expired deadline reports as an upstream timeout, distinct from whatever
// the provider itself returns.
func (g *Generator) complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	rctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	resp, err := g.provider.Completion(rctx, req)
	if err != nil {
		if rctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, llm.NewError(llm.ErrUpstreamTimeout,
				fmt.Sprintf("model request exceeded %s", g.cfg.RequestTimeout)).
				WithProvider(g.provider.Name()).WithCause(err)
		}
		return nil, err
	}
	return resp, nil
}

// buildUserContent composes the user turn: the prompt, the echoed
// already-applied changes and the page URL when present.
func (g *Generator) buildUserContent(req *Request) string {
	content := req.Prompt
	if len(req.CurrentChanges) > 0 {
		echoed, err := json.Marshal(req.CurrentChanges)
		if err == nil {
			content += "\n\nChanges already applied to the page:\n```json\n" + string(echoed) + "\n```"
		}
	}
	if req.Options.PageURL != "" {
		content += "\n\nPage URL: " + req.Options.PageURL
	}
	return content
}

func (g *Generator) observe(outcome string, rounds int, start time.Time) {
	if g.cfg.Metrics == nil {
		return
	}
	g.cfg.Metrics.ObserveGenerate(g.provider.Name(), outcome, rounds, time.Since(start))
}

func (g *Generator) fail(err error, rounds int, start time.Time) error {
	kind := llm.Classify(err)
	if g.cfg.Metrics != nil {
		g.cfg.Metrics.ObserveFailure(string(kind))
		g.cfg.Metrics.ObserveGenerate(g.provider.Name(), "error", rounds, time.Since(start))
	}
	g.logger.Warn("generate failed",
		zap.String("kind", string(kind)),
		zap.Int("rounds", rounds),
		zap.Error(err))
	return err
}

func findTerminal(calls []llm.ToolCall) *llm.ToolCall {
	for i := range calls {
		if pagetools.IsTerminal(calls[i].Name) {
			return &calls[i]
		}
	}
	return nil
}
