// Package session implements the caller-owned conversation session and the
// manager that creates, continues and primes sessions with page context.
// The core never stores sessions; each generate call receives one (or
// none) and returns it so the caller can resume later.
package session

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/llm"
	"github.com/absmartly/browser-extension-sub003/llm/tokenizer"
)

// Turn is one visible conversation turn. Sessions record only user and
// assistant turns; the tool-result traffic inside a generate call is
// working state, not history.
type Turn struct {
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
}

// Session is the cross-call conversation state. HTMLSent flips to true the
// first time page context is injected into the system prompt and gates
// that injection forever after. ConversationID carries a backend-specific
// continuation id when the backend supports one.
type Session struct {
	ID             string `json:"id"`
	HTMLSent       bool   `json:"html_sent"`
	Messages       []Turn `json:"messages"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Append records a turn. Messages is append-only within one generate call.
func (s *Session) Append(role llm.Role, content string) {
	s.Messages = append(s.Messages, Turn{Role: role, Content: content})
}

// Manager creates and primes sessions.
type Manager struct {
	logger  *zap.Logger
	counter *tokenizer.Counter
}

// NewManager creates a session manager. A nil logger defaults to a no-op.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:  logger.With(zap.String("component", "session")),
		counter: tokenizer.NewCounter(""),
	}
}

// CreateOrContinue returns the existing session unchanged, or a fresh one
// with a new unique id. Calling it twice with the same session returns the
// identical object.
func (m *Manager) CreateOrContinue(existing *Session) *Session {
	if existing != nil {
		return existing
	}
	s := &Session{
		ID:       uuid.NewString(),
		HTMLSent: false,
		Messages: []Turn{},
	}
	m.logger.Debug("session created", zap.String("session_id", s.ID))
	return s
}

// BuildSystemPrompt renders the system prompt for one request. On a
// session's first turn it appends the page-content block, or the
// DOM-structure block instructing the model to use the inspection tools
// instead of asking the user for HTML, and flips HTMLSent exactly once.
// Every later call returns base unchanged.
func (m *Manager) BuildSystemPrompt(base, pageContent, domStructure, providerLabel string, s *Session) string {
	if s.HTMLSent {
		return base
	}

	prompt := base
	switch {
	case domStructure != "":
		prompt += "\n\n## Page structure\n" + domStructure +
			"\n\nThe full page HTML was not included. Use the css_query and xpath_query tools " +
			"to inspect any element you need; never ask the user to paste HTML."
		s.HTMLSent = true
	case pageContent != "":
		prompt += "\n\n## Page content\n" + pageContent
		s.HTMLSent = true
	default:
		// Nothing to inject; the engine rejects this case before calling.
		return base
	}

	m.logger.Info("page context injected",
		zap.String("session_id", s.ID),
		zap.String("provider", providerLabel),
		zap.Int("prompt_tokens_estimate", m.counter.Count(prompt)))
	return prompt
}
