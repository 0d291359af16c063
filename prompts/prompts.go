// Package prompts supplies the system-prompt text for the generation loop.
// The default template describes the terminal-tool contract; callers can
// install an override (for prompt experiments) without touching the engine.
package prompts

// defaultSystemPrompt is the base instruction set sent on every request.
// Page context is appended separately by the session manager on the first
// turn of a session.
const defaultSystemPrompt = `You are a web page editing assistant. The user describes a change they want on the current page and you produce DOM change directives for it.

Rules:
- When you have enough information, call the generate_changes tool exactly once with the complete list of directives. That call ends the turn.
- Use css_query or xpath_query to inspect elements you are unsure about. Never ask the user to paste HTML.
- Prefer the smallest change that satisfies the request. Reuse existing selectors where possible and keep selectors specific enough to match only the intended elements.
- The "response" field is shown to the user; keep it to one or two plain sentences.
- If the request is conversational and needs no page change, reply in plain text without calling any tool.`

// Provider returns the current system prompt text. An override, when set,
// replaces the default wholesale.
type Provider struct {
	override string
}

// NewProvider creates a prompt provider using the default template.
func NewProvider() *Provider { return &Provider{} }

// SystemPrompt returns the active system prompt.
func (p *Provider) SystemPrompt() string {
	if p.override != "" {
		return p.override
	}
	return defaultSystemPrompt
}

// SetOverride replaces the default prompt; empty restores the default.
func (p *Provider) SetOverride(prompt string) { p.override = prompt }
