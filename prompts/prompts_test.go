package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPromptDefault(t *testing.T) {
	p := NewProvider()
	prompt := p.SystemPrompt()
	assert.Contains(t, prompt, "generate_changes")
	assert.Contains(t, prompt, "css_query")
	assert.Contains(t, prompt, "xpath_query")
}

func TestSetOverride(t *testing.T) {
	p := NewProvider()
	p.SetOverride("custom instructions")
	assert.Equal(t, "custom instructions", p.SystemPrompt())

	p.SetOverride("")
	assert.Equal(t, defaultSystemPrompt, p.SystemPrompt())
}
