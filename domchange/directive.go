// Package domchange defines the DOM-change directive model produced by the
// generation loop and the validator that guards untrusted model output
// before it is handed back to the caller.
package domchange

import "encoding/json"

// ChangeType enumerates the kinds of page mutations a directive can request.
type ChangeType string

const (
	ChangeText       ChangeType = "text"
	ChangeHTML       ChangeType = "html"
	ChangeStyle      ChangeType = "style"
	ChangeStyleRules ChangeType = "styleRules"
	ChangeClass      ChangeType = "class"
	ChangeAttribute  ChangeType = "attribute"
	ChangeJavascript ChangeType = "javascript"
	ChangeMove       ChangeType = "move"
	ChangeCreate     ChangeType = "create"
	ChangeDelete     ChangeType = "delete"
)

// changeTypes is the closed set accepted by the validator.
var changeTypes = map[ChangeType]bool{
	ChangeText: true, ChangeHTML: true, ChangeStyle: true,
	ChangeStyleRules: true, ChangeClass: true, ChangeAttribute: true,
	ChangeJavascript: true, ChangeMove: true, ChangeCreate: true,
	ChangeDelete: true,
}

// Position enumerates insertion points for move/create directives.
type Position string

const (
	PositionBefore     Position = "before"
	PositionAfter      Position = "after"
	PositionFirstChild Position = "firstChild"
	PositionLastChild  Position = "lastChild"
)

// Directive is one declarative page mutation, addressed by CSS selector.
// Value holds the type-specific payload: a string for text/html, an object
// for style properties, attribute maps and the like; it is passed through
// to the page layer untouched.
type Directive struct {
	Selector       string          `json:"selector"`
	Type           ChangeType      `json:"type"`
	Value          json.RawMessage `json:"value,omitempty"`
	States         json.RawMessage `json:"states,omitempty"`
	Add            []string        `json:"add,omitempty"`
	Remove         []string        `json:"remove,omitempty"`
	Element        string          `json:"element,omitempty"`
	TargetSelector string          `json:"targetSelector,omitempty"`
	Position       Position        `json:"position,omitempty"`
	Important      bool            `json:"important,omitempty"`
	WaitForElement bool            `json:"waitForElement,omitempty"`
}

// Action describes how the returned directives relate to the changes the
// caller already has applied.
type Action string

const (
	ActionAppend      Action = "append"
	ActionReplaceAll  Action = "replace_all"
	ActionReplaceSpec Action = "replace_specific"
	ActionRemoveSpec  Action = "remove_specific"
	ActionNone        Action = "none"
)

// actions is the closed set accepted by the validator.
var actions = map[Action]bool{
	ActionAppend: true, ActionReplaceAll: true, ActionReplaceSpec: true,
	ActionRemoveSpec: true, ActionNone: true,
}

// RequiresTargets reports whether the action needs a non-empty
// targetSelectors list.
func (a Action) RequiresTargets() bool {
	return a == ActionReplaceSpec || a == ActionRemoveSpec
}

// GenerationResult is the validated terminal output of one generate call.
type GenerationResult struct {
	DOMChanges      []Directive `json:"domChanges"`
	Response        string      `json:"response"`
	Action          Action      `json:"action"`
	TargetSelectors []string    `json:"targetSelectors,omitempty"`
}
