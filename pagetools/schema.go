// Package pagetools is the single source of truth for the three tools the
// model may call during a generate loop: the terminal generate_changes tool
// and the two page-inspection tools. Every provider adapter renders these
// canonical definitions into its native tool-declaration shape, so a change
// here propagates to all backends. The package also hosts the dispatcher
// that routes inspection calls to the page-inspection collaborator.
package pagetools

import (
	"github.com/absmartly/browser-extension-sub003/llm"
	"github.com/absmartly/browser-extension-sub003/schema"
)

// Tool names recognized by the dispatcher and the loop engine.
const (
	ToolGenerateChanges = "generate_changes"
	ToolCSSQuery        = "css_query"
	ToolXPathQuery      = "xpath_query"
)

// IsTerminal reports whether the named tool ends the loop.
func IsTerminal(name string) bool { return name == ToolGenerateChanges }

// directiveSchema describes one DOM change directive. It mirrors the
// domchange.Directive wire contract exactly.
func directiveSchema() *schema.JSONSchema {
	return schema.Object().
		Property("selector", schema.String().Describe("CSS selector addressing the element to change")).
		Property("type", schema.Enum(
			"text", "html", "style", "styleRules", "class", "attribute",
			"javascript", "move", "create", "delete",
		).Describe("Kind of change to apply")).
		Property("value", &schema.JSONSchema{}).
		Property("states", &schema.JSONSchema{}).
		Property("add", schema.Array(schema.String()).Describe("Class names to add (type=class)")).
		Property("remove", schema.Array(schema.String()).Describe("Class names to remove (type=class)")).
		Property("element", schema.String().Describe("HTML for the new element (type=create)")).
		Property("targetSelector", schema.String().Describe("Destination selector (type=move/create)")).
		Property("position", schema.Enum("before", "after", "firstChild", "lastChild")).
		Property("important", schema.Boolean().Describe("Append !important to style values")).
		Property("waitForElement", schema.Boolean().Describe("Wait for the element to appear before applying")).
		Require("selector", "type")
}

// GenerateChangesSchema returns the canonical terminal tool definition.
// This is also the introspection hook exposed to debug tooling.
func GenerateChangesSchema() llm.ToolSchema {
	params := schema.Object().
		Property("domChanges", schema.Array(directiveSchema()).
			Describe("DOM change directives to apply")).
		Property("response", schema.String().
			Describe("Short human-readable summary of what was done")).
		Property("action", schema.Enum(
			"append", "replace_all", "replace_specific", "remove_specific", "none",
		).Describe("How the directives relate to already-applied changes")).
		Property("targetSelectors", schema.Array(schema.String()).
			Describe("Selectors of existing changes to replace or remove; required for replace_specific and remove_specific")).
		Require("domChanges", "response", "action")

	return llm.ToolSchema{
		Name: ToolGenerateChanges,
		Description: "Produce the final list of DOM change directives for the user's request. " +
			"Calling this tool ends the conversation turn.",
		Parameters: params.MarshalRaw(),
	}
}

// CSSQuerySchema returns the css_query inspection tool definition.
func CSSQuerySchema() llm.ToolSchema {
	params := schema.Object().
		Property("selectors", schema.Array(schema.String()).
			Describe("CSS selectors to capture HTML for")).
		Require("selectors")

	return llm.ToolSchema{
		Name: ToolCSSQuery,
		Description: "Fetch the current HTML of elements matching CSS selectors. " +
			"Use this instead of asking the user for page markup.",
		Parameters: params.MarshalRaw(),
	}
}

// XPathQuerySchema returns the xpath_query inspection tool definition.
func XPathQuerySchema() llm.ToolSchema {
	params := schema.Object().
		Property("xpath", schema.String().
			Describe("XPath expression to evaluate against the page")).
		Property("maxResults", schema.Number().
			Describe("Maximum number of matches to return").WithDefault(10)).
		Require("xpath")

	return llm.ToolSchema{
		Name: ToolXPathQuery,
		Description: "Evaluate an XPath expression against the page and return matching nodes, " +
			"useful when CSS selectors cannot express the query.",
		Parameters: params.MarshalRaw(),
	}
}

// Definitions returns all three canonical tool schemas in declaration order.
func Definitions() []llm.ToolSchema {
	return []llm.ToolSchema{
		GenerateChangesSchema(),
		CSSQuerySchema(),
		XPathQuerySchema(),
	}
}
