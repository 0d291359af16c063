package domchange

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationResult is the outcome of validating raw model output.
// When Valid is false, Errors lists every independent violation found.
type ValidationResult struct {
	Valid  bool
	Result *GenerationResult
	Errors []string
}

// ValidationError is returned when the terminal tool's output fails
// validation. It carries the full violation list; the generate call is
// all-or-nothing, so a partially valid result never escapes.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "tool output validation failed: " + strings.Join(e.Violations, "; ")
}

// Err converts an invalid result into a *ValidationError, or nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Violations: r.Errors}
}

// Validate checks raw terminal-tool output against the generate_changes
// contract. Rules are evaluated independently and all violations are
// reported, except a parse failure which is reported alone.
func Validate(raw json.RawMessage) ValidationResult {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ValidationResult{Errors: []string{fmt.Sprintf("output is not valid JSON: %v", err)}}
	}

	var errs []string
	result := &GenerationResult{}

	if rawChanges, ok := fields["domChanges"]; !ok {
		errs = append(errs, "missing required field: domChanges")
	} else if err := json.Unmarshal(rawChanges, &result.DOMChanges); err != nil || !isJSONArray(rawChanges) {
		errs = append(errs, "domChanges must be an array of change objects")
	} else {
		errs = append(errs, validateDirectives(result.DOMChanges)...)
	}

	if rawResponse, ok := fields["response"]; !ok {
		errs = append(errs, "missing required field: response")
	} else if err := json.Unmarshal(rawResponse, &result.Response); err != nil {
		errs = append(errs, "response must be a string")
	}

	if rawAction, ok := fields["action"]; !ok {
		errs = append(errs, "missing required field: action")
	} else if err := json.Unmarshal(rawAction, &result.Action); err != nil || !actions[result.Action] {
		errs = append(errs, fmt.Sprintf("action must be one of append, replace_all, replace_specific, remove_specific, none; got %s", rawAction))
	} else if result.Action.RequiresTargets() {
		if rawTargets, ok := fields["targetSelectors"]; !ok {
			errs = append(errs, fmt.Sprintf("action %q requires targetSelectors", result.Action))
		} else if err := json.Unmarshal(rawTargets, &result.TargetSelectors); err != nil || len(result.TargetSelectors) == 0 {
			errs = append(errs, fmt.Sprintf("action %q requires a non-empty targetSelectors array", result.Action))
		}
	} else if rawTargets, ok := fields["targetSelectors"]; ok {
		// Tolerated for the other actions; kept if well formed.
		_ = json.Unmarshal(rawTargets, &result.TargetSelectors)
	}

	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}
	if result.DOMChanges == nil {
		result.DOMChanges = []Directive{}
	}
	return ValidationResult{Valid: true, Result: result}
}

// validateDirectives checks per-directive invariants: a selector and a
// known change type. Violations name the offending index.
func validateDirectives(changes []Directive) []string {
	var errs []string
	for i, c := range changes {
		if c.Selector == "" && c.Type != ChangeJavascript && c.Type != ChangeStyleRules {
			errs = append(errs, fmt.Sprintf("domChanges[%d]: missing selector", i))
		}
		if !changeTypes[c.Type] {
			errs = append(errs, fmt.Sprintf("domChanges[%d]: unknown change type %q", i, c.Type))
		}
	}
	return errs
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b == '['
		}
	}
	return false
}
