package pagetools

import (
	"fmt"
	"strings"
)

// maxExpressionLength bounds selector and XPath length so a confused model
// cannot push arbitrarily large expressions at the page.
const maxExpressionLength = 1024

// BasicSafety is the default SafetyValidator: it rejects empty or oversized
// expressions and XPath that is obviously malformed. Page-side evaluation
// remains the real arbiter; this only catches garbage before a round trip.
type BasicSafety struct{}

func (BasicSafety) CheckSelector(selector string) error {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return fmt.Errorf("selector is empty")
	}
	if len(trimmed) > maxExpressionLength {
		return fmt.Errorf("selector exceeds %d characters", maxExpressionLength)
	}
	return nil
}

func (BasicSafety) CheckXPath(expr string) error {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return fmt.Errorf("xpath is empty")
	}
	if len(trimmed) > maxExpressionLength {
		return fmt.Errorf("xpath exceeds %d characters", maxExpressionLength)
	}
	if strings.Count(trimmed, "(") != strings.Count(trimmed, ")") {
		return fmt.Errorf("unbalanced parentheses")
	}
	if strings.Count(trimmed, "[") != strings.Count(trimmed, "]") {
		return fmt.Errorf("unbalanced brackets")
	}
	return nil
}
