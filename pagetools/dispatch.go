package pagetools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/absmartly/browser-extension-sub003/llm"
)

// ChunkResult is the per-selector outcome of a css_query call.
type ChunkResult struct {
	Selector string `json:"selector"`
	Found    bool   `json:"found"`
	HTML     string `json:"html,omitempty"`
	Error    string `json:"error,omitempty"`
}

// XPathMatch is one node matched by an xpath_query call.
type XPathMatch struct {
	Selector    string `json:"selector,omitempty"`
	NodeType    string `json:"nodeType"`
	TextContent string `json:"textContent,omitempty"`
	HTML        string `json:"html,omitempty"`
}

// XPathResult is the outcome of an xpath_query call.
type XPathResult struct {
	Found   bool         `json:"found"`
	Matches []XPathMatch `json:"matches,omitempty"`
}

// PageInspector is the page-inspection collaborator. The in-page capture
// and XPath evaluation live outside this module; the dispatcher only
// shapes their results into tool-result messages.
type PageInspector interface {
	CaptureHTMLChunks(ctx context.Context, selectors []string) ([]ChunkResult, error)
	EvaluateXPath(ctx context.Context, expr string, maxResults int) (*XPathResult, error)
}

// SafetyValidator pre-validates selectors and XPath expressions before they
// reach the page. A failed check surfaces as a descriptive tool-result
// error rather than aborting the loop.
type SafetyValidator interface {
	CheckSelector(selector string) error
	CheckXPath(expr string) error
}

// defaultMaxResults caps xpath_query matches when the model omits the limit.
const defaultMaxResults = 10

// Dispatcher routes inspection tool calls to the page inspector and turns
// the outcome back into protocol-shaped tool-result messages. It never
// returns an error: every failure mode becomes tool-result text the model
// can read and react to.
type Dispatcher struct {
	inspector PageInspector
	safety    SafetyValidator
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. A nil logger defaults to a no-op.
func NewDispatcher(inspector PageInspector, safety SafetyValidator, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{inspector: inspector, safety: safety, logger: logger}
}

// Dispatch executes one inspection tool call and returns its tool-result
// message. The terminal tool is handled by the validator upstream and is
// never dispatched here; if it arrives anyway the result says so.
func (d *Dispatcher) Dispatch(ctx context.Context, call llm.ToolCall) llm.Message {
	switch call.Name {
	case ToolCSSQuery:
		return d.dispatchCSSQuery(ctx, call)
	case ToolXPathQuery:
		return d.dispatchXPathQuery(ctx, call)
	case ToolGenerateChanges:
		return llm.NewToolMessage(call.ID, call.Name, "Error: generate_changes is the terminal tool and is not dispatched")
	default:
		d.logger.Warn("unknown tool requested", zap.String("tool", call.Name))
		return llm.NewToolMessage(call.ID, call.Name, fmt.Sprintf("Error: Unknown tool %q", call.Name))
	}
}

func (d *Dispatcher) dispatchCSSQuery(ctx context.Context, call llm.ToolCall) llm.Message {
	var args struct {
		Selectors []string `json:"selectors"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return llm.NewToolMessage(call.ID, call.Name, fmt.Sprintf("Error: invalid css_query arguments: %v", err))
	}
	if len(args.Selectors) == 0 {
		return llm.NewToolMessage(call.ID, call.Name, "Error: css_query requires at least one selector")
	}

	// Selectors that fail the safety check are reported per-selector; the
	// remainder still get captured.
	results := make([]ChunkResult, 0, len(args.Selectors))
	capture := make([]string, 0, len(args.Selectors))
	for _, sel := range args.Selectors {
		if err := d.safety.CheckSelector(sel); err != nil {
			results = append(results, ChunkResult{Selector: sel, Found: false, Error: err.Error()})
			continue
		}
		capture = append(capture, sel)
	}

	if len(capture) > 0 {
		chunks, err := d.inspector.CaptureHTMLChunks(ctx, capture)
		if err != nil {
			d.logger.Warn("css_query capture failed", zap.Error(err))
			return llm.NewToolMessage(call.ID, call.Name, fmt.Sprintf("Error: page capture failed: %v", err))
		}
		results = append(results, chunks...)
	}

	payload, _ := json.Marshal(struct {
		Results []ChunkResult `json:"results"`
	}{Results: results})
	d.logger.Debug("css_query dispatched", zap.Int("selectors", len(args.Selectors)))
	return llm.NewToolMessage(call.ID, call.Name, string(payload))
}

func (d *Dispatcher) dispatchXPathQuery(ctx context.Context, call llm.ToolCall) llm.Message {
	var args struct {
		XPath      string `json:"xpath"`
		MaxResults int    `json:"maxResults"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return llm.NewToolMessage(call.ID, call.Name, fmt.Sprintf("Error: invalid xpath_query arguments: %v", err))
	}
	if args.XPath == "" {
		return llm.NewToolMessage(call.ID, call.Name, "Error: xpath_query requires an xpath expression")
	}
	if args.MaxResults <= 0 {
		args.MaxResults = defaultMaxResults
	}

	if err := d.safety.CheckXPath(args.XPath); err != nil {
		return llm.NewToolMessage(call.ID, call.Name, fmt.Sprintf("Error: XPath rejected: %v", err))
	}

	result, err := d.inspector.EvaluateXPath(ctx, args.XPath, args.MaxResults)
	if err != nil {
		d.logger.Warn("xpath_query evaluation failed", zap.Error(err))
		return llm.NewToolMessage(call.ID, call.Name, fmt.Sprintf("Error: XPath evaluation failed: %v", err))
	}

	payload, _ := json.Marshal(result)
	d.logger.Debug("xpath_query dispatched", zap.String("xpath", args.XPath), zap.Int("max_results", args.MaxResults))
	return llm.NewToolMessage(call.ID, call.Name, string(payload))
}
