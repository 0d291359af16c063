// Command domgen runs one generate call from the command line: it loads a
// page snapshot and a prompt, talks to the configured backend and prints
// the validated change directives as JSON. Page inspection tools are not
// available in this mode; point the model at full page content instead.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/absmartly/browser-extension-sub003/config"
	"github.com/absmartly/browser-extension-sub003/domchange"
	"github.com/absmartly/browser-extension-sub003/engine"
	"github.com/absmartly/browser-extension-sub003/internal/metrics"
	"github.com/absmartly/browser-extension-sub003/llm"
	"github.com/absmartly/browser-extension-sub003/llm/factory"
	"github.com/absmartly/browser-extension-sub003/pagetools"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to the YAML configuration file")
		pagePath    = flag.String("page", "", "path to a file with the page HTML")
		domPath     = flag.String("dom", "", "path to a file with a DOM structure summary")
		changesPath = flag.String("changes", "", "path to a JSON file with already applied change directives")
		pageURL     = flag.String("url", "", "URL of the page being edited")
		prompt      = flag.String("prompt", "", "the editing request (required)")
	)
	flag.Parse()

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "domgen: -prompt is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domgen: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "domgen: build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *pagePath, *domPath, *changesPath, *pageURL, *prompt); err != nil {
		logger.Error("generate failed",
			zap.String("kind", string(llm.Classify(err))),
			zap.Error(err))
		fmt.Fprintln(os.Stderr, llm.UserFacingMessage(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, pagePath, domPath, changesPath, pageURL, prompt string) error {
	provider, err := factory.New(factory.ProviderKind(cfg.Provider.Kind), cfg.FactoryConfig(), logger)
	if err != nil {
		return err
	}

	engCfg := engine.Config{
		MaxIterations:  cfg.Engine.MaxIterations,
		RequestTimeout: cfg.Engine.RequestTimeout,
	}
	if cfg.Engine.RateLimit > 0 {
		burst := cfg.Engine.RateBurst
		if burst <= 0 {
			burst = 1
		}
		engCfg.Limiter = rate.NewLimiter(rate.Limit(cfg.Engine.RateLimit), burst)
	}
	if cfg.Metrics.Enabled {
		ns := cfg.Metrics.Namespace
		if ns == "" {
			ns = "domgen"
		}
		engCfg.Metrics = metrics.NewCollector(ns, prometheus.NewRegistry())
	}

	dispatcher := pagetools.NewDispatcher(unavailableInspector{}, pagetools.BasicSafety{}, logger)
	gen := engine.New(provider, dispatcher, nil, engCfg, logger)

	req := &engine.Request{
		Prompt:  prompt,
		Options: engine.Options{PageURL: pageURL},
	}
	if pagePath != "" {
		data, err := os.ReadFile(pagePath)
		if err != nil {
			return fmt.Errorf("read page file: %w", err)
		}
		req.PageContent = string(data)
	}
	if domPath != "" {
		data, err := os.ReadFile(domPath)
		if err != nil {
			return fmt.Errorf("read dom file: %w", err)
		}
		req.Options.DOMStructure = string(data)
	}
	if changesPath != "" {
		data, err := os.ReadFile(changesPath)
		if err != nil {
			return fmt.Errorf("read changes file: %w", err)
		}
		var current []domchange.Directive
		if err := json.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("parse changes file: %w", err)
		}
		req.CurrentChanges = current
	}

	result, err := gen.Generate(context.Background(), req)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result.GenerationResult, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func buildLogger(settings config.LoggingSettings) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if settings.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if settings.Level != "" {
		level, err := zapcore.ParseLevel(settings.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", settings.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

// unavailableInspector rejects all page inspection. The CLI has no live
// page attached, so the model has to work from the provided page content.
type unavailableInspector struct{}

func (unavailableInspector) CaptureHTMLChunks(_ context.Context, _ []string) ([]pagetools.ChunkResult, error) {
	return nil, fmt.Errorf("page inspection is not available in CLI mode")
}

func (unavailableInspector) EvaluateXPath(_ context.Context, _ string, _ int) (*pagetools.XPathResult, error) {
	return nil, fmt.Errorf("page inspection is not available in CLI mode")
}
