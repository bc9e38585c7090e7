package compiler

import (
	"github.com/speakeasy-api/schemac/document"
	"github.com/speakeasy-api/schemac/internal/logging"
	"github.com/speakeasy-api/schemac/transform"
)

// Options configures a compilation.
type Options struct {
	// DefaultDialect applies to root documents that do not declare one
	// (default: 2020-12).
	DefaultDialect document.Dialect

	// MaxIterations bounds the number of normalization passes (default: 100).
	MaxIterations int

	// Rules replaces the normalization rule set (default: transform.DefaultRules()).
	Rules []transform.Rule

	// Logging configuration
	LogLevel string         // Log level: "error", "warn", "info", "debug" (default: "warn")
	Logger   logging.Logger // Overrides LogLevel when set

	// Collaborators; nil selects the document package defaults.
	Fetcher document.Fetcher
	Parser  document.Parser
}

// DefaultOptions returns the default configuration for compilation.
func DefaultOptions() Options {
	return Options{
		DefaultDialect: document.Draft202012,
		MaxIterations:  100,
		LogLevel:       "warn",
	}
}

func (o Options) logger() logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.New(logging.ParseLevel(o.LogLevel), nil)
}

func (o Options) rules() []transform.Rule {
	if o.Rules != nil {
		return o.Rules
	}
	return transform.DefaultRules()
}

func (o Options) contextOptions(log logging.Logger) []document.Option {
	opts := []document.Option{document.WithLogger(log)}
	if o.DefaultDialect != document.DialectUnknown {
		opts = append(opts, document.WithDefaultDialect(o.DefaultDialect))
	}
	if o.Fetcher != nil {
		opts = append(opts, document.WithFetcher(o.Fetcher))
	}
	if o.Parser != nil {
		opts = append(opts, document.WithParser(o.Parser))
	}
	return opts
}
