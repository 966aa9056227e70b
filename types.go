package fabriclog

import (
	"context"
	"time"
)

// Model represents a model identifier
type Model string

// PromptProvider should return the prompt template text for the given tag
type PromptProvider interface {
	GetPrompt(tag string, version int) (string, error)
}

// ContextualPromptProvider extends PromptProvider to support template variables.
type ContextualPromptProvider interface {
	PromptProvider
	GetPromptWithContext(tag string, version int, vars map[string]any) (string, error)
}

// Invoker abstraction allows mocking the generation service.
type Invoker interface {
	Generate(ctx context.Context, model Model, prompt string, media []*Part) ([]byte, error)
}

// ModelCatalog lists the model identifiers the generation service can serve
// for content generation.
type ModelCatalog interface {
	Models(ctx context.Context) ([]string, error)
}

// DefaultModels is the prioritized candidate list used when none is configured.
var DefaultModels = []string{"gemini-1.5-flash-latest", "gemini-1.5-flash", "gemini-pro"}

// DefaultPromptTag names the embedded instruction template.
const DefaultPromptTag = "fabric"

// Options represents functional options for extraction
type Options struct {
	Models        []string          // prioritized candidates, nil → DefaultModels
	Timeout       time.Duration     // 0 → rely on the client's own timeout
	Prompt        string            // template tag, "" → DefaultPromptTag
	PromptVersion int               // passed through to the provider
	Parameters    map[string]string // generation parameters (temperature, topK, ...)
}

// Functional option constructors
func WithModels(names ...string) func(*Options) {
	return func(o *Options) { o.Models = names }
}

func WithTimeout(d time.Duration) func(*Options) {
	return func(o *Options) { o.Timeout = d }
}

func WithPrompt(tag string) func(*Options) {
	return func(o *Options) { o.Prompt = tag }
}

func WithPromptVersion(v int) func(*Options) {
	return func(o *Options) { o.PromptVersion = v }
}

// WithParameter sets a single generation parameter such as "temperature".
func WithParameter(key, value string) func(*Options) {
	return func(o *Options) {
		if o.Parameters == nil {
			o.Parameters = make(map[string]string)
		}
		o.Parameters[key] = value
	}
}

func (o Options) models() []string {
	if len(o.Models) == 0 {
		return DefaultModels
	}
	return o.Models
}

func (o Options) promptTag() string {
	if o.Prompt == "" {
		return DefaultPromptTag
	}
	return o.Prompt
}

func (o Options) promptVersion() int {
	if o.PromptVersion == 0 {
		return 1
	}
	return o.PromptVersion
}
