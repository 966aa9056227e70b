package fabriclog

import (
	"context"
	"log/slog"
	"sync"
)

// StubInvoker returns a fixed reply and records every call. It stands in for
// the generation service in tests.
type StubInvoker struct {
	Reply string
	Err   error

	mu    sync.Mutex
	Calls []StubCall
}

// StubCall is one recorded Generate call.
type StubCall struct {
	Model  Model
	Prompt string
	Media  []*Part
}

func (s *StubInvoker) Generate(ctx context.Context, model Model, prompt string, media []*Part) ([]byte, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, StubCall{Model: model, Prompt: prompt, Media: media})
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return []byte(s.Reply), nil
}

// CallCount reports how many calls were made.
func (s *StubInvoker) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// StubCatalog lists a fixed set of models.
type StubCatalog struct {
	Names []string
	Err   error

	mu    sync.Mutex
	Calls int
}

func (c *StubCatalog) Models(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	c.Calls++
	c.mu.Unlock()
	return c.Names, c.Err
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, row []any) error

func (f SinkFunc) Append(ctx context.Context, row []any) error { return f(ctx, row) }

// MemorySink collects appended rows.
type MemorySink struct {
	mu   sync.Mutex
	Rows [][]any
}

func (m *MemorySink) Append(ctx context.Context, row []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rows = append(m.Rows, append([]any(nil), row...))
	return nil
}

// Len reports how many rows were appended.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Rows)
}

// NewForTesting creates an Extractor backed by inv and the embedded prompts
// that doesn't require a real client.
func NewForTesting(inv Invoker, optFns ...func(*Options)) *Extractor {
	prompts, err := DefaultPrompts()
	if err != nil {
		panic(err)
	}
	return NewExtractorWithInvoker(inv, nil, prompts, slog.Default(), optFns...)
}
