package fabriclog

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// ModelSelector picks the first available model from a prioritized list and
// caches the choice.
type ModelSelector struct {
	catalog    ModelCatalog
	candidates []string
	log        *slog.Logger

	mu       sync.Mutex
	selected Model
}

// NewModelSelector builds a selector. A nil catalog selects the first
// candidate without asking the service.
func NewModelSelector(catalog ModelCatalog, candidates []string, log *slog.Logger) *ModelSelector {
	if log == nil {
		log = slog.Default()
	}
	return &ModelSelector{catalog: catalog, candidates: candidates, log: log}
}

// Candidates returns the prioritized list.
func (s *ModelSelector) Candidates() []string {
	return append([]string(nil), s.candidates...)
}

// Select returns the cached model or picks one. When the catalog cannot be
// listed, or lists none of the candidates, the last candidate is used as the
// fallback.
func (s *ModelSelector) Select(ctx context.Context) (Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected != "" {
		return s.selected, nil
	}
	if len(s.candidates) == 0 {
		return "", ErrNoModel
	}
	if s.catalog == nil {
		s.selected = Model(s.candidates[0])
		return s.selected, nil
	}

	available, err := s.catalog.Models(ctx)
	if err != nil {
		fallback := s.candidates[len(s.candidates)-1]
		s.log.Warn("Listing models failed, using fallback", "fallback", fallback, "error", err)
		s.selected = Model(fallback)
		return s.selected, nil
	}

	for _, cand := range s.candidates {
		if ModelListed(available, cand) {
			s.log.Debug("Selected model", "model", cand, "available_count", len(available))
			s.selected = Model(cand)
			return s.selected, nil
		}
	}

	fallback := s.candidates[len(s.candidates)-1]
	s.log.Warn("No candidate model listed, using fallback", "candidates", s.candidates, "fallback", fallback)
	s.selected = Model(fallback)
	return s.selected, nil
}

// Reset drops the cached choice.
func (s *ModelSelector) Reset() {
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
}

// ModelListed reports whether name is among the listed models. Listed names
// carry no "models/" prefix; a configured name may.
func ModelListed(available []string, name string) bool {
	return slices.Contains(available, normalizeModelName(name))
}

func normalizeModelName(name string) string {
	return strings.TrimPrefix(name, "models/")
}

// genaiCatalog lists models that support generateContent.
type genaiCatalog struct {
	client *genai.Client
}

func (c *genaiCatalog) Models(ctx context.Context) ([]string, error) {
	if c.client == nil {
		return nil, errors.New("client not initialized")
	}
	var out []string
	page, err := c.client.Models.List(ctx, nil)
	for {
		if errors.Is(err, genai.ErrPageDone) {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, m := range page.Items {
			if supportsGeneration(m) {
				out = append(out, normalizeModelName(m.Name))
			}
		}
		page, err = page.Next(ctx)
	}
	return out, nil
}

// supportsGeneration reports whether m lists generateContent among its
// supported actions. Models that list nothing are not usable.
func supportsGeneration(m *genai.Model) bool {
	return m != nil && slices.Contains(m.SupportedActions, "generateContent")
}
