package fabriclog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Session owns the working record of one operator between extraction and
// save. Its model choice is made on the first extraction and kept.
type Session struct {
	ID string

	extractor *Extractor
	sink      Sink
	models    *ModelSelector
	now       func() time.Time
	log       *slog.Logger

	mu      sync.Mutex
	current *FabricRecord
	raw     string
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock replaces time.Now for the save date.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithSessionLogger sets the session's logger.
func WithSessionLogger(log *slog.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSession starts an empty session.
func NewSession(id string, extractor *Extractor, sink Sink, opts ...SessionOption) *Session {
	s := &Session{
		ID:        id,
		extractor: extractor,
		sink:      sink,
		models:    extractor.NewModelSelector(),
		now:       time.Now,
		log:       extractor.log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", id)
	return s
}

// Current returns a copy of the working record, or nil when there is none.
func (s *Session) Current() *FabricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// LastResponse returns the raw reply of the last extraction that reached the model.
func (s *Session) LastResponse() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

// Model returns the model chosen for this session.
func (s *Session) Model(ctx context.Context) (Model, error) {
	return s.models.Select(ctx)
}

// Clear discards the working record.
func (s *Session) Clear() {
	s.mu.Lock()
	s.current = nil
	s.raw = ""
	s.mu.Unlock()
}

// Begin starts manual entry with a blank working record. An existing
// working record is kept.
func (s *Session) Begin() *FabricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		s.current = &FabricRecord{}
	}
	return s.current.Clone()
}

// Extract runs the extractor and parser. On success the candidate becomes
// the working record. A *MalformedResponse leaves a blank working record so
// the operator can type the fields; an *ExtractionFailure leaves the working
// record as it was.
func (s *Session) Extract(ctx context.Context, in Input) (*FabricRecord, error) {
	model, err := s.models.Select(ctx)
	if err != nil {
		return nil, &ExtractionFailure{Err: err}
	}

	raw, err := s.extractor.Extract(ctx, model, in)
	if err != nil {
		s.log.Warn("Extraction failed", "model", model, "error", err)
		return nil, err
	}

	rec, err := ParseRecord(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	if err != nil {
		s.log.Warn("Model reply had no usable JSON", "error", err, "response_length", len(raw))
		s.current = &FabricRecord{}
		return nil, err
	}
	s.current = rec
	s.log.Info("Candidate record extracted", "name", rec.Name, "length_m", rec.LengthM, "total_price", rec.TotalPrice)
	return rec.Clone(), nil
}

// Save reconciles the working record with edits, stamps the capture date and
// appends it to the sink. A failed append keeps the reconciled record as the
// working record and returns *SaveFailure; a successful one clears it, so a
// repeated save returns ErrNoRecord instead of appending the row again.
func (s *Session) Save(ctx context.Context, edits Edits) (*FabricRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.log.Warn("Save without a working record rejected")
		return nil, ErrNoRecord
	}
	final := Reconcile(*s.current, edits)
	final.CapturedAt = s.now()

	if err := s.sink.Append(ctx, final.Row()); err != nil {
		s.log.Warn("Save failed, record kept for retry", "error", err)
		s.current = &final
		var sf *SaveFailure
		if errors.As(err, &sf) {
			return nil, err
		}
		return nil, &SaveFailure{Err: err}
	}

	s.log.Info("Record saved", "name", final.Name, "unit_price_per_m", final.UnitPricePerM)
	s.current = nil
	s.raw = ""
	return &final, nil
}
