package fields

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-drawing-fields/internal/layout"
)

// Observer receives one notification per resolved field
type Observer interface {
	ObserveField(field Field, found bool, elapsed time.Duration)
}

// Report holds the results for every configured field, in spec order
type Report struct {
	Tokens  int      `json:"tokens" yaml:"tokens"`
	Results []Result `json:"fields" yaml:"fields"`
}

// Get returns the result for f
func (r Report) Get(f Field) (Result, bool) {
	for _, res := range r.Results {
		if res.Field == f {
			return res, true
		}
	}
	return Result{}, false
}

// FoundCount returns how many fields were located
func (r Report) FoundCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Found() {
			n++
		}
	}
	return n
}

// Extractor resolves a fixed set of fields over a corpus
type Extractor struct {
	finders  []*Finder
	logger   *zap.Logger
	observer Observer
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger used for per-field diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers a metrics observer
func WithObserver(o Observer) Option {
	return func(e *Extractor) {
		e.observer = o
	}
}

// NewExtractor builds an extractor for specs. Field names must be unique.
func NewExtractor(specs []Spec, opts ...Option) (*Extractor, error) {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	seen := make(map[Field]bool, len(specs))
	for _, s := range specs {
		if seen[s.Field] {
			return nil, fmt.Errorf("duplicate field %q", s.Field)
		}
		seen[s.Field] = true

		f, err := NewFinder(s)
		if err != nil {
			return nil, fmt.Errorf("invalid field configuration: %w", err)
		}
		e.finders = append(e.finders, f)
	}
	return e, nil
}

// Specs returns the field configuration in use
func (e *Extractor) Specs() []Spec {
	out := make([]Spec, len(e.finders))
	for i, f := range e.finders {
		out[i] = f.Spec()
	}
	return out
}

// Extract resolves every field concurrently. Each field writes only its own
// slot of the report, so the output order matches the spec order.
func (e *Extractor) Extract(ctx context.Context, c *layout.Corpus) (Report, error) {
	rep := Report{Tokens: c.Len(), Results: make([]Result, len(e.finders))}

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range e.finders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep.Results[i] = e.find(f, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("field extraction interrupted: %w", err)
	}
	return rep, nil
}

// ExtractField resolves a single configured field
func (e *Extractor) ExtractField(ctx context.Context, c *layout.Corpus, field Field) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	for _, f := range e.finders {
		if f.Spec().Field == field {
			return e.find(f, c), nil
		}
	}
	return Result{}, fmt.Errorf("unknown field %q", field)
}

func (e *Extractor) find(f *Finder, c *layout.Corpus) Result {
	start := time.Now()
	res := f.Find(c)
	elapsed := time.Since(start)

	e.logger.Debug("field resolved",
		zap.String("field", string(res.Field)),
		zap.Bool("found", res.Found()),
		zap.String("value", res.Text()),
		zap.Int("tokens", c.Len()),
		zap.Duration("elapsed", elapsed),
	)
	if e.observer != nil {
		e.observer.ObserveField(res.Field, res.Found(), elapsed)
	}
	return res
}
