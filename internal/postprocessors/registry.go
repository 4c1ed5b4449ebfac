package postprocessors

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

var (
	// ErrUnknownProcessor is returned when building a name nobody registered.
	ErrUnknownProcessor = errors.New("unknown processor")
	// ErrStageOrder is returned when a pipeline runs a stage before one it depends on.
	ErrStageOrder = errors.New("processor out of stage order")
	// ErrDuplicateProcessor is returned when a pipeline names a processor twice.
	ErrDuplicateProcessor = errors.New("duplicate processor")
)

// Stage orders processors inside a pipeline. A processor may only follow
// processors of the same or an earlier stage.
type Stage int

const (
	// StageSegment turns document text into articles and commi.
	StageSegment Stage = iota
	// StageChunk turns segments into chunks.
	StageChunk
	// StageEnrich decorates existing chunks.
	StageEnrich
)

func (s Stage) String() string {
	switch s {
	case StageSegment:
		return "segment"
	case StageChunk:
		return "chunk"
	case StageEnrich:
		return "enrich"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// BuilderFunc creates a PostProcessor from the generic config map parsed
// out of the settings file.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

type entry struct {
	stage   Stage
	builder BuilderFunc
}

// Registry maps processor names to their stage and builder.
type Registry struct {
	entries map[string]entry
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, stage Stage, builder BuilderFunc) {
	r.entries[name] = entry{stage: stage, builder: builder}
}

// Build creates the processor registered as name.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcessor, name)
	}
	p, err := e.builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", name, err)
	}
	return p, nil
}

// StageOf reports the stage name was registered with.
func (r *Registry) StageOf(name string) (Stage, bool) {
	e, ok := r.entries[name]
	return e.stage, ok
}

// BuildPipeline builds the named processors into a pipeline after checking
// that every name is known, appears once, and respects stage order.
// cfgs holds per-processor config keyed by name and may be nil.
func (r *Registry) BuildPipeline(names []string, cfgs map[string]map[string]any) (*Pipeline, error) {
	if err := r.validate(names); err != nil {
		return nil, err
	}
	p := NewPipeline()
	for _, name := range names {
		processor, err := r.Build(name, cfgs[name])
		if err != nil {
			return nil, err
		}
		p.Add(processor)
	}
	return p, nil
}

func (r *Registry) validate(names []string) error {
	last := StageSegment
	for i, name := range names {
		e, ok := r.entries[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProcessor, name)
		}
		if slices.Contains(names[:i], name) {
			return fmt.Errorf("%w: %s", ErrDuplicateProcessor, name)
		}
		if e.stage < last {
			return fmt.Errorf("%w: %s (%s) after %s stage", ErrStageOrder, name, e.stage, last)
		}
		last = e.stage
	}
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered names ordered by stage, then name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := r.entries[names[i]].stage, r.entries[names[j]].stage
		if si != sj {
			return si < sj
		}
		return names[i] < names[j]
	})
	return names
}
