// Package visiontest provides a scripted vision.Annotator for tests.
package visiontest

import (
	"context"
	"sync"

	"github.com/a3tai/farm-analyzer/internal/vision"
)

// Fake returns canned annotations per feature and records every call
type Fake struct {
	Responses map[vision.Feature]*vision.Annotation
	Errors    map[vision.Feature]error

	mu    sync.Mutex
	calls []vision.Feature
}

// NewFake creates an empty Fake; unscripted features return an empty annotation
func NewFake() *Fake {
	return &Fake{
		Responses: make(map[vision.Feature]*vision.Annotation),
		Errors:    make(map[vision.Feature]error),
	}
}

// Annotate implements vision.Annotator
func (f *Fake) Annotate(ctx context.Context, _ []byte, feature vision.Feature) (*vision.Annotation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, feature)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &vision.CallError{Feature: feature, Err: err}
	}
	if err, ok := f.Errors[feature]; ok && err != nil {
		return nil, &vision.CallError{Feature: feature, Err: err}
	}
	if a, ok := f.Responses[feature]; ok && a != nil {
		return a, nil
	}
	return &vision.Annotation{}, nil
}

// Calls returns the features requested so far, in order
func (f *Fake) Calls() []vision.Feature {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]vision.Feature, len(f.calls))
	copy(out, f.calls)
	return out
}
