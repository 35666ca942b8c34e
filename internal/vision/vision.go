// Package vision wraps the Google Cloud Vision image annotation API behind a
// small interface shared by the OCR engine and the crop image analyzer.
package vision

import (
	"context"
	"fmt"
)

// Feature selects the single annotation requested from the service
type Feature int

const (
	// FeatureDocumentText requests dense document OCR
	FeatureDocumentText Feature = iota
	// FeatureLabels requests label detection
	FeatureLabels
	// FeatureObjects requests object localization
	FeatureObjects
)

func (f Feature) String() string {
	switch f {
	case FeatureDocumentText:
		return "document_text_detection"
	case FeatureLabels:
		return "label_detection"
	case FeatureObjects:
		return "object_localization"
	default:
		return fmt.Sprintf("feature(%d)", int(f))
	}
}

// Label is one label annotation with its raw confidence
type Label struct {
	Description string
	Score       float32
}

// Object is one localized object with its raw confidence
type Object struct {
	Name  string
	Score float32
}

// Annotation is the service response for a single image and feature.
// ErrorMessage carries an error the service reported inside an otherwise
// successful response.
type Annotation struct {
	FullText     string
	HasFullText  bool
	Labels       []Label
	Objects      []Object
	ErrorMessage string
}

// Annotator runs one feature against one image
type Annotator interface {
	Annotate(ctx context.Context, content []byte, feature Feature) (*Annotation, error)
}

// CallError is returned when a request to the service itself fails
type CallError struct {
	Feature Feature
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("vision %s: %v", e.Feature, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
