// Package crop describes a crop photo using label detection and object
// localization.
package crop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/farm-analyzer/internal/logging"
	"github.com/a3tai/farm-analyzer/internal/vision"
)

// Label is a detected label and its rounded score
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Object is a localized object and its rounded confidence
type Object struct {
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

// Result is the JSON shape returned to clients. On failure both lists are
// empty and Error is set.
type Result struct {
	DetectedLabels  []Label  `json:"detected_labels"`
	DetectedObjects []Object `json:"detected_objects"`
	Error           *string  `json:"error"`
}

// Outcome is the tagged result of one analysis
type Outcome struct {
	Labels   []Label
	Objects  []Object
	Duration time.Duration
	Err      error
}

// OK reports whether both detections succeeded
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result converts the outcome into its response shape
func (o Outcome) Result() *Result {
	if o.Err != nil {
		msg := o.Err.Error()
		return &Result{
			DetectedLabels:  []Label{},
			DetectedObjects: []Object{},
			Error:           &msg,
		}
	}

	r := &Result{
		DetectedLabels:  o.Labels,
		DetectedObjects: o.Objects,
	}
	if r.DetectedLabels == nil {
		r.DetectedLabels = []Label{}
	}
	if r.DetectedObjects == nil {
		r.DetectedObjects = []Object{}
	}
	return r
}

// Analyzer runs label and object detection against one image
type Analyzer struct {
	annotator vision.Annotator
	logger    *zap.Logger
}

// NewAnalyzer creates an analyzer; a nil logger discards output
func NewAnalyzer(annotator vision.Annotator, logger *zap.Logger) *Analyzer {
	logger = logging.OrNop(logger)
	return &Analyzer{annotator: annotator, logger: logger}
}

// Analyze never fails: errors are recorded in the returned Outcome.
func (a *Analyzer) Analyze(ctx context.Context, content []byte) (outcome Outcome) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			outcome.Err = fmt.Errorf("panic during image analysis: %v", rec)
		}
		if outcome.Err != nil {
			outcome.Labels, outcome.Objects = nil, nil
			a.logger.Warn("crop image analysis failed", zap.Error(outcome.Err))
		}
		outcome.Duration = time.Since(start)
		a.logger.Debug("crop image analysis finished",
			zap.Int("labels", len(outcome.Labels)),
			zap.Int("objects", len(outcome.Objects)),
			zap.Duration("elapsed", outcome.Duration),
		)
	}()

	labels, err := a.annotator.Annotate(ctx, content, vision.FeatureLabels)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	objects, err := a.annotator.Annotate(ctx, content, vision.FeatureObjects)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	// the label error wins when both calls report one
	if msg := firstNonEmpty(labels.ErrorMessage, objects.ErrorMessage); msg != "" {
		outcome.Err = errors.New(msg)
		return outcome
	}

	outcome.Labels = make([]Label, 0, len(labels.Labels))
	for _, l := range labels.Labels {
		outcome.Labels = append(outcome.Labels, Label{Label: l.Description, Score: round2(l.Score)})
	}

	outcome.Objects = make([]Object, 0, len(objects.Objects))
	for _, o := range objects.Objects {
		outcome.Objects = append(outcome.Objects, Object{Object: o.Name, Confidence: round2(o.Score)})
	}

	return outcome
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func round2(score float32) float64 {
	return math.RoundToEven(float64(score)*100) / 100
}
