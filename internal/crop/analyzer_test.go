package crop

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/farm-analyzer/internal/vision"
	"github.com/a3tai/farm-analyzer/internal/vision/visiontest"
)

func scriptedFake() *visiontest.Fake {
	fake := visiontest.NewFake()
	fake.Responses[vision.FeatureLabels] = &vision.Annotation{
		Labels: []vision.Label{
			{Description: "Plant", Score: 0.9812},
			{Description: "Leaf", Score: 0.874},
			{Description: "Wheat", Score: 0.666},
		},
	}
	fake.Responses[vision.FeatureObjects] = &vision.Annotation{
		Objects: []vision.Object{
			{Name: "Plant", Score: 0.7049},
		},
	}
	return fake
}

func TestAnalyzer_Success(t *testing.T) {
	fake := scriptedFake()

	outcome := NewAnalyzer(fake, nil).Analyze(context.Background(), []byte("jpeg"))
	require.True(t, outcome.OK(), "unexpected error: %v", outcome.Err)

	assert.Equal(t, []vision.Feature{vision.FeatureLabels, vision.FeatureObjects}, fake.Calls())
	assert.Equal(t, []Label{
		{Label: "Plant", Score: 0.98},
		{Label: "Leaf", Score: 0.87},
		{Label: "Wheat", Score: 0.67},
	}, outcome.Labels)
	assert.Equal(t, []Object{{Object: "Plant", Confidence: 0.7}}, outcome.Objects)

	result := outcome.Result()
	assert.Nil(t, result.Error)
	assert.Len(t, result.DetectedLabels, 3)
}

func TestAnalyzer_EmptyDetections(t *testing.T) {
	result := NewAnalyzer(visiontest.NewFake(), nil).Analyze(context.Background(), nil).Result()

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"detected_labels":[],"detected_objects":[],"error":null}`, string(raw))
}

func TestAnalyzer_Failures(t *testing.T) {
	tests := []struct {
		name      string
		script    func(f *visiontest.Fake)
		wantMsg   string
		wantCalls []vision.Feature
	}{
		{
			name: "label service error",
			script: func(f *visiontest.Fake) {
				f.Responses[vision.FeatureLabels] = &vision.Annotation{ErrorMessage: "label quota exceeded"}
			},
			wantMsg:   "label quota exceeded",
			wantCalls: []vision.Feature{vision.FeatureLabels, vision.FeatureObjects},
		},
		{
			name: "object service error",
			script: func(f *visiontest.Fake) {
				f.Responses[vision.FeatureObjects] = &vision.Annotation{ErrorMessage: "object model unavailable"}
			},
			wantMsg:   "object model unavailable",
			wantCalls: []vision.Feature{vision.FeatureLabels, vision.FeatureObjects},
		},
		{
			name: "label error takes precedence",
			script: func(f *visiontest.Fake) {
				f.Responses[vision.FeatureLabels] = &vision.Annotation{ErrorMessage: "label failed"}
				f.Responses[vision.FeatureObjects] = &vision.Annotation{ErrorMessage: "object failed"}
			},
			wantMsg:   "label failed",
			wantCalls: []vision.Feature{vision.FeatureLabels, vision.FeatureObjects},
		},
		{
			name: "label transport error skips objects",
			script: func(f *visiontest.Fake) {
				f.Errors[vision.FeatureLabels] = errors.New("connection reset")
			},
			wantMsg:   "connection reset",
			wantCalls: []vision.Feature{vision.FeatureLabels},
		},
		{
			name: "object transport error",
			script: func(f *visiontest.Fake) {
				f.Errors[vision.FeatureObjects] = errors.New("deadline exceeded")
			},
			wantMsg:   "deadline exceeded",
			wantCalls: []vision.Feature{vision.FeatureLabels, vision.FeatureObjects},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := scriptedFake()
			tt.script(fake)

			outcome := NewAnalyzer(fake, nil).Analyze(context.Background(), []byte("jpeg"))
			assert.False(t, outcome.OK())
			assert.Equal(t, tt.wantCalls, fake.Calls())

			result := outcome.Result()
			assert.Empty(t, result.DetectedLabels)
			assert.NotNil(t, result.DetectedLabels)
			assert.Empty(t, result.DetectedObjects)
			assert.NotNil(t, result.DetectedObjects)
			require.NotNil(t, result.Error)
			assert.Contains(t, *result.Error, tt.wantMsg)
		})
	}
}

func TestAnalyzer_LabelErrorMessageIsExact(t *testing.T) {
	fake := scriptedFake()
	fake.Responses[vision.FeatureLabels] = &vision.Annotation{ErrorMessage: "Bad image data."}

	result := NewAnalyzer(fake, nil).Analyze(context.Background(), nil).Result()
	require.NotNil(t, result.Error)
	assert.Equal(t, "Bad image data.", *result.Error)
}

type panickingAnnotator struct{}

func (panickingAnnotator) Annotate(context.Context, []byte, vision.Feature) (*vision.Annotation, error) {
	panic("nil response")
}

func TestAnalyzer_RecoversPanics(t *testing.T) {
	var outcome Outcome
	assert.NotPanics(t, func() {
		outcome = NewAnalyzer(panickingAnnotator{}, nil).Analyze(context.Background(), nil)
	})
	assert.ErrorContains(t, outcome.Err, "nil response")
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float32
		want float64
	}{
		{in: 0, want: 0},
		{in: 1, want: 1},
		{in: 0.123, want: 0.12},
		{in: 0.996, want: 1},
		{in: 0.5049, want: 0.5},
		{in: 0.125, want: 0.12},
		{in: 0.375, want: 0.38},
		{in: 0.625, want: 0.62},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}
}
