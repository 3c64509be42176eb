package usecases

import (
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/water-quality/internal/classifier"
	"github.com/abelzeko/water-quality/internal/entities"
)

// fixedClassifier always predicts the same label and remembers its input
type fixedClassifier struct {
	label classifier.Label
	err   error
	calls int
	last  entities.FeatureVector
}

func (c *fixedClassifier) Predict(features entities.FeatureVector) (classifier.Label, error) {
	c.calls++
	c.last = features
	return c.label, c.err
}

func newTestEvaluator(c classifier.Classifier) (*Evaluator, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewEvaluator(c, logger), hook
}

func TestEvaluateScenarios(t *testing.T) {
	tests := []struct {
		name            string
		reading         entities.Reading
		prediction      classifier.Label
		wantStatus      entities.Status
		wantSummary     string
		wantSuggestions []string
	}{
		{
			name:            "all-within-limits",
			reading:         entities.Reading{PH: 7.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20},
			prediction:      classifier.LabelSafe,
			wantStatus:      entities.StatusSafe,
			wantSummary:     "All parameters are within CPCB safe limits.",
			wantSuggestions: []string{},
		},
		{
			name:            "acidic-water",
			reading:         entities.Reading{PH: 5.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20},
			prediction:      classifier.LabelSafe,
			wantStatus:      entities.StatusPolluted,
			wantSummary:     "pH outside 6.5–8.5",
			wantSuggestions: []string{SuggestionPH},
		},
		{
			name:            "sewage-contaminated",
			reading:         entities.Reading{PH: 7.0, DissolvedOxygen: 4.0, BOD: 3.0, TotalColiform: 100},
			prediction:      classifier.LabelPolluted,
			wantStatus:      entities.StatusPolluted,
			wantSummary:     "Total Coliform > 50, Dissolved Oxygen < 6 mg/l, BOD > 2 mg/l",
			wantSuggestions: []string{SuggestionTotalColiform, SuggestionDO, SuggestionBOD},
		},
		{
			name:            "model-disagrees",
			reading:         entities.Reading{PH: 7.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20},
			prediction:      classifier.LabelPolluted,
			wantStatus:      entities.StatusPolluted,
			wantSummary:     "",
			wantSuggestions: []string{},
		},
		{
			name:        "every-rule-fires",
			reading:     entities.Reading{PH: 9.2, DissolvedOxygen: 2.0, BOD: 8.0, TotalColiform: 4000},
			prediction:  classifier.LabelSafe,
			wantStatus:  entities.StatusPolluted,
			wantSummary: "Total Coliform > 50, pH outside 6.5–8.5, Dissolved Oxygen < 6 mg/l, BOD > 2 mg/l",
			wantSuggestions: []string{
				SuggestionTotalColiform, SuggestionPH, SuggestionDO, SuggestionBOD,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fixedClassifier{label: tt.prediction}
			evaluator, _ := newTestEvaluator(c)

			got, err := evaluator.Evaluate(tt.reading)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantSummary, got.Summary)
			assert.Equal(t, tt.wantSuggestions, got.Suggestions)
			assert.Equal(t, 1, c.calls)
		})
	}
}

func TestEvaluateFeatureOrder(t *testing.T) {
	c := &fixedClassifier{label: classifier.LabelSafe}
	evaluator, _ := newTestEvaluator(c)

	_, err := evaluator.Evaluate(entities.Reading{PH: 7.1, DissolvedOxygen: 6.2, BOD: 1.3, TotalColiform: 40})
	require.NoError(t, err)
	assert.Equal(t, entities.FeatureVector{7.1, 6.2, 1.3, 40}, c.last)
}

func TestEvaluateBoundariesAreCompliant(t *testing.T) {
	base := entities.Reading{PH: 7.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20}

	tests := []struct {
		name   string
		modify func(r *entities.Reading)
	}{
		{"ph-lower-bound", func(r *entities.Reading) { r.PH = 6.5 }},
		{"ph-upper-bound", func(r *entities.Reading) { r.PH = 8.5 }},
		{"do-bound", func(r *entities.Reading) { r.DissolvedOxygen = 6.0 }},
		{"bod-bound", func(r *entities.Reading) { r.BOD = 2.0 }},
		{"coliform-bound", func(r *entities.Reading) { r.TotalColiform = 50 }},
		{"all-bounds-together", func(r *entities.Reading) {
			*r = entities.Reading{PH: 8.5, DissolvedOxygen: 6.0, BOD: 2.0, TotalColiform: 50}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := base
			tt.modify(&reading)
			assert.Empty(t, Violations(reading))

			evaluator, _ := newTestEvaluator(&fixedClassifier{label: classifier.LabelSafe})
			got, err := evaluator.Evaluate(reading)
			require.NoError(t, err)
			assert.True(t, got.IsSafe())
			assert.Empty(t, got.Suggestions)
		})
	}
}

func TestEvaluateJustPastBoundaries(t *testing.T) {
	base := entities.Reading{PH: 7.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20}

	tests := []struct {
		name      string
		modify    func(r *entities.Reading)
		wantLabel string
	}{
		{"ph-below", func(r *entities.Reading) { r.PH = 6.4 }, "pH outside 6.5–8.5"},
		{"ph-above", func(r *entities.Reading) { r.PH = 8.6 }, "pH outside 6.5–8.5"},
		{"do-below", func(r *entities.Reading) { r.DissolvedOxygen = 5.9 }, "Dissolved Oxygen < 6 mg/l"},
		{"bod-above", func(r *entities.Reading) { r.BOD = 2.1 }, "BOD > 2 mg/l"},
		{"coliform-above", func(r *entities.Reading) { r.TotalColiform = 60 }, "Total Coliform > 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := base
			tt.modify(&reading)

			evaluator, _ := newTestEvaluator(&fixedClassifier{label: classifier.LabelSafe})
			got, err := evaluator.Evaluate(reading)
			require.NoError(t, err)
			assert.Equal(t, entities.StatusPolluted, got.Status)
			assert.Equal(t, tt.wantLabel, got.Summary)
			assert.Len(t, got.Suggestions, 1)
		})
	}
}

func TestEvaluateOutOfRangeInputsDoNotPanic(t *testing.T) {
	readings := []entities.Reading{
		{PH: -3, DissolvedOxygen: -1, BOD: -5, TotalColiform: -100},
		{PH: 20, DissolvedOxygen: 100, BOD: 1e9, TotalColiform: 1e12},
		{PH: math.NaN(), DissolvedOxygen: math.NaN(), BOD: math.NaN(), TotalColiform: math.NaN()},
		{PH: math.Inf(1), DissolvedOxygen: math.Inf(-1), BOD: math.Inf(1), TotalColiform: math.Inf(1)},
	}

	for _, reading := range readings {
		evaluator, _ := newTestEvaluator(&fixedClassifier{label: classifier.LabelSafe})
		assert.NotPanics(t, func() {
			got, err := evaluator.Evaluate(reading)
			require.NoError(t, err)
			assert.Equal(t, entities.StatusPolluted, got.Status)
		})
	}
}

func TestEvaluateNaNOnlyBreaksPH(t *testing.T) {
	evaluator, _ := newTestEvaluator(&fixedClassifier{label: classifier.LabelSafe})

	got, err := evaluator.Evaluate(entities.Reading{
		PH: math.NaN(), DissolvedOxygen: math.NaN(), BOD: math.NaN(), TotalColiform: math.NaN(),
	})
	require.NoError(t, err)
	assert.Equal(t, "pH outside 6.5–8.5", got.Summary)
}

func TestEvaluateClassifierFailure(t *testing.T) {
	predictErr := errors.New("feature vector rejected")
	evaluator, hook := newTestEvaluator(&fixedClassifier{err: predictErr})

	got, err := evaluator.Evaluate(entities.Reading{PH: 7.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20})
	require.Error(t, err)
	assert.ErrorIs(t, err, predictErr)
	assert.Equal(t, entities.EvaluationResult{}, got)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Data, "evaluation_id")
}

func TestEvaluateWithForest(t *testing.T) {
	forest, err := classifier.LoadForest("../classifier/testdata/forest.json")
	require.NoError(t, err)
	evaluator, _ := newTestEvaluator(forest)

	safe, err := evaluator.Evaluate(entities.Reading{PH: 7.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusSafe, safe.Status)

	polluted, err := evaluator.Evaluate(entities.Reading{PH: 7.0, DissolvedOxygen: 4.0, BOD: 3.0, TotalColiform: 100})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPolluted, polluted.Status)
	assert.Len(t, polluted.Suggestions, 3)
}
