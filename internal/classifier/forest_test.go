package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/water-quality/internal/entities"
)

func loadTestForest(t *testing.T) *Forest {
	t.Helper()
	forest, err := LoadForest(filepath.Join("testdata", "forest.json"))
	require.NoError(t, err)
	return forest
}

func TestLoadForest(t *testing.T) {
	forest := loadTestForest(t)
	assert.Equal(t, 3, forest.Trees())
}

func TestLoadForestMissingFile(t *testing.T) {
	_, err := LoadForest(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestForestPredict(t *testing.T) {
	forest := loadTestForest(t)

	tests := []struct {
		name    string
		reading entities.Reading
		want    Label
	}{
		{"clean-sample", entities.Reading{PH: 7.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20}, LabelSafe},
		{"acidic-but-majority-safe", entities.Reading{PH: 5.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 20}, LabelSafe},
		{"sewage-contaminated", entities.Reading{PH: 7.0, DissolvedOxygen: 4.0, BOD: 3.0, TotalColiform: 100}, LabelPolluted},
		{"coliform-threshold-goes-left", entities.Reading{PH: 7.0, DissolvedOxygen: 7.0, BOD: 1.0, TotalColiform: 50}, LabelSafe},
		{"high-bod-low-do", entities.Reading{PH: 9.0, DissolvedOxygen: 5.0, BOD: 4.0, TotalColiform: 500}, LabelPolluted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := forest.Predict(tt.reading.Features())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForestPredictTieGoesToFirstClass(t *testing.T) {
	tests := []struct {
		name    string
		classes string
		want    Label
	}{
		{"safe-first", "[0, 1]", LabelSafe},
		{"polluted-first", "[1, 0]", LabelPolluted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact := `{"classes": ` + tt.classes + `, "trees": [
				{"children_left": [-1], "children_right": [-1], "feature": [-2], "threshold": [-2], "value": [[3, 3]]}
			]}`
			forest, err := DecodeForest(strings.NewReader(artifact))
			require.NoError(t, err)

			got, err := forest.Predict(entities.FeatureVector{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeForestRejectsBadArtifacts(t *testing.T) {
	leaf := `{"children_left": [-1], "children_right": [-1], "feature": [-2], "threshold": [-2], "value": [[1, 1]]}`

	tests := []struct {
		name     string
		artifact string
		wantErr  string
	}{
		{"not-json", `{`, "failed to decode forest"},
		{"unknown-field", `{"classes": [0, 1], "estimators": 10, "trees": [` + leaf + `]}`, "failed to decode forest"},
		{"wrong-model-type", `{"model_type": "svm", "classes": [0, 1], "trees": [` + leaf + `]}`, "unsupported model type"},
		{"no-classes", `{"classes": [], "trees": [` + leaf + `]}`, "no classes"},
		{"non-binary-class", `{"classes": [0, 2], "trees": [` + leaf + `]}`, "unsupported class 2"},
		{"no-trees", `{"classes": [0, 1], "trees": []}`, "no trees"},
		{"feature-order", `{"feature_names": ["D.O. (mg/l)", "PH", "B.O.D. (mg/l)", "TOTAL COLIFORM (MPN/100ml)Mean"], "classes": [0, 1], "trees": [` + leaf + `]}`, "feature 0"},
		{"feature-count", `{"feature_names": ["PH"], "classes": [0, 1], "trees": [` + leaf + `]}`, "expects 1 features"},
		{"ragged-arrays", `{"classes": [0, 1], "trees": [
			{"children_left": [1, -1, -1], "children_right": [2, -1], "feature": [0, -2, -2], "threshold": [1, -2, -2], "value": [[1, 1], [1, 0], [0, 1]]}
		]}`, "different lengths"},
		{"single-child", `{"classes": [0, 1], "trees": [
			{"children_left": [1, -1], "children_right": [-1, -1], "feature": [0, -2], "threshold": [1, -2], "value": [[1, 1], [1, 0]]}
		]}`, "single child"},
		{"child-cycle", `{"classes": [0, 1], "trees": [
			{"children_left": [0, -1], "children_right": [1, -1], "feature": [0, -2], "threshold": [1, -2], "value": [[1, 1], [1, 0]]}
		]}`, "out of range"},
		{"unknown-feature", `{"classes": [0, 1], "trees": [
			{"children_left": [1, -1, -1], "children_right": [2, -1, -1], "feature": [4, -2, -2], "threshold": [1, -2, -2], "value": [[1, 1], [1, 0], [0, 1]]}
		]}`, "unknown feature 4"},
		{"leaf-class-count", `{"classes": [0, 1], "trees": [
			{"children_left": [-1], "children_right": [-1], "feature": [-2], "threshold": [-2], "value": [[1, 1, 1]]}
		]}`, "3 class values"},
		{"empty-leaf", `{"classes": [0, 1], "trees": [
			{"children_left": [-1], "children_right": [-1], "feature": [-2], "threshold": [-2], "value": [[0, 0]]}
		]}`, "no samples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeForest(strings.NewReader(tt.artifact))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFuncAdapter(t *testing.T) {
	var got entities.FeatureVector
	c := Func(func(features entities.FeatureVector) (Label, error) {
		got = features
		return LabelPolluted, nil
	})

	label, err := c.Predict(entities.Reading{PH: 1, DissolvedOxygen: 2, BOD: 3, TotalColiform: 4}.Features())
	require.NoError(t, err)
	assert.Equal(t, LabelPolluted, label)
	assert.Equal(t, entities.FeatureVector{1, 2, 3, 4}, got)
	assert.Equal(t, "polluted", label.String())
}
