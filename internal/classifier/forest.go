package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abelzeko/water-quality/internal/entities"
)

// leafChild marks a missing child in the exported tree arrays
const leafChild = -1

// ErrMalformedTree is returned when a prediction walks off a valid tree path
var ErrMalformedTree = errors.New("malformed decision tree")

// forestFile is the JSON artifact written by the training notebook.
// Tree arrays mirror the scikit-learn tree_ attributes.
type forestFile struct {
	ModelType    string     `json:"model_type"`
	FeatureNames []string   `json:"feature_names"`
	Classes      []int      `json:"classes"`
	Trees        []treeFile `json:"trees"`
}

type treeFile struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type node struct {
	left, right int
	feature     int
	threshold   float64
	proba       []float64 // leaf class probabilities
}

type tree struct {
	nodes []node
}

// Forest is a random forest classifier. It is immutable once loaded.
type Forest struct {
	classes []Label
	trees   []tree
}

// LoadForest reads and validates a forest artifact from disk
func LoadForest(path string) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	forest, err := DecodeForest(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	return forest, nil
}

// DecodeForest parses and validates a forest artifact
func DecodeForest(r io.Reader) (*Forest, error) {
	var ff forestFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ff); err != nil {
		return nil, fmt.Errorf("failed to decode forest: %w", err)
	}

	if ff.ModelType != "" && ff.ModelType != "random_forest" {
		return nil, fmt.Errorf("unsupported model type %q", ff.ModelType)
	}
	if err := checkFeatureNames(ff.FeatureNames); err != nil {
		return nil, err
	}
	if len(ff.Classes) == 0 {
		return nil, errors.New("forest has no classes")
	}
	classes := make([]Label, len(ff.Classes))
	for i, c := range ff.Classes {
		if Label(c) != LabelSafe && Label(c) != LabelPolluted {
			return nil, fmt.Errorf("unsupported class %d", c)
		}
		classes[i] = Label(c)
	}
	if len(ff.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}

	forest := &Forest{classes: classes, trees: make([]tree, 0, len(ff.Trees))}
	for i, tf := range ff.Trees {
		t, err := buildTree(tf, len(classes))
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		forest.trees = append(forest.trees, t)
	}
	return forest, nil
}

// checkFeatureNames makes sure the model was trained on the same column order
// the feature vector is built in. An empty list is accepted.
func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != entities.FeatureCount {
		return fmt.Errorf("model expects %d features, want %d", len(names), entities.FeatureCount)
	}
	for i, name := range names {
		if strings.TrimSpace(name) != entities.FeatureNames[i] {
			return fmt.Errorf("feature %d is %q, want %q", i, name, entities.FeatureNames[i])
		}
	}
	return nil
}

func buildTree(tf treeFile, numClasses int) (tree, error) {
	n := len(tf.ChildrenLeft)
	if n == 0 {
		return tree{}, errors.New("tree has no nodes")
	}
	if len(tf.ChildrenRight) != n || len(tf.Feature) != n || len(tf.Threshold) != n || len(tf.Value) != n {
		return tree{}, errors.New("tree arrays have different lengths")
	}

	nodes := make([]node, n)
	for i := 0; i < n; i++ {
		left, right := tf.ChildrenLeft[i], tf.ChildrenRight[i]
		nd := node{left: left, right: right, feature: tf.Feature[i], threshold: tf.Threshold[i]}

		if left == leafChild || right == leafChild {
			if left != right {
				return tree{}, fmt.Errorf("node %d has a single child", i)
			}
			proba, err := normalize(tf.Value[i], numClasses)
			if err != nil {
				return tree{}, fmt.Errorf("node %d: %w", i, err)
			}
			nd.proba = proba
		} else {
			if left <= i || left >= n || right <= i || right >= n {
				return tree{}, fmt.Errorf("node %d has child out of range", i)
			}
			if nd.feature < 0 || nd.feature >= entities.FeatureCount {
				return tree{}, fmt.Errorf("node %d splits on unknown feature %d", i, nd.feature)
			}
		}
		nodes[i] = nd
	}
	return tree{nodes: nodes}, nil
}

// normalize turns leaf class counts into probabilities
func normalize(value []float64, numClasses int) ([]float64, error) {
	if len(value) != numClasses {
		return nil, fmt.Errorf("leaf has %d class values, want %d", len(value), numClasses)
	}
	var total float64
	for _, v := range value {
		if v < 0 {
			return nil, errors.New("leaf has negative class value")
		}
		total += v
	}
	if total == 0 {
		return nil, errors.New("leaf has no samples")
	}
	proba := make([]float64, numClasses)
	for i, v := range value {
		proba[i] = v / total
	}
	return proba, nil
}

// leaf walks the tree for x and returns the reached leaf
func (t tree) leaf(x entities.FeatureVector) (node, error) {
	i := 0
	// Children always have larger indices, so a valid path is shorter than the tree.
	for steps := 0; steps < len(t.nodes); steps++ {
		nd := t.nodes[i]
		if nd.proba != nil {
			return nd, nil
		}
		if x[nd.feature] <= nd.threshold {
			i = nd.left
		} else {
			i = nd.right
		}
		if i < 0 || i >= len(t.nodes) {
			return node{}, ErrMalformedTree
		}
	}
	return node{}, ErrMalformedTree
}

// Predict averages the leaf probabilities of every tree and returns the most
// likely class. Ties go to the class listed first.
func (f *Forest) Predict(features entities.FeatureVector) (Label, error) {
	sum := make([]float64, len(f.classes))
	for i, t := range f.trees {
		nd, err := t.leaf(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		for c, p := range nd.proba {
			sum[c] += p
		}
	}

	best := 0
	for c := 1; c < len(sum); c++ {
		if sum[c] > sum[best] {
			best = c
		}
	}
	return f.classes[best], nil
}

// Trees returns the number of trees in the forest
func (f *Forest) Trees() int {
	return len(f.trees)
}
