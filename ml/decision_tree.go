package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

type DecisionTree struct {
	nodes []treeNode
}

type treeNode struct {
	FeatureIdx int
	Threshold  float64
	LeftChild  int
	RightChild int
	Proba      []float64
	IsLeaf     bool
}

// exportedTree is the flattened tree_ layout: parallel arrays indexed by node id.
type exportedTree struct {
	ChildrenLeft  []int           `json:"children_left"`
	ChildrenRight []int           `json:"children_right"`
	Feature       []int           `json:"feature"`
	Threshold     []float64       `json:"threshold"`
	Value         json.RawMessage `json:"value"`
}

func (dt *DecisionTree) Predict(features []float64) (int, []float64, error) {
	proba, err := dt.predictProba(features)
	if err != nil {
		return 0, nil, err
	}
	return argmax(proba), proba, nil
}

func (dt *DecisionTree) predictProba(features []float64) ([]float64, error) {
	if len(dt.nodes) == 0 {
		return nil, ErrNotLoaded
	}
	idx := 0
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			proba := make([]float64, len(node.Proba))
			copy(proba, node.Proba)
			return proba, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
	return nil, errors.New("tree contains a cycle")
}

func newDecisionTree(tree exportedTree) (*DecisionTree, error) {
	n := len(tree.ChildrenLeft)
	if n == 0 {
		return nil, errors.New("tree has no nodes")
	}
	if len(tree.ChildrenRight) != n || len(tree.Feature) != n || len(tree.Threshold) != n {
		return nil, errors.New("tree arrays have different lengths")
	}
	values, err := decodeNodeValues(tree.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	if len(values) != n {
		return nil, fmt.Errorf("value: expected %d nodes, got %d", n, len(values))
	}

	nodes := make([]treeNode, n)
	for i := 0; i < n; i++ {
		left, right := tree.ChildrenLeft[i], tree.ChildrenRight[i]
		if left == -1 && right == -1 {
			proba, err := normalise(values[i])
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			nodes[i] = treeNode{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Proba: proba, IsLeaf: true}
			continue
		}
		if tree.Feature[i] < 0 || tree.Feature[i] >= FeatureCount {
			return nil, fmt.Errorf("%w: node %d splits on feature %d", ErrFeatureMismatch, i, tree.Feature[i])
		}
		nodes[i] = treeNode{
			FeatureIdx: tree.Feature[i],
			Threshold:  tree.Threshold[i],
			LeftChild:  left,
			RightChild: right,
		}
	}
	return &DecisionTree{nodes: nodes}, nil
}

func decodeNodeValues(raw json.RawMessage) ([][]float64, error) {
	var flat [][]float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	// tree_.value keeps an n_outputs axis: (n_nodes, 1, n_classes).
	var nested [][][]float64
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	values := make([][]float64, len(nested))
	for i, outputs := range nested {
		if len(outputs) != 1 {
			return nil, fmt.Errorf("node %d: expected a single output, got %d", i, len(outputs))
		}
		values[i] = outputs[0]
	}
	return values, nil
}

func normalise(counts []float64) ([]float64, error) {
	if len(counts) != 2 {
		return nil, fmt.Errorf("expected 2 class values, got %d", len(counts))
	}
	total := counts[0] + counts[1]
	if total <= 0 {
		return nil, errors.New("leaf has no samples")
	}
	return []float64{counts[0] / total, counts[1] / total}, nil
}

func decodeDecisionTree(payload []byte) (*DecisionTree, error) {
	var raw struct {
		envelope
		Tree exportedTree `json:"tree"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if err := raw.checkClasses(); err != nil {
		return nil, err
	}
	return newDecisionTree(raw.Tree)
}
