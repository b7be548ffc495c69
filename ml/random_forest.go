package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

type RandomForest struct {
	trees []*DecisionTree
}

// Predict averages the per-tree leaf probabilities.
func (rf *RandomForest) Predict(features []float64) (int, []float64, error) {
	if len(rf.trees) == 0 {
		return 0, nil, ErrNotLoaded
	}
	sum := []float64{0, 0}
	for i, tree := range rf.trees {
		proba, err := tree.predictProba(features)
		if err != nil {
			return 0, nil, fmt.Errorf("tree %d: %w", i, err)
		}
		sum[0] += proba[0]
		sum[1] += proba[1]
	}
	n := float64(len(rf.trees))
	proba := []float64{sum[0] / n, sum[1] / n}
	return argmax(proba), proba, nil
}

func decodeRandomForest(payload []byte) (*RandomForest, error) {
	var raw struct {
		envelope
		Estimators []exportedTree `json:"estimators"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if err := raw.checkClasses(); err != nil {
		return nil, err
	}
	if len(raw.Estimators) == 0 {
		return nil, errors.New("forest has no estimators")
	}
	forest := &RandomForest{trees: make([]*DecisionTree, 0, len(raw.Estimators))}
	for i, exported := range raw.Estimators {
		tree, err := newDecisionTree(exported)
		if err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
		forest.trees = append(forest.trees, tree)
	}
	return forest, nil
}
