package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	TypeLogisticRegression = "logistic_regression"
	TypeDecisionTree       = "decision_tree"
	TypeRandomForest       = "random_forest"
)

// LoadModel reads a classifier artifact. An empty modelType uses the
// artifact's own "type" field.
func LoadModel(modelType, path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if modelType == "" {
		var header envelope
		if err := json.Unmarshal(payload, &header); err != nil {
			return nil, fmt.Errorf("decode model header: %w", err)
		}
		modelType = header.Type
	}

	var model Classifier
	switch modelType {
	case TypeLogisticRegression:
		model, err = decodeLogistic(payload)
	case TypeDecisionTree:
		model, err = decodeDecisionTree(payload)
	case TypeRandomForest:
		model, err = decodeRandomForest(payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, modelType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", modelType, err)
	}
	return model, nil
}

// DescribeModel names the concrete classifier for logs and the inspect command.
func DescribeModel(model Classifier) string {
	switch m := model.(type) {
	case *LogisticRegression:
		return fmt.Sprintf("%s (%d coefficients)", TypeLogisticRegression, len(m.Coef))
	case *DecisionTree:
		return fmt.Sprintf("%s (%d nodes)", TypeDecisionTree, len(m.nodes))
	case *RandomForest:
		return fmt.Sprintf("%s (%d trees)", TypeRandomForest, len(m.trees))
	default:
		return fmt.Sprintf("%T", model)
	}
}
