package risk

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"diabetesrisk/ml"
)

// ArtifactSource supplies the active scaler/classifier pair.
type ArtifactSource interface {
	Current() *ml.Artifacts
	OnReload(fn func(*ml.Artifacts))
}

// Assessor runs clamp, scale, classify and banding for one submission.
// The classifier is deterministic, so results are memoised per clamped input.
type Assessor struct {
	source ArtifactSource
	cache  *lru.Cache[string, *Assessment]
	// generation advances on every reload and prefixes cache keys, so a
	// prediction that was in flight during a reload is never served afterwards.
	generation atomic.Uint64
	logger     *zap.Logger
}

// NewAssessor creates an assessor; cacheSize <= 0 disables memoisation.
func NewAssessor(source ArtifactSource, cacheSize int, logger *zap.Logger) (*Assessor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assessor{source: source, logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New[string, *Assessment](cacheSize)
		if err != nil {
			return nil, err
		}
		a.cache = cache
		source.OnReload(func(*ml.Artifacts) {
			a.generation.Add(1)
			cache.Purge()
			logger.Debug("assessment cache purged after artifact reload")
		})
	}
	return a, nil
}

func (a *Assessor) Assess(ctx context.Context, m ml.Measurements) (*Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inputs := m.Clamp()
	vector := inputs.FeatureVector()

	key := cacheKey(a.generation.Load(), vector)
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			return cached, nil
		}
	}

	artifacts := a.source.Current()
	if artifacts == nil || artifacts.Scaler == nil || artifacts.Model == nil {
		return nil, ml.ErrNotLoaded
	}
	scaled, err := artifacts.Scaler.Transform(vector)
	if err != nil {
		return nil, fmt.Errorf("scale inputs: %w", err)
	}
	label, proba, err := artifacts.Model.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	assessment, err := NewAssessment(inputs, scaled, label, proba)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("assessment computed",
		zap.Int("label", label),
		zap.Float64("risk_percent", assessment.RiskPercent),
		zap.Stringer("band", assessment.Band))

	if a.cache != nil {
		a.cache.Add(key, assessment)
	}
	return assessment, nil
}

// CacheLen reports how many assessments are memoised.
func (a *Assessor) CacheLen() int {
	if a.cache == nil {
		return 0
	}
	return a.cache.Len()
}

func cacheKey(generation uint64, vector []float64) string {
	parts := make([]string, len(vector)+1)
	parts[0] = strconv.FormatUint(generation, 10)
	for i, v := range vector {
		parts[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
