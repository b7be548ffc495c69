package ml

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Artifacts is one consistent scaler/classifier pair.
type Artifacts struct {
	Scaler     *Scaler
	Model      Classifier
	ScalerPath string
	ModelPath  string
	ModelType  string
	LoadedAt   time.Time
}

// LoadArtifacts reads the scaler and classifier concurrently. Either failure
// fails the whole load.
func LoadArtifacts(ctx context.Context, scalerPath, modelPath, modelType string) (*Artifacts, error) {
	artifacts := &Artifacts{ScalerPath: scalerPath, ModelPath: modelPath, ModelType: modelType}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		scaler, err := LoadScaler(scalerPath)
		if err != nil {
			return fmt.Errorf("load scaler %s: %w", scalerPath, err)
		}
		artifacts.Scaler = scaler
		return nil
	})
	g.Go(func() error {
		model, err := LoadModel(modelType, modelPath)
		if err != nil {
			return fmt.Errorf("load model %s: %w", modelPath, err)
		}
		artifacts.Model = model
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	artifacts.LoadedAt = time.Now().UTC()
	return artifacts, nil
}

// Store holds the active artifacts and swaps them on reload.
type Store struct {
	mu        sync.RWMutex
	current   *Artifacts
	listeners []func(*Artifacts)
	logger    *zap.Logger
}

func NewStore(initial *Artifacts, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{current: initial, logger: logger}
}

func (s *Store) Current() *Artifacts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnReload registers fn to run after every successful reload.
func (s *Store) OnReload(fn func(*Artifacts)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload re-reads both artifacts from the current paths. On failure the
// previous artifacts stay active.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.RLock()
	prev := s.current
	s.mu.RUnlock()
	if prev == nil {
		return ErrNotLoaded
	}

	next, err := LoadArtifacts(ctx, prev.ScalerPath, prev.ModelPath, prev.ModelType)
	if err != nil {
		s.logger.Error("artifact reload failed, keeping previous artifacts",
			zap.Error(err), zap.Time("loaded_at", prev.LoadedAt))
		return err
	}

	s.mu.Lock()
	s.current = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.logger.Info("artifacts reloaded",
		zap.String("model", DescribeModel(next.Model)),
		zap.String("scaler_path", next.ScalerPath),
		zap.String("model_path", next.ModelPath))
	for _, fn := range listeners {
		fn(next)
	}
	return nil
}
