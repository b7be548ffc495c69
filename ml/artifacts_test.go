package ml

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyFixture(t *testing.T, src, dst string) {
	t.Helper()
	payload, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, payload, 0o600))
}

func newTempStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	copyFixture(t, "testdata/scaler.json", filepath.Join(dir, "scaler.json"))
	copyFixture(t, "testdata/logistic.json", filepath.Join(dir, "model.json"))
	artifacts, err := LoadArtifacts(context.Background(), filepath.Join(dir, "scaler.json"), filepath.Join(dir, "model.json"), "")
	require.NoError(t, err)
	return NewStore(artifacts, nil), dir
}

func TestStoreReload(t *testing.T) {
	store, dir := newTempStore(t)
	_, isLogistic := store.Current().Model.(*LogisticRegression)
	require.True(t, isLogistic)

	var notified atomic.Int32
	store.OnReload(func(*Artifacts) { notified.Add(1) })

	copyFixture(t, "testdata/forest.json", filepath.Join(dir, "model.json"))
	require.NoError(t, store.Reload(context.Background()))

	_, isForest := store.Current().Model.(*RandomForest)
	assert.True(t, isForest)
	assert.Equal(t, int32(1), notified.Load())
}

func TestStoreReloadFailureKeepsPrevious(t *testing.T) {
	store, dir := newTempStore(t)
	before := store.Current()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte("{not json"), 0o600))
	assert.Error(t, store.Reload(context.Background()))
	assert.Same(t, before, store.Current())
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	store, dir := newTempStore(t)
	watcher := NewWatcher(store, nil)
	watcher.debounce = 20 * time.Millisecond

	reloaded := make(chan struct{}, 1)
	store.OnReload(func(*Artifacts) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register the directory before writing.
	time.Sleep(100 * time.Millisecond)
	copyFixture(t, "testdata/tree.json", filepath.Join(dir, "model.json"))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload artifacts")
	}
	_, isTree := store.Current().Model.(*DecisionTree)
	assert.True(t, isTree)
}
