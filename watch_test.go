package bnasset

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	defer func(d time.Duration) { Debounce = d }(Debounce)
	Debounce = 50 * time.Millisecond

	cfg := testConfig(t)
	populate(t, cfg)

	c, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		report *Report
		err    error
	}
	builds := make(chan outcome, 8)

	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, All, func(r *Report, err error) {
			builds <- outcome{r, err}
		})
	}()

	select {
	case o := <-builds:
		require.NoError(t, o.err)
		assert.Len(t, o.report.Images, 2)
	case <-time.After(10 * time.Second):
		t.Fatal("no initial build")
	}

	// Rename into place so the watcher never sees a partial file
	tmp := filepath.Join(t.TempDir(), "room2.png")
	writePNG(t, tmp, solid(16, 16, color.White))
	require.NoError(t, os.Rename(tmp, filepath.Join(cfg.ImageDir, "room2.png")))

	select {
	case o := <-builds:
		require.NoError(t, o.err)
		assert.Len(t, o.report.Images, 3)
		assert.FileExists(t, filepath.Join(cfg.GraphicsDir, "room2.bmp"))
	case <-time.After(10 * time.Second):
		t.Fatal("no rebuild")
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not return")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	cfg := testConfig(t)
	cfg.MapDir = filepath.Join(t.TempDir(), "missing")

	c, err := New(cfg, nil)
	require.NoError(t, err)

	err = c.Watch(context.Background(), Levels, func(*Report, error) {})
	assert.Error(t, err)
}
