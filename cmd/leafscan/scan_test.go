package main

import (
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"leaf-doctor/internal/diagnosis"
	"leaf-doctor/internal/types"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), color.NRGBA{A: 255})
	writePNG(t, filepath.Join(dir, "a.png"), color.NRGBA{A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	paths, err := listImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}, paths)
}

func TestScanKeepsOrderAndReportsErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png"} {
		p := filepath.Join(dir, name)
		writePNG(t, p, color.NRGBA{R: 245, G: 245, B: 242, A: 255})
		paths = append(paths, p)
	}
	broken := filepath.Join(dir, "5.png")
	require.NoError(t, os.WriteFile(broken, []byte("not a png"), 0o644))
	paths = append(paths, broken)

	rows, err := scan(context.Background(), diagnosis.New(), paths, 3)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	for i, r := range rows[:4] {
		assert.Equal(t, filepath.Base(paths[i]), r.File)
		assert.Equal(t, types.OutcomeNotAPlant, r.Outcome)
		assert.Empty(t, r.Error)
	}
	assert.Equal(t, "5.png", rows[4].File)
	assert.Contains(t, rows[4].Error, "image_decode_failed")
}

func TestScanCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	p := filepath.Join(dir, "leaf.png")
	writePNG(t, p, color.NRGBA{R: 60, G: 170, B: 70, A: 255})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scan(ctx, diagnosis.New(), []string{p, p}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
