package diagnosis

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"leaf-doctor/internal/image"
	"leaf-doctor/internal/types"
)

type fill func(x, y int, rng *rand.Rand) color.NRGBA

func noisyGreen(_, _ int, rng *rand.Rand) color.NRGBA {
	k := rng.IntN(101) - 50
	return color.NRGBA{R: uint8(60 + k), G: uint8(170 + k), B: uint8(70 + k), A: 255}
}

func spotted(x, y int, rng *rand.Rand) color.NRGBA {
	if x >= 40 && x < 80 && y >= 40 && y < 80 {
		return color.NRGBA{R: 130, G: 80, B: 40, A: 255}
	}
	return noisyGreen(x, y, rng)
}

func paper(int, int, *rand.Rand) color.NRGBA {
	return color.NRGBA{R: 245, G: 245, B: 242, A: 255}
}

func synth(w, h int, seed uint64, f fill) *stdimage.NRGBA {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, f(x, y, rng))
		}
	}
	return img
}

func encode(t *testing.T, img stdimage.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDiagnoseHealthyLeaf(t *testing.T) {
	e := New(WithLogger(zaptest.NewLogger(t)))

	res, err := e.Diagnose(context.Background(), bytes.NewReader(encode(t, synth(128, 128, 11, noisyGreen))))
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeHealthy, res.Outcome)
	assert.Equal(t, 100, res.HealthScore)
	assert.Equal(t, res.HealthScore, res.ConfidencePercent)
	assert.Equal(t, "100.0%", res.Metrics["green"])
}

func TestDiagnoseLeafSpots(t *testing.T) {
	e := New()

	res, err := e.Diagnose(context.Background(), bytes.NewReader(encode(t, synth(128, 128, 5, spotted))))
	require.NoError(t, err)

	require.Equal(t, types.OutcomeDiagnosed, res.Outcome)
	assert.Equal(t, "spots", res.ConditionID)
	assert.Equal(t, 95, res.ConfidencePercent)
	assert.Equal(t, types.SeverityModerate, res.Severity)
	primary, ok := res.Primary()
	require.True(t, ok)
	assert.Equal(t, "spots", primary.ConditionID)
}

func TestDiagnoseBackground(t *testing.T) {
	e := New()

	a, err := e.Analyze(context.Background(), image.FromImage(synth(64, 64, 1, paper)))
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeNotAPlant, a.Result.Outcome)
	require.NotNil(t, a.Result.DetectionConfidence)
	assert.Zero(t, *a.Result.DetectionConfidence)
	assert.False(t, a.Leader.Found(), "scorer must not run behind a rejected gate")
	assert.Zero(t, a.Features.TotalWeight)
}

func TestDiagnoseDecodeFailure(t *testing.T) {
	_, err := New().Diagnose(context.Background(), strings.NewReader("not an image"))

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrImageDecodeFailed)
	assert.Equal(t, types.KindImageDecodeFailed, types.KindOf(err))
}

func TestDiagnoseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Diagnose(ctx, bytes.NewReader(encode(t, synth(16, 16, 1, noisyGreen))))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = New().DiagnoseBuffer(ctx, image.FromImage(synth(16, 16, 1, noisyGreen)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiagnoseNilBuffer(t *testing.T) {
	_, err := New().DiagnoseBuffer(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestDiagnoseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.png")
	require.NoError(t, os.WriteFile(path, encode(t, synth(96, 96, 2, spotted)), 0o644))

	res, err := New().DiagnoseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "spots", res.ConditionID)

	_, err = New().DiagnoseFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestAnalyzeFileCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.png")
	require.NoError(t, os.WriteFile(path, encode(t, synth(32, 32, 3, noisyGreen)), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().AnalyzeFile(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "leaf.png")
}

func TestWorkersDoNotChangeResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	buf := image.FromImage(synth(320, 240, 9, spotted))
	params := DefaultParams().WithStride(1)

	want, err := New(WithParams(params)).DiagnoseBuffer(context.Background(), buf)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		got, err := New(WithParams(params.WithWorkers(workers))).DiagnoseBuffer(context.Background(), buf)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("workers=%d (-want +got):\n%s", workers, diff)
		}
	}
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := New(WithParams(DefaultParams().WithWorkers(2)))
	inputs := []*image.PixelBuffer{
		image.FromImage(synth(128, 128, 11, noisyGreen)),
		image.FromImage(synth(128, 128, 5, spotted)),
		image.FromImage(synth(64, 64, 1, paper)),
	}

	want := make([]types.DiagnosisResult, len(inputs))
	for i, buf := range inputs {
		res, err := e.DiagnoseBuffer(context.Background(), buf)
		require.NoError(t, err)
		want[i] = res
	}

	var wg sync.WaitGroup
	got := make([]types.DiagnosisResult, len(inputs)*4)
	errs := make([]error, len(got))
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], errs[i] = e.DiagnoseBuffer(context.Background(), inputs[i%len(inputs)])
		}()
	}
	wg.Wait()

	for i := range got {
		require.NoError(t, errs[i])
		assert.Empty(t, cmp.Diff(want[i%len(inputs)], got[i]))
	}
}

func TestDetectPlant(t *testing.T) {
	e := New()

	leaf, err := e.DetectPlant(context.Background(), image.FromImage(synth(128, 128, 11, noisyGreen)))
	require.NoError(t, err)
	assert.True(t, leaf.Detected)

	bg, err := e.DetectPlant(context.Background(), image.FromImage(synth(64, 64, 1, paper)))
	require.NoError(t, err)
	assert.False(t, bg.Detected)
}

func TestMaxDimensionDownscales(t *testing.T) {
	e := New(WithParams(DefaultParams().WithMaxDimension(64)))

	a, err := e.Analyze(context.Background(), image.FromImage(synth(256, 128, 3, noisyGreen)))
	require.NoError(t, err)
	assert.Equal(t, 64, a.Buffer.Width)
	assert.Equal(t, 32, a.Buffer.Height)
}

func TestParamsBuilders(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, Params{Stride: 4, Workers: 1}, p)

	q := p.WithStride(0).WithWorkers(-3).WithMaxDimension(-1)
	assert.Equal(t, Params{Stride: 4, Workers: 1}, q)

	r := p.WithStride(2).WithWorkers(8).WithMaxDimension(1024)
	assert.Equal(t, Params{Stride: 2, Workers: 8, MaxDimension: 1024}, r)
	assert.Equal(t, 4, p.Stride, "builders return copies")
}
