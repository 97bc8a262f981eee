// Package diagnosis runs the full leaf pipeline: decode, sample, gate,
// extract, score and compose.
package diagnosis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"leaf-doctor/internal/condition"
	"leaf-doctor/internal/features"
	"leaf-doctor/internal/image"
	"leaf-doctor/internal/presence"
	"leaf-doctor/internal/report"
	"leaf-doctor/internal/sampler"
	"leaf-doctor/internal/types"
)

// Engine diagnoses leaf images. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	params Params
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithParams sets the engine parameters.
func WithParams(p Params) Option {
	return func(e *Engine) {
		e.params = p.normalized()
	}
}

// New creates an engine with DefaultParams and a no-op logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		params: DefaultParams(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params returns the engine's effective parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Analysis carries every intermediate stage of one diagnosis.
type Analysis struct {
	Buffer     *image.PixelBuffer
	Stride     int
	Samples    []sampler.PixelSample
	Presence   presence.Result
	Features   features.FeatureVector
	Leader     condition.Match
	Candidates []condition.Match
	Result     types.DiagnosisResult
}

// Diagnose decodes an image from r and diagnoses it.
func (e *Engine) Diagnose(ctx context.Context, r io.Reader) (types.DiagnosisResult, error) {
	buf, format, err := image.DecodeContext(ctx, r)
	if err != nil {
		return types.DiagnosisResult{}, err
	}
	e.logger.Debug("image decoded",
		zap.String("format", format),
		zap.Int("width", buf.Width),
		zap.Int("height", buf.Height))
	return e.DiagnoseBuffer(ctx, buf)
}

// DiagnoseFile diagnoses the image stored at path.
func (e *Engine) DiagnoseFile(ctx context.Context, path string) (types.DiagnosisResult, error) {
	a, err := e.AnalyzeFile(ctx, path)
	if err != nil {
		return types.DiagnosisResult{}, err
	}
	return a.Result, nil
}

// DiagnoseBuffer diagnoses an already decoded pixel buffer.
func (e *Engine) DiagnoseBuffer(ctx context.Context, buf *image.PixelBuffer) (types.DiagnosisResult, error) {
	a, err := e.Analyze(ctx, buf)
	if err != nil {
		return types.DiagnosisResult{}, err
	}
	return a.Result, nil
}

// AnalyzeFile decodes the image at path and runs Analyze on it. The file is
// read fully before decoding, so a cancelled decode never touches it.
func (e *Engine) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	buf, _, err := image.DecodeContext(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return e.Analyze(ctx, buf)
}

// Analyze runs the pipeline over buf and returns every stage. When the
// presence gate rejects the image the scorer is skipped and Features stays
// zero.
func (e *Engine) Analyze(ctx context.Context, buf *image.PixelBuffer) (*Analysis, error) {
	if buf == nil {
		return nil, types.NewError(types.KindInvalidInput, "nil pixel buffer", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	if e.params.MaxDimension > 0 {
		buf = buf.Downscale(e.params.MaxDimension)
	}

	a := &Analysis{
		Buffer: buf,
		Stride: e.params.Stride,
	}
	a.Samples = sampler.Sample(buf, a.Stride)

	a.Presence = presence.Detect(a.Samples)
	e.logger.Debug("presence gate",
		zap.Bool("detected", a.Presence.Detected),
		zap.Int("confidence", a.Presence.Confidence),
		zap.Int("criteria_met", a.Presence.CriteriaMet),
		zap.Int("samples", len(a.Samples)))

	if !a.Presence.Detected {
		a.Result = report.NotAPlant(a.Presence)
		e.logOutcome(a.Result, start)
		return a, nil
	}

	fv, err := features.ExtractConcurrent(ctx, a.Samples, buf.Height, a.Stride, e.params.Workers)
	if err != nil {
		return nil, err
	}
	a.Features = fv
	e.logger.Debug("features extracted",
		zap.Float64("green_ratio", fv.GreenRatio),
		zap.Float64("brown_ratio", fv.BrownRatio),
		zap.Float64("yellow_ratio", fv.YellowRatio),
		zap.Float64("edge_ratio", fv.EdgeRatio),
		zap.Float64("total_weight", fv.TotalWeight),
		zap.Int("visible", fv.VisibleCount))

	a.Leader = condition.Score(fv)
	a.Candidates = condition.Candidates(fv)
	e.logger.Debug("conditions scored",
		zap.String("leader", a.Leader.ID()),
		zap.Int("confidence", a.Leader.Confidence),
		zap.Int("candidates", len(a.Candidates)))

	a.Result = report.Compose(fv, a.Leader, a.Candidates)
	e.logOutcome(a.Result, start)
	return a, nil
}

// DetectPlant runs only the presence gate over buf.
func (e *Engine) DetectPlant(ctx context.Context, buf *image.PixelBuffer) (presence.Result, error) {
	if buf == nil {
		return presence.Result{}, types.NewError(types.KindInvalidInput, "nil pixel buffer", nil)
	}
	if err := ctx.Err(); err != nil {
		return presence.Result{}, err
	}
	if e.params.MaxDimension > 0 {
		buf = buf.Downscale(e.params.MaxDimension)
	}
	return presence.Detect(sampler.Sample(buf, e.params.Stride)), nil
}

func (e *Engine) logOutcome(res types.DiagnosisResult, start time.Time) {
	e.logger.Info("diagnosis complete",
		zap.String("outcome", string(res.Outcome)),
		zap.String("condition", res.ConditionID),
		zap.Int("confidence", res.ConfidencePercent),
		zap.Duration("elapsed", time.Since(start)))
}
