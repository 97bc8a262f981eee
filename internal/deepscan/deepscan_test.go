package deepscan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaf-doctor/internal/types"
	"leaf-doctor/internal/version"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

const successBody = `{
	"status": "success",
	"diagnosis": "Leaf Spot",
	"confidence": "87%",
	"signals": ["Brown lesions detected", "Yellow halo around spots"],
	"all_detections": [
		{"id": "leaf_spot", "name": "Leaf Spot", "emoji": "🟤", "severity": "moderate", "confidence": "87%",
		 "clues": ["Circular lesions"], "advice": "Remove affected leaves.", "treatment": "Copper fungicide."},
		{"id": "chlorosis", "name": "Chlorosis", "emoji": "🟡", "severity": "mild", "confidence": "Low"}
	],
	"metrics": {"green": "61.2%", "yellow": "12.0%", "brown": "9.4%"},
	"engine": "DeepScan v2.1 (multi-scan)"
}`

type fakeService struct {
	hits   atomic.Int32
	status int
	body   string
	check  func(r *http.Request)
}

func (f *fakeService) handler(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	if f.check != nil {
		f.check(r)
	}
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	_, _ = w.Write([]byte(f.body))
}

func newService(t *testing.T, f *fakeService, opts ...ClientOption) (*Service, *MemoryQuotaStore) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)

	quota := NewMemoryQuotaStore()
	client := NewClient(srv.URL, append([]ClientOption{WithHTTPClient(srv.Client())}, opts...)...)
	return NewService(client, NewStaticPlanRegistry(), quota), quota
}

func request(user string, tier Tier) Request {
	return Request{UserID: user, Tier: tier, Image: pngBytes}
}

func TestDiagnoseSuccess(t *testing.T) {
	f := &fakeService{body: successBody}
	f.check = func(r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scan", r.URL.Path)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		assert.Equal(t, "u1", r.Header.Get("X-User-ID"))
		assert.Equal(t, "steward", r.Header.Get("X-Subscription-Tier"))
		assert.Equal(t, version.UserAgent(), r.Header.Get("User-Agent"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)
	}
	svc, quota := newService(t, f)

	res, err := svc.Diagnose(context.Background(), request("u1", TierSteward))
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeDiagnosed, res.Outcome)
	assert.Equal(t, "leaf_spot", res.ConditionID)
	assert.Equal(t, "Leaf Spot", res.ConditionName)
	assert.Equal(t, 87, res.ConfidencePercent)
	assert.Equal(t, types.SeverityModerate, res.Severity)
	assert.Equal(t, []string{"Circular lesions"}, res.Evidence)
	require.Len(t, res.Detections, 2)
	assert.Equal(t, 0, res.Detections[1].ConfidencePercent)
	assert.Equal(t, types.SeverityMild, res.Detections[1].Severity)
	assert.Equal(t, "61.2%", res.Metrics["green"])
	assert.Len(t, res.Signals, 2)
	assert.Equal(t, "DeepScan v2.1 (multi-scan)", res.Engine)

	used, err := quota.Used(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestQuotaCheckedBeforeNetwork(t *testing.T) {
	f := &fakeService{body: successBody}
	svc, _ := newService(t, f)
	ctx := context.Background()

	_, err := svc.Diagnose(ctx, request("u1", TierFree))
	require.NoError(t, err)

	_, err = svc.Diagnose(ctx, request("u1", TierFree))
	assert.ErrorIs(t, err, types.ErrQuotaExceeded)
	assert.Equal(t, int32(1), f.hits.Load())

	remaining, err := svc.Remaining(ctx, "u1", TierFree)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestPremiumIsUnlimited(t *testing.T) {
	f := &fakeService{body: successBody}
	svc, _ := newService(t, f)

	for i := 0; i < 10; i++ {
		_, err := svc.Diagnose(context.Background(), request("vip", TierPremium))
		require.NoError(t, err)
	}
	remaining, err := svc.Remaining(context.Background(), "vip", TierPremium)
	require.NoError(t, err)
	assert.Equal(t, Unlimited, remaining)
}

func TestFallbackDoesNotConsumeQuota(t *testing.T) {
	f := &fakeService{body: `{"status":"warning","fallback":true,"message":"Deep scan engine is warming up."}`}
	svc, quota := newService(t, f)

	res, err := svc.Diagnose(context.Background(), request("u1", TierFree))
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, "Deep scan engine is warming up.", res.Message)

	used, _ := quota.Used(context.Background(), "u1")
	assert.Zero(t, used)
}

func TestConcurrentScansRespectLimit(t *testing.T) {
	f := &fakeService{body: successBody}
	svc, quota := newService(t, f)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		refused   atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Diagnose(ctx, request("u1", TierFree))
			switch {
			case err == nil:
				succeeded.Add(1)
			case types.KindOf(err) == types.KindQuotaExceeded:
				refused.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(7), refused.Load())
	assert.Equal(t, int32(1), f.hits.Load())

	used, err := quota.Used(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestMemoryQuotaStoreRelease(t *testing.T) {
	quota := NewMemoryQuotaStore()
	ctx := context.Background()

	_, err := quota.Increment(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, quota.Release(ctx, "u1"))
	require.NoError(t, quota.Release(ctx, "u1"))

	used, err := quota.Used(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   types.ErrorKind
	}{
		{"forbidden", http.StatusForbidden, `{"error":"Deep scan limit reached"}`, types.KindQuotaExceeded},
		{"too many requests", http.StatusTooManyRequests, ``, types.KindQuotaExceeded},
		{"server error", http.StatusBadGateway, `oops`, types.KindServiceUnavailable},
		{"error status", http.StatusOK, `{"status":"error","error":"model crashed"}`, types.KindServiceUnavailable},
		{"garbage body", http.StatusOK, `<html>`, types.KindServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeService{status: tt.status, body: tt.body}
			svc, quota := newService(t, f)

			_, err := svc.Diagnose(context.Background(), request("u1", TierSteward))
			require.Error(t, err)
			assert.Equal(t, tt.want, types.KindOf(err))

			used, _ := quota.Used(context.Background(), "u1")
			assert.Zero(t, used)
		})
	}
}

func TestQuotaErrorCarriesUpstreamMessage(t *testing.T) {
	f := &fakeService{status: http.StatusForbidden, body: `{"error":"Deep scan limit reached"}`}
	svc, _ := newService(t, f)

	_, err := svc.Diagnose(context.Background(), request("u1", TierSteward))
	assert.Contains(t, err.Error(), "Deep scan limit reached")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	f := &fakeService{status: http.StatusInternalServerError}
	svc, _ := newService(t, f)

	for i := 0; i < 6; i++ {
		_, err := svc.Diagnose(context.Background(), request("u1", TierPremium))
		require.ErrorIs(t, err, types.ErrServiceUnavailable)
	}
	require.Equal(t, int32(6), f.hits.Load())

	_, err := svc.Diagnose(context.Background(), request("u1", TierPremium))
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(6), f.hits.Load())
}

func TestQuotaRefusalsDoNotTripBreaker(t *testing.T) {
	f := &fakeService{status: http.StatusTooManyRequests}
	svc, _ := newService(t, f)

	for i := 0; i < 8; i++ {
		_, err := svc.Diagnose(context.Background(), request("u1", TierPremium))
		require.ErrorIs(t, err, types.ErrQuotaExceeded)
	}
	assert.Equal(t, int32(8), f.hits.Load())
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithTimeout(50*time.Millisecond))
	_, err := client.Scan(context.Background(), request("u1", TierFree))
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := NewService(NewClient(url), NewStaticPlanRegistry(), NewMemoryQuotaStore())
	_, err := svc.Diagnose(context.Background(), request("u1", TierFree))
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
}

func TestEmptyImage(t *testing.T) {
	svc := NewService(NewClient("http://127.0.0.1:0"), NewStaticPlanRegistry(), NewMemoryQuotaStore())
	_, err := svc.Diagnose(context.Background(), Request{UserID: "u1", Tier: TierFree})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestParseConfidence(t *testing.T) {
	for in, want := range map[string]int{
		"87%":   87,
		"87":    87,
		" 42 %": 42,
		"99.6%": 100,
		"150%":  100,
		"-3%":   0,
		"Low":   0,
		"":      0,
	} {
		assert.Equal(t, want, ParseConfidence(in), in)
	}
}

func TestResponseResult(t *testing.T) {
	t.Run("healthy primary", func(t *testing.T) {
		r := &Response{Status: "success", AllDetections: []WireDetection{
			{ID: "healthy", Name: "Healthy Plant", Confidence: "92%", Clues: []string{"Uniform green"}, Advice: "Keep going."},
		}}
		res := r.Result()
		assert.Equal(t, types.OutcomeHealthy, res.Outcome)
		assert.Equal(t, 92, res.HealthScore)
		assert.Empty(t, res.ConditionID)
	})

	t.Run("no detections", func(t *testing.T) {
		r := &Response{Status: "success", Signals: []string{"Image too dark"}}
		res := r.Result()
		assert.Equal(t, types.OutcomeInconclusive, res.Outcome)
		assert.Equal(t, []string{"Image too dark"}, res.Evidence)
	})

	t.Run("needs closer examination", func(t *testing.T) {
		var r Response
		require.NoError(t, json.Unmarshal([]byte(`{
			"status": "success",
			"diagnosis": "Needs Closer Examination",
			"confidence": "Low",
			"signals": ["No strong disease markers", "Lighting is uneven"],
			"engine": "DeepScan v2.1 (multi-scan)"
		}`), &r))
		res := r.Result()
		assert.Equal(t, types.OutcomeInconclusive, res.Outcome)
		assert.Empty(t, res.ConditionID)
		assert.Empty(t, res.Detections)
		assert.Equal(t, []string{"No strong disease markers", "Lighting is uneven"}, res.Evidence)
	})

	t.Run("top level only", func(t *testing.T) {
		var r Response
		require.NoError(t, json.Unmarshal([]byte(`{"status":"success","diagnosis":"Rust","confidence":"64%","severity":"high"}`), &r))
		res := r.Result()
		assert.Equal(t, types.OutcomeDiagnosed, res.Outcome)
		assert.Equal(t, "Rust", res.ConditionName)
		assert.Equal(t, 64, res.ConfidencePercent)
		assert.Equal(t, types.SeverityHigh, res.Severity)
		assert.Len(t, res.Detections, 1)
	})
}

func TestPlans(t *testing.T) {
	plans := NewStaticPlanRegistry()
	assert.Equal(t, 1, plans.GetLimits(TierFree).DeepScans)
	assert.Equal(t, 5, plans.GetLimits(TierSteward).DeepScans)
	assert.Equal(t, Unlimited, plans.GetLimits(TierPremium).DeepScans)
	assert.Equal(t, plans.GetLimits(TierFree), plans.GetLimits("gold"))
	assert.Equal(t, TierPremium, ParseTier(" Premium "))

	custom := NewPlanRegistry(2, 10, -5)
	assert.Equal(t, 2, custom.GetLimits(TierFree).DeepScans)
	assert.Equal(t, Unlimited, custom.GetLimits(TierPremium).DeepScans)

	limits := Limits{DeepScans: 2}
	assert.True(t, limits.Allows(1))
	assert.False(t, limits.Allows(2))
	assert.Equal(t, 1, limits.Remaining(1))
	assert.Equal(t, 0, limits.Remaining(5))
}

func TestFallbackResult(t *testing.T) {
	quota := FallbackResult(types.NewError(types.KindQuotaExceeded, "limit", nil))
	assert.True(t, quota.Fallback)
	assert.Equal(t, QuotaMessage, quota.Message)

	down := FallbackResult(types.NewError(types.KindServiceUnavailable, "down", nil))
	assert.Equal(t, UnavailableMessage, down.Message)
}
