package deepscan

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"leaf-doctor/internal/types"
)

// Fallback texts shown when a deep scan cannot run.
const (
	QuotaMessage       = "You've reached your deep scan limit for this period. Please visit the **Subscription** tab to upgrade your plan!"
	UnavailableMessage = "The deep scan service is unavailable right now. Your standard diagnosis still applies; please try again later."
)

// Service gates deep scans on the user's tier quota.
type Service struct {
	scanner Scanner
	plans   PlanRegistry
	quota   QuotaStore
	logger  *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires a scanner to a plan registry and quota store.
func NewService(scanner Scanner, plans PlanRegistry, quota QuotaStore, opts ...ServiceOption) *Service {
	s := &Service{
		scanner: scanner,
		plans:   plans,
		quota:   quota,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Remaining returns the scans left for the user, or Unlimited.
func (s *Service) Remaining(ctx context.Context, userID string, tier Tier) (int, error) {
	used, err := s.quota.Used(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read quota: %w", err)
	}
	return s.plans.GetLimits(tier).Remaining(used), nil
}

// Diagnose runs a deep scan for req. One unit of the user's quota is
// reserved before any network call and handed back when the scan fails or
// the service answers with a fallback, so concurrent calls for one user
// never exceed the tier limit.
func (s *Service) Diagnose(ctx context.Context, req Request) (types.DiagnosisResult, error) {
	if len(req.Image) == 0 {
		return types.DiagnosisResult{}, types.NewError(types.KindInvalidInput, "empty image", nil)
	}

	limits := s.plans.GetLimits(req.Tier)
	n, err := s.quota.Increment(ctx, req.UserID)
	if err != nil {
		return types.DiagnosisResult{}, fmt.Errorf("failed to reserve deep scan: %w", err)
	}
	used := n - 1
	if !limits.Allows(used) {
		s.release(ctx, req.UserID)
		s.logger.Info("deep scan quota exhausted",
			zap.String("user", req.UserID),
			zap.String("tier", string(req.Tier)),
			zap.Int("used", used))
		return types.DiagnosisResult{}, types.NewError(types.KindQuotaExceeded,
			fmt.Sprintf("deep scan limit reached (%d of %d used)", used, limits.DeepScans), nil)
	}

	resp, err := s.scanner.Scan(ctx, req)
	if err != nil {
		s.release(ctx, req.UserID)
		return types.DiagnosisResult{}, err
	}

	if resp.Fallback {
		s.release(ctx, req.UserID)
		s.logger.Warn("deep scan returned fallback", zap.String("message", resp.Message))
		return types.DiagnosisResult{
			Outcome:  types.OutcomeInconclusive,
			Evidence: []string{},
			Fallback: true,
			Message:  resp.Message,
			Engine:   resp.Engine,
		}, nil
	}

	res := resp.Result()
	s.logger.Info("deep scan complete",
		zap.String("user", req.UserID),
		zap.String("outcome", string(res.Outcome)),
		zap.String("condition", res.ConditionID),
		zap.Int("detections", len(res.Detections)))
	return res, nil
}

// release hands a reserved unit back. The caller's context may already be
// done, so the refund does not depend on it.
func (s *Service) release(ctx context.Context, userID string) {
	if err := s.quota.Release(context.WithoutCancel(ctx), userID); err != nil {
		s.logger.Warn("failed to release deep scan reservation",
			zap.String("user", userID),
			zap.Error(err))
	}
}

// FallbackResult converts a deep scan error into the message shown in
// place of a deep scan report.
func FallbackResult(err error) types.DiagnosisResult {
	msg := UnavailableMessage
	if errors.Is(err, types.ErrQuotaExceeded) {
		msg = QuotaMessage
	}
	return types.DiagnosisResult{
		Outcome:  types.OutcomeInconclusive,
		Evidence: []string{},
		Fallback: true,
		Message:  msg,
	}
}
