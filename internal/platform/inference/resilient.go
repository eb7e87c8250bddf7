package inference

import (
	"context"

	"github.com/rs/zerolog"
)

// Resilient wraps a primary predictor with a fallback so callers always get
// an assessment. Primary failures are logged at warn and never propagated.
type Resilient struct {
	primary  RiskPredictor
	fallback RiskPredictor
	logger   zerolog.Logger
}

func NewResilient(primary, fallback RiskPredictor, logger zerolog.Logger) *Resilient {
	return &Resilient{primary: primary, fallback: fallback, logger: logger}
}

func (r *Resilient) PredictMaternalRisk(ctx context.Context, obs MaternalObservation) (RiskAssessment, error) {
	if r.primary != nil {
		assessment, err := r.primary.PredictMaternalRisk(ctx, obs)
		if err == nil {
			return assessment, nil
		}
		r.logger.Warn().Err(err).Msg("using fallback risk calculation")
	}
	return r.fallback.PredictMaternalRisk(ctx, obs)
}

func (r *Resilient) PredictPediatricRisk(ctx context.Context, obs PediatricObservation) (RiskAssessment, error) {
	if r.primary != nil {
		assessment, err := r.primary.PredictPediatricRisk(ctx, obs)
		if err == nil {
			return assessment, nil
		}
		r.logger.Warn().Err(err).Msg("using fallback risk calculation")
	}
	return r.fallback.PredictPediatricRisk(ctx, obs)
}
