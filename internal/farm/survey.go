package farm

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/store"
)

// SoilLookupError reports that soil data for a field could not be fetched.
type SoilLookupError struct {
	FieldID string
	Err     error
}

func (e *SoilLookupError) Error() string {
	return fmt.Sprintf("farm: soil lookup for field %s: %v", e.FieldID, e.Err)
}

func (e *SoilLookupError) Unwrap() error { return e.Err }

// AssessField looks up the soil at the field center, scores it and stores
// the assessment on the field.
func (s *Service) AssessField(ctx context.Context, id string) (*field.Record, error) {
	r, err := s.store.GetField(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.assess(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) assess(ctx context.Context, r *field.Record) error {
	if s.soil == nil {
		return &SoilLookupError{FieldID: r.ID, Err: eris.New("farm: no soil client configured")}
	}

	sample, err := s.soil.Query(ctx, r.Center.Lat, r.Center.Lng)
	if err != nil {
		return &SoilLookupError{FieldID: r.ID, Err: err}
	}

	a := s.scorer.Assess(*sample)
	r.Soil = &a
	r.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateField(ctx, r); err != nil {
		return err
	}

	if s.hooks.Assessed != nil {
		s.hooks.Assessed(a)
	}
	zap.L().Debug("farm: field assessed",
		zap.String("field_id", r.ID),
		zap.Int("score", a.WeightedTotal),
		zap.String("label", a.QualityLabel),
	)
	return nil
}

// SurveyFailure is one field the survey could not assess.
type SurveyFailure struct {
	FieldID string `json:"field_id" yaml:"field_id"`
	Name    string `json:"name" yaml:"name"`
	Error   string `json:"error" yaml:"error"`
}

// Survey is the outcome of SurveySoil.
type Survey struct {
	Assessed []field.Record  `json:"assessed" yaml:"assessed"`
	Failed   []SurveyFailure `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// SurveySoil assesses every field concurrently. Fields whose lookup fails
// are reported in Failed; only cancellation aborts the survey.
func (s *Service) SurveySoil(ctx context.Context) (*Survey, error) {
	records, err := s.Fields(ctx, store.ListFilter{})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoFields
	}

	log := zap.L().With(zap.Int("fields", len(records)), zap.Int("concurrency", s.concurrency))
	log.Info("farm: starting soil survey")

	// Each goroutine writes only its own slot.
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range records {
		g.Go(func() error {
			r := &records[i]
			if err := s.assess(gctx, r); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("farm: field assessment failed", zap.String("field_id", r.ID), zap.Error(err))
				errs[i] = err
			}
			return nil // don't fail the group
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "farm: soil survey")
	}

	out := &Survey{}
	for i, r := range records {
		if errs[i] != nil {
			out.Failed = append(out.Failed, SurveyFailure{FieldID: r.ID, Name: r.Name, Error: errs[i].Error()})
			continue
		}
		out.Assessed = append(out.Assessed, r)
	}

	log.Info("farm: soil survey complete",
		zap.Int("assessed", len(out.Assessed)),
		zap.Int("failed", len(out.Failed)),
	)
	return out, nil
}
