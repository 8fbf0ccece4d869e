package training

import (
	"context"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/dataloader"
	"facility-ml/internal/features"
	"facility-ml/internal/training/labels"
)

const violationWindowDays = 365

// RiskTrainer fits the auto-approval risk classifier. Label "0" is low risk.
type RiskTrainer struct{}

func (t *RiskTrainer) Name() string { return "risk" }
func (t *RiskTrainer) Task() string { return TaskClassification }

func (t *RiskTrainer) Train(ctx context.Context, env *Env) (*Result, error) {
	cfg := env.Config.Training
	rs, err := env.Source.LoadReservations(ctx, env.Lookback())
	if err != nil {
		return nil, err
	}
	if err := guard(t.Name(), len(rs), cfg.MinReservations); err != nil {
		return nil, err
	}
	facilities, err := env.Source.LoadFacilities(ctx)
	if err != nil {
		return nil, err
	}
	verified, err := env.Source.LoadUserVerification(ctx)
	if err != nil {
		return nil, err
	}
	violations, err := env.Source.LoadUserViolations(ctx, violationWindowDays)
	if err != nil {
		return nil, err
	}

	encs := encoders(map[string][]string{
		"facility_id": idColumn(rs, func(r dataloader.Reservation) int64 { return r.FacilityID }),
		"user_id":     idColumn(rs, func(r dataloader.Reservation) int64 { return r.UserID }),
	})
	byFacility := policies(facilities)
	userBookings := bookingsPerUser(rs)
	today := env.Now()

	x := make([][]float64, 0, len(rs))
	y := make([]string, 0, len(rs))
	for _, r := range rs {
		p, ok := byFacility[r.FacilityID]
		if !ok {
			p = defaultPolicy()
		}
		isVerified, ok := verified[r.UserID]
		if !ok {
			isVerified = true
		}

		b := booking(r, p.capacity)
		profile := features.RiskProfile{
			AutoApprove:       p.autoApprove,
			MaxDurationHours:  p.maxDurationHours,
			CapacityThreshold: p.capacityThreshold,
			UserIsVerified:    isVerified,
			UserBookings:      userBookings[r.UserID],
			UserViolations:    violations[r.UserID],
			AdvanceDays:       features.DaysBetween(today, r.ReservationDate),
			FacilityEncoded:   encs.Encode("facility_id", idKey(r.FacilityID)),
			UserEncoded:       encs.Encode("user_id", idKey(r.UserID)),
		}
		label, err := env.Rules.RiskLabel(labels.RiskFacts{
			Status:              r.Status,
			AutoApproved:        r.AutoApproved,
			IsCommercial:        r.IsCommercial,
			ExpectedAttendees:   b.ExpectedAttendees,
			FacilityAutoApprove: p.autoApprove,
			UserIsVerified:      isVerified,
			UserViolations:      violations[r.UserID],
		})
		if err != nil {
			return nil, stderrors.NewTrainingFailedError(t.Name(), err)
		}

		x = append(x, b.RiskRecord(profile).Align(features.RiskColumns))
		y = append(y, label)
	}

	forest, eval, err := classify(t.Name(), cfg, x, y, features.RiskColumns,
		bothClasses(y, "0", "1", 2), fitOptions{balanced: true, leafed: true})
	if err != nil {
		return nil, err
	}

	return &Result{
		Artifacts: []Artifact{
			{Name: artifacts.RiskModel, Value: forest},
			{Name: artifacts.RiskEncoders, Value: encs},
		},
		Features:   features.RiskColumns,
		Evaluation: eval,
		Top:        forest.TopImportances(10),
	}, nil
}

func idColumn(rs []dataloader.Reservation, id func(dataloader.Reservation) int64) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = idKey(id(r))
	}
	return out
}
