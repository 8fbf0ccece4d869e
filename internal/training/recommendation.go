package training

import (
	"context"
	"math"
	"strings"
	"time"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/dataloader"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
)

// Relevance score weights and caps.
const (
	relevanceBase         = 1.0
	relevancePerPurpose   = 0.1
	relevancePurposeCap   = 2.0
	relevancePerUserVisit = 0.2
	relevanceUserCap      = 1.0
	relevanceRecency      = 0.5
	relevanceRecencyDays  = 365.0
	relevanceMax          = 5.0
)

// RecommendationTrainer fits the facility relevance regressor on approved
// bookings, scoring each booking by purpose overlap, user loyalty and recency.
type RecommendationTrainer struct{}

func (t *RecommendationTrainer) Name() string { return "recommendation" }
func (t *RecommendationTrainer) Task() string { return TaskRegression }

func (t *RecommendationTrainer) Train(ctx context.Context, env *Env) (*Result, error) {
	cfg := env.Config.Training
	rs, err := env.Source.LoadReservations(ctx, env.Lookback())
	if err != nil {
		return nil, err
	}
	approved := approvedOnly(rs)
	if err := guard(t.Name(), len(approved), cfg.MinApprovedBookings); err != nil {
		return nil, err
	}
	facilities, err := env.Source.LoadFacilities(ctx)
	if err != nil {
		return nil, err
	}

	amenities := make(map[int64]int, len(facilities))
	for _, f := range facilities {
		amenities[f.ID] = features.AmenitiesCount(f.Amenities)
	}
	byFacility := policies(facilities)
	encs := encoders(map[string][]string{
		"facility_id": idColumn(approved, func(r dataloader.Reservation) int64 { return r.FacilityID }),
		"user_id":     idColumn(approved, func(r dataloader.Reservation) int64 { return r.UserID }),
	})
	userBookings := bookingsPerUser(approved)
	scores := relevanceScores(approved, env.Now())

	x := make([][]float64, len(approved))
	for i, r := range approved {
		capacity := features.DefaultCapacity
		if p, ok := byFacility[r.FacilityID]; ok {
			capacity = p.capacity
		}
		candidate := features.Candidate{
			AmenitiesCount:  amenities[r.FacilityID],
			FacilityEncoded: encs.Encode("facility_id", idKey(r.FacilityID)),
		}
		x[i] = booking(r, capacity).
			RecommendationRecord(candidate, features.PurposeKeywords(r.Purpose),
				userBookings[r.UserID], encs.Encode("user_id", idKey(r.UserID))).
			Align(features.RecommendationColumns)
	}

	trainIdx, testIdx := ml.TrainTestSplit(len(x), cfg.TestSize, cfg.RandomState, nil)
	forest, eval, err := regress(t.Name(), cfg, x, scores, features.RecommendationColumns, trainIdx, testIdx, fitOptions{leafed: true})
	if err != nil {
		return nil, err
	}

	return &Result{
		Artifacts: []Artifact{
			{Name: artifacts.RecommendationModel, Value: forest},
			{Name: artifacts.RecommendationEncoders, Value: encs},
		},
		Features:   features.RecommendationColumns,
		Evaluation: eval,
		Top:        forest.TopImportances(10),
	}, nil
}

// relevanceScores rates each booking in [1, 5]. A booking counts itself
// among the same-facility bookings sharing a purpose word and among the
// user's visits to the facility.
func relevanceScores(rs []dataloader.Reservation, now time.Time) []float64 {
	words := make([]map[string]bool, len(rs))
	for i, r := range rs {
		words[i] = wordSet(r.Purpose)
	}
	type visit struct{ user, facility int64 }
	visits := make(map[visit]int)
	for _, r := range rs {
		visits[visit{r.UserID, r.FacilityID}]++
	}

	scores := make([]float64, len(rs))
	for i, r := range rs {
		similar := 0
		for j, other := range rs {
			if other.FacilityID == r.FacilityID && overlaps(words[i], words[j]) {
				similar++
			}
		}
		score := relevanceBase
		score += math.Min(float64(similar)*relevancePerPurpose, relevancePurposeCap)
		score += math.Min(float64(visits[visit{r.UserID, r.FacilityID}])*relevancePerUserVisit, relevanceUserCap)
		daysAgo := float64(features.DaysBetween(r.ReservationDate, now))
		score += relevanceRecency * math.Max(0, 1-daysAgo/relevanceRecencyDays)
		scores[i] = math.Min(score, relevanceMax)
	}
	return scores
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}

func overlaps(a, b map[string]bool) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for w := range a {
		if b[w] {
			return true
		}
	}
	return false
}
