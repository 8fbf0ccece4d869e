package training

import (
	"context"
	"sort"
	"time"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
)

const demandTrainFraction = 0.8

// DemandTrainer fits the daily booking count regressor over every facility and
// day between the first and last approved reservation.
type DemandTrainer struct{}

func (t *DemandTrainer) Name() string { return "demand" }
func (t *DemandTrainer) Task() string { return TaskRegression }

func (t *DemandTrainer) Train(ctx context.Context, env *Env) (*Result, error) {
	cfg := env.Config.Training
	rs, err := env.Source.LoadReservations(ctx, env.Lookback())
	if err != nil {
		return nil, err
	}
	approved := approvedOnly(rs)
	if err := guard(t.Name(), len(approved), cfg.MinDemandReservations); err != nil {
		return nil, err
	}
	facilities, err := env.Source.LoadFacilities(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[dayKey]float64)
	first, last := approved[0].ReservationDate, approved[0].ReservationDate
	ids := make(map[int64]bool, len(facilities))
	for _, r := range approved {
		counts[keyOf(r)]++
		if r.ReservationDate.Before(first) {
			first = r.ReservationDate
		}
		if r.ReservationDate.After(last) {
			last = r.ReservationDate
		}
		ids[r.FacilityID] = true
	}
	for _, f := range facilities {
		ids[f.ID] = true
	}
	days := dayGrid(first, last)

	type row struct {
		day      int
		facility int64
		x        []float64
		y        float64
	}
	rows := make([]row, 0, len(days)*len(ids))
	for id := range ids {
		series := make([]float64, len(days))
		for i, d := range days {
			series[i] = counts[dayKey{facility: id, date: d.Format("2006-01-02")}]
		}
		for i, d := range days {
			rows = append(rows, row{
				day:      i,
				facility: id,
				x:        features.DemandRecord(int(id), d, trailingLags(series, i)).Align(features.DemandColumns),
				y:        series[i],
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].day != rows[j].day {
			return rows[i].day < rows[j].day
		}
		return rows[i].facility < rows[j].facility
	})

	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		x[i], y[i] = r.x, r.y
	}
	trainIdx, testIdx := ml.ChronologicalSplit(len(rows), demandTrainFraction)
	forest, eval, err := regress(t.Name(), cfg, x, y, features.DemandColumns, trainIdx, testIdx, fitOptions{leafed: true})
	if err != nil {
		return nil, err
	}

	env.Logger.Info("demand grid built", map[string]interface{}{
		"days":       len(days),
		"facilities": len(ids),
		"rows":       len(rows),
	})
	return &Result{
		Artifacts: []Artifact{{
			Name:  artifacts.DemandModel,
			Value: artifacts.DemandBundle{Model: forest, FeatureCols: features.DemandColumns},
		}},
		Features:   features.DemandColumns,
		Evaluation: eval,
		Top:        forest.TopImportances(10),
	}, nil
}

// dayGrid lists every calendar day from first to last inclusive.
func dayGrid(first, last time.Time) []time.Time {
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// trailingLags are the lag features of day i in series. Lags look strictly
// back and are zero before the series starts. Moving averages include day i
// and average over however many days exist.
func trailingLags(series []float64, i int) features.Lags {
	var l features.Lags
	if i >= 1 {
		l.Lag1 = series[i-1]
	}
	if i >= 7 {
		l.Lag7 = series[i-7]
	}
	if i >= 30 {
		l.Lag30 = series[i-30]
	}
	l.MA7 = windowMean(series, i, 7)
	l.MA30 = windowMean(series, i, 30)
	return l
}

func windowMean(series []float64, i, window int) float64 {
	from := i - window + 1
	if from < 0 {
		from = 0
	}
	var sum float64
	for _, v := range series[from : i+1] {
		sum += v
	}
	return sum / float64(i+1-from)
}
