package stats

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"genevo/internal/model"
)

// Summarize reduces one generation's fitness values to diagnostics. With
// lowerIsBetter the best fitness is the minimum, otherwise the maximum.
func Summarize(generation int, fitnesses []float64, evaluated int, duration time.Duration, lowerIsBetter bool) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation: generation,
		Evaluated:  evaluated,
		DurationMS: duration.Milliseconds(),
	}
	if len(fitnesses) == 0 {
		return diag
	}
	diag.MeanFitness, diag.StdDevFitness = stat.PopMeanStdDev(fitnesses, nil)
	diag.MinFitness = floats.Min(fitnesses)
	diag.MaxFitness = floats.Max(fitnesses)
	diag.BestFitness = diag.MaxFitness
	if lowerIsBetter {
		diag.BestFitness = diag.MinFitness
	}
	return diag
}

// SeriesStats describes a best-fitness-per-generation series.
type SeriesStats struct {
	Initial     float64 `json:"initial"`
	Final       float64 `json:"final"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Improvement float64 `json:"improvement"`
}

func SeriesSummary(values []float64) SeriesStats {
	if len(values) == 0 {
		return SeriesStats{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return SeriesStats{
		Initial:     values[0],
		Final:       values[len(values)-1],
		Mean:        mean,
		Std:         std,
		Min:         floats.Min(values),
		Max:         floats.Max(values),
		Improvement: values[len(values)-1] - values[0],
	}
}
