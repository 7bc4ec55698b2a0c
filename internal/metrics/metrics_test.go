package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/model"
)

func TestCollectorObserve(t *testing.T) {
	c := NewCollector()
	c.Observe("ga", model.GenerationDiagnostics{Generation: 1, BestFitness: 10, MeanFitness: 4, Evaluated: 20, DurationMS: 5})
	c.Observe("ga", model.GenerationDiagnostics{Generation: 2, BestFitness: 12, MeanFitness: 6, Evaluated: 18, DurationMS: 7})
	c.Observe("gp", model.GenerationDiagnostics{Generation: 1, BestFitness: 0.5, Evaluated: 30})

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	values := map[string]map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			mode := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "mode" {
					mode = lp.GetValue()
				}
			}
			if values[mf.GetName()] == nil {
				values[mf.GetName()] = map[string]float64{}
			}
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()][mode] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()][mode] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()][mode] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, values["genevo_generations_total"]["ga"])
	assert.Equal(t, 1.0, values["genevo_generations_total"]["gp"])
	assert.Equal(t, 38.0, values["genevo_evaluations_total"]["ga"])
	assert.Equal(t, 12.0, values["genevo_best_fitness"]["ga"])
	assert.Equal(t, 6.0, values["genevo_mean_fitness"]["ga"])
	assert.Equal(t, 2.0, values["genevo_generation_seconds"]["ga"])
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.Observe("gp", model.GenerationDiagnostics{BestFitness: 0.25, Evaluated: 3})

	path := filepath.Join(t.TempDir(), "genevo.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `genevo_generations_total{mode="gp"} 1`)
	assert.Contains(t, string(data), `genevo_best_fitness{mode="gp"} 0.25`)

	assert.Error(t, WriteTextfile(c.Registry(), ""))
}
