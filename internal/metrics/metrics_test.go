package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.WithLabelValues(labels...).(prometheus.Metric).Write(&m))
	return m.GetCounter().GetValue()
}

func TestRegistryRecordFetchAndStore(t *testing.T) {
	reg := NewRegistry(prometheus.NewRegistry())

	reg.RecordFetch("eia", 5)
	reg.RecordStore("eia", 3)

	assert.Equal(t, 5.0, counterValue(t, reg.RecordsFetched, "eia"))
	assert.Equal(t, 3.0, counterValue(t, reg.RecordsStored, "eia"))
}

func TestRegistryRecordRun(t *testing.T) {
	reg := NewRegistry(prometheus.NewRegistry())

	reg.RecordRun("success")
	reg.RecordRun("success")

	assert.Equal(t, 2.0, counterValue(t, reg.RunsTotal, "success"))
}

func TestStageTimerRecordsDuration(t *testing.T) {
	reg := NewRegistry(prometheus.NewRegistry())

	timer := reg.StartStage("fetch", "eia")
	timer.Stop("ok")

	assert.Equal(t, 1.0, counterValue(t, reg.StageResults, "fetch", "eia", "ok"))
}
