package service

import (
	"testing"
	"time"

	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	qadomain "github.com/agrilink/agrilink/internal/qa/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func temp(v float64) *float64 { return &v }

func TestAggregateEmpty(t *testing.T) {
	kpis, series := Aggregate(nil, nil, 8)

	assert.Equal(t, qadomain.KPIs{TempThreshold: 8}, kpis)
	assert.Empty(t, series)
}

func TestAggregateExcursionsAndAverage(t *testing.T) {
	day := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	readings := []lotevent.Event{
		{Temp: temp(5), At: day},
		{Temp: temp(9), At: day.Add(time.Hour)},
		{Temp: temp(12), At: day.Add(2 * time.Hour)},
		{Temp: nil, At: day},
	}

	kpis, series := Aggregate(nil, readings, 8)

	assert.Equal(t, 2, kpis.TempExcursions)
	assert.Equal(t, 8.67, kpis.AvgTemp)
	assert.Equal(t, 0.0, kpis.DefectRate)
	require.Len(t, series, 1)
	assert.Equal(t, "2025-06-03", series[0].Date)
	require.NotNil(t, series[0].AvgTemp)
	assert.InDelta(t, 26.0/3.0, *series[0].AvgTemp, 1e-9)
}

func TestAggregateThresholdIsStrict(t *testing.T) {
	at := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	kpis, _ := Aggregate(nil, []lotevent.Event{{Temp: temp(8), At: at}}, 8)
	assert.Zero(t, kpis.TempExcursions)
}

func TestAggregateSeriesByUTCDay(t *testing.T) {
	ict := time.FixedZone("ICT", 7*3600)
	inspections := []qadomain.Inspection{
		{Defects: 3, CreatedAt: time.Date(2025, 6, 2, 1, 0, 0, 0, ict)},
		{Defects: 1, CreatedAt: time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)},
		{Defects: 0, CreatedAt: time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)},
	}
	readings := []lotevent.Event{
		{Temp: temp(20), At: time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)},
	}

	kpis, series := Aggregate(inspections, readings, 8)

	assert.Equal(t, 3, kpis.TotalInspections)
	assert.Equal(t, 4, kpis.TotalDefects)
	assert.Equal(t, 1.33, kpis.DefectRate)
	assert.Equal(t, 20.0, kpis.AvgTemp)
	assert.Equal(t, 1, kpis.TempExcursions)

	require.Len(t, series, 3)
	assert.Equal(t, "2025-06-01", series[0].Date)
	assert.Equal(t, 3, series[0].Defects)
	assert.Nil(t, series[0].AvgTemp)
	assert.Equal(t, "2025-06-03", series[1].Date)
	assert.Zero(t, series[1].Defects)
	assert.Equal(t, "2025-06-04", series[2].Date)
	assert.Equal(t, 1, series[2].Defects)
}
