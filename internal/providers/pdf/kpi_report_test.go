package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderKPIReport(t *testing.T) {
	avg := 8.67
	doc, err := New().RenderKPIReport(context.Background(), KPIReportData{
		PeriodFrom:     "2025-06-01T00:00:00Z",
		PeriodTo:       "2025-06-30T00:00:00Z",
		AvgTemp:        8.67,
		TempExcursions: 2,
		TempThreshold:  8,
		Lots:           []KPIReportLot{{PublicID: "DEMOLOT", Produce: "Demo Tomatoes (IoT)", FarmName: "Green Valley Farm"}},
		Series:         []KPIReportDay{{Date: "2025-06-02", AvgTemp: &avg, Defects: 1}, {Date: "2025-06-03"}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestRenderKPIReportHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().RenderKPIReport(ctx, KPIReportData{})
	assert.ErrorIs(t, err, context.Canceled)
}
