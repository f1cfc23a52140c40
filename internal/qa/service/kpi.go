package service

import (
	"math"
	"sort"
	"time"

	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	qadomain "github.com/agrilink/agrilink/internal/qa/domain"
)

type dayBucket struct {
	tempSum   float64
	tempCount int
	defects   int
}

// Aggregate computes the summary and per-day series over already filtered rows.
// Readings without a temperature are ignored.
func Aggregate(inspections []qadomain.Inspection, readings []lotevent.Event, threshold float64) (qadomain.KPIs, []qadomain.SeriesPoint) {
	kpis := qadomain.KPIs{TempThreshold: threshold}
	days := make(map[string]*dayBucket)
	bucket := func(t time.Time) *dayBucket {
		key := t.UTC().Format(time.DateOnly)
		b, ok := days[key]
		if !ok {
			b = &dayBucket{}
			days[key] = b
		}
		return b
	}

	for _, in := range inspections {
		kpis.TotalInspections++
		kpis.TotalDefects += in.Defects
		bucket(in.CreatedAt).defects += in.Defects
	}

	var tempSum float64
	var tempCount int
	for _, ev := range readings {
		if ev.Temp == nil {
			continue
		}
		temp := *ev.Temp
		tempSum += temp
		tempCount++
		if temp > threshold {
			kpis.TempExcursions++
		}
		b := bucket(ev.At)
		b.tempSum += temp
		b.tempCount++
	}

	if kpis.TotalInspections > 0 {
		kpis.DefectRate = round2(float64(kpis.TotalDefects) / float64(kpis.TotalInspections))
	}
	if tempCount > 0 {
		kpis.AvgTemp = round2(tempSum / float64(tempCount))
	}

	series := make([]qadomain.SeriesPoint, 0, len(days))
	for date, b := range days {
		point := qadomain.SeriesPoint{Date: date, Defects: b.defects}
		if b.tempCount > 0 {
			avg := b.tempSum / float64(b.tempCount)
			point.AvgTemp = &avg
		}
		series = append(series, point)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	return kpis, series
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
