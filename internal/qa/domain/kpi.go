package domain

import (
	"time"

	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
)

type KPIQuery struct {
	LotPublicID   string `json:"lotPublicId" form:"lotPublicId" validate:"required_without=FarmID"`
	FarmID        string `json:"farmId" form:"farmId"`
	From          string `json:"from" form:"from" validate:"omitempty,isotime"`
	To            string `json:"to" form:"to" validate:"omitempty,isotime"`
	TempThreshold string `json:"tempThreshold" form:"tempThreshold" validate:"omitempty,numeric"`
}

type KPIs struct {
	TotalInspections int     `json:"totalInspections"`
	TotalDefects     int     `json:"totalDefects"`
	DefectRate       float64 `json:"defectRate"`
	AvgTemp          float64 `json:"avgTemp"`
	TempExcursions   int     `json:"tempExcursions"`
	TempThreshold    float64 `json:"tempThreshold"`
}

// SeriesPoint is one UTC calendar day. AvgTemp is nil when the day had no readings.
type SeriesPoint struct {
	Date    string   `json:"date"`
	AvgTemp *float64 `json:"avgTemp"`
	Defects int      `json:"defects"`
}

type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type KPIReport struct {
	KPIs   KPIs                    `json:"kpis"`
	Series []SeriesPoint           `json:"series"`
	Period Period                  `json:"period"`
	Lots   []farmdomain.LotSummary `json:"lots"`
}
