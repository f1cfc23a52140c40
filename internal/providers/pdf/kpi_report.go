package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type KPIReportData struct {
	Title       string
	GeneratedAt string
	PeriodFrom  string
	PeriodTo    string

	TotalInspections int
	TotalDefects     int
	DefectRate       float64
	AvgTemp          float64
	TempExcursions   int
	TempThreshold    float64

	Lots   []KPIReportLot
	Series []KPIReportDay
}

type KPIReportLot struct {
	PublicID string
	Produce  string
	FarmName string
}

type KPIReportDay struct {
	Date    string
	AvgTemp *float64
	Defects int
}

func (p *PDFProvider) RenderKPIReport(ctx context.Context, data KPIReportData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := data.Title
	if title == "" {
		title = "QA KPI Report"
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(14,
		col.New(12).Add(
			text.New("Period: "+data.PeriodFrom+" to "+data.PeriodTo, props.Text{Top: 0, Size: 9}),
			text.New("Generated: "+data.GeneratedAt, props.Text{Top: 5, Size: 9}),
		),
	)

	m.AddRow(8, text.NewCol(12, "Summary", props.Text{Style: fontstyle.Bold, Size: 12}))
	summary := [][2]string{
		{"Inspections", fmt.Sprintf("%d", data.TotalInspections)},
		{"Defects", fmt.Sprintf("%d", data.TotalDefects)},
		{"Defect rate", fmt.Sprintf("%.2f", data.DefectRate)},
		{"Average temperature", fmt.Sprintf("%.2f C", data.AvgTemp)},
		{"Temperature excursions", fmt.Sprintf("%d (> %.1f C)", data.TempExcursions, data.TempThreshold)},
	}
	for _, row := range summary {
		m.AddRow(6,
			text.NewCol(6, row[0], props.Text{Size: 9}),
			text.NewCol(6, row[1], props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(4, line.NewCol(12))
	m.AddRow(8, text.NewCol(12, "Lots", props.Text{Style: fontstyle.Bold, Size: 12}))
	m.AddRow(6,
		text.NewCol(4, "Public ID", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Produce", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Farm", props.Text{Style: fontstyle.Bold, Size: 9}),
	)
	for _, lot := range data.Lots {
		m.AddRow(6,
			text.NewCol(4, lot.PublicID, props.Text{Size: 9}),
			text.NewCol(4, lot.Produce, props.Text{Size: 9}),
			text.NewCol(4, lot.FarmName, props.Text{Size: 9}),
		)
	}

	m.AddRow(4, line.NewCol(12))
	m.AddRow(8, text.NewCol(12, "Daily series", props.Text{Style: fontstyle.Bold, Size: 12}))
	m.AddRow(6,
		text.NewCol(4, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Avg temp (C)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(4, "Defects", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, day := range data.Series {
		avg := "-"
		if day.AvgTemp != nil {
			avg = fmt.Sprintf("%.2f", *day.AvgTemp)
		}
		m.AddRow(6,
			text.NewCol(4, day.Date, props.Text{Size: 9}),
			text.NewCol(4, avg, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(4, fmt.Sprintf("%d", day.Defects), props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
