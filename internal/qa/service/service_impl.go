package service

import (
	"context"
	"strings"
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/clock"
	"github.com/agrilink/agrilink/internal/config"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/agrilink/agrilink/internal/observability/metrics"
	"github.com/agrilink/agrilink/internal/providers/pdf"
	"github.com/agrilink/agrilink/internal/providers/storage"
	qadomain "github.com/agrilink/agrilink/internal/qa/domain"
	"github.com/agrilink/agrilink/pkg/repository"
	"github.com/agrilink/agrilink/pkg/validation"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	QAConfig *config.QAConfigHolder
	Farms    farmdomain.Service
	Events   lotevent.Service
	Store    storage.Store
	PDF      pdf.Provider
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	qaConfig      *config.QAConfigHolder
	maxUploadSize int64

	farms   farmdomain.Service
	events  lotevent.Service
	store   storage.Store
	pdf     pdf.Provider
	metrics *metrics.Metrics

	inspectionrepo  repository.Repository[qadomain.Inspection]
	certificaterepo repository.Repository[qadomain.Certificate]
}

func New(p Params) qadomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("qa.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		qaConfig:      p.QAConfig,
		maxUploadSize: p.Config.Storage.MaxUploadSize,

		farms:   p.Farms,
		events:  p.Events,
		store:   p.Store,
		pdf:     p.PDF,
		metrics: p.Metrics,

		inspectionrepo:  repository.ProvideStore[qadomain.Inspection](p.DB),
		certificaterepo: repository.ProvideStore[qadomain.Certificate](p.DB),
	}
}

func (s *Service) KPI(ctx context.Context, query qadomain.KPIQuery) (*qadomain.KPIReport, error) {
	if res := validation.Validate(query); !res.OK() {
		return nil, res.Err()
	}

	period, threshold, err := resolveWindow(query, s.clock.Now(), s.qaConfig.Get())
	if err != nil {
		return nil, err
	}

	lots, scope, err := s.selectLots(ctx, query)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordKPIQuery(ctx, scope)

	report := &qadomain.KPIReport{
		KPIs:   qadomain.KPIs{TempThreshold: threshold},
		Series: []qadomain.SeriesPoint{},
		Period: period,
		Lots:   make([]farmdomain.LotSummary, 0, len(lots)),
	}
	if len(lots) == 0 {
		return report, nil
	}

	lotIDs := make([]snowflake.ID, 0, len(lots))
	for i := range lots {
		lotIDs = append(lotIDs, lots[i].ID)
		report.Lots = append(report.Lots, lots[i].Summary())
	}

	rows, err := s.inspectionrepo.Find(ctx, nil,
		repository.WithWhere("lot_id IN ?", lotIDs),
		repository.WithWhere("created_at >= ? AND created_at <= ?", period.From, period.To),
	)
	if err != nil {
		return nil, err
	}
	inspections := make([]qadomain.Inspection, 0, len(rows))
	for _, row := range rows {
		inspections = append(inspections, *row)
	}

	readings, err := s.events.ListReadings(ctx, lotIDs, period.From, period.To)
	if err != nil {
		return nil, err
	}

	report.KPIs, report.Series = Aggregate(inspections, readings, threshold)
	return report, nil
}

func (s *Service) selectLots(ctx context.Context, query qadomain.KPIQuery) ([]farmdomain.Lot, string, error) {
	if publicID := strings.TrimSpace(query.LotPublicID); publicID != "" {
		lot, err := s.farms.GetLotByPublicID(ctx, publicID)
		if err != nil {
			return nil, "", err
		}
		return []farmdomain.Lot{*lot}, "lot", nil
	}

	farmID, err := snowflake.ParseString(strings.TrimSpace(query.FarmID))
	if err != nil {
		return nil, "", farmdomain.ErrFarmNotFound
	}
	lots, err := s.farms.ListLotsByFarm(ctx, farmID)
	if err != nil {
		return nil, "", err
	}
	return lots, "farm", nil
}

func (s *Service) KPIReportPDF(ctx context.Context, query qadomain.KPIQuery) ([]byte, error) {
	report, err := s.KPI(ctx, query)
	if err != nil {
		return nil, err
	}

	data := pdf.KPIReportData{
		Title:            "AgriLink QA KPI Report",
		GeneratedAt:      s.clock.Now().UTC().Format("2006-01-02 15:04 MST"),
		PeriodFrom:       report.Period.From.Format(time.DateOnly),
		PeriodTo:         report.Period.To.Format(time.DateOnly),
		TotalInspections: report.KPIs.TotalInspections,
		TotalDefects:     report.KPIs.TotalDefects,
		DefectRate:       report.KPIs.DefectRate,
		AvgTemp:          report.KPIs.AvgTemp,
		TempExcursions:   report.KPIs.TempExcursions,
		TempThreshold:    report.KPIs.TempThreshold,
	}
	for _, lot := range report.Lots {
		data.Lots = append(data.Lots, pdf.KPIReportLot{PublicID: lot.PublicID, Produce: lot.Produce, FarmName: lot.FarmName})
	}
	for _, point := range report.Series {
		data.Series = append(data.Series, pdf.KPIReportDay{Date: point.Date, AvgTemp: point.AvgTemp, Defects: point.Defects})
	}

	return s.pdf.RenderKPIReport(ctx, data)
}

func (s *Service) CreateInspection(ctx context.Context, inspector authdomain.Identity, req qadomain.CreateInspectionRequest) (*qadomain.InspectionResponse, error) {
	if inspector.ID == 0 {
		return nil, qadomain.ErrInspectorRequired
	}
	if res := validation.Validate(req); !res.OK() {
		return nil, res.Err()
	}

	lot, err := s.farms.ResolveLot(ctx, req.LotID, req.LotPublicID)
	if err != nil {
		return nil, err
	}

	inspection := &qadomain.Inspection{
		ID:          s.genID.Generate(),
		LotID:       lot.ID,
		InspectorID: inspector.ID,
		Defects:     *req.Defects,
		Grade:       qadomain.Grade(req.Grade),
		Notes:       optionalText(req.Notes),
		Images:      req.Images,
		CreatedAt:   s.clock.Now(),
	}
	if inspection.Images == nil {
		inspection.Images = []string{}
	}
	if err := s.inspectionrepo.Create(ctx, inspection); err != nil {
		return nil, err
	}

	s.log.Info("inspection recorded",
		zap.String("inspection_id", inspection.ID.String()),
		zap.String("lot_public_id", lot.PublicID),
		zap.String("grade", string(inspection.Grade)),
		zap.Int("defects", inspection.Defects),
	)

	return &qadomain.InspectionResponse{
		ID:          inspection.ID,
		LotID:       lot.ID,
		LotPublicID: lot.PublicID,
		Defects:     inspection.Defects,
		Grade:       inspection.Grade,
		Notes:       inspection.Notes,
		Images:      inspection.Images,
		Inspector:   qadomain.InspectorRef{ID: inspector.ID, Name: inspector.Name},
		CreatedAt:   inspection.CreatedAt,
	}, nil
}

func optionalText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
