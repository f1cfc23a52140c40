package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/clock"
	"github.com/agrilink/agrilink/internal/config"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	farmservice "github.com/agrilink/agrilink/internal/farm/service"
	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	loteventservice "github.com/agrilink/agrilink/internal/lotevent/service"
	"github.com/agrilink/agrilink/internal/providers/pdf"
	"github.com/agrilink/agrilink/internal/providers/storage"
	qadomain "github.com/agrilink/agrilink/internal/qa/domain"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/agrilink/agrilink/pkg/validation"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc       qadomain.Service
	farms     farmdomain.Service
	events    lotevent.Service
	clock     *clock.FakeClock
	conn      *gorm.DB
	root      string
	inspector authdomain.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&authdomain.User{},
		&farmdomain.Farm{},
		&farmdomain.Lot{},
		&lotevent.Event{},
		&qadomain.Inspection{},
		&qadomain.Certificate{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	root := t.TempDir()
	store, err := storage.NewLocal(root, "/uploads")
	require.NoError(t, err)

	farms := farmservice.New(farmservice.Params{DB: conn, Log: log, GenID: node, Clock: fake})
	events := loteventservice.New(loteventservice.Params{DB: conn, Log: log, GenID: node, Clock: fake})

	cfg := config.Config{Storage: config.StorageConfig{MaxUploadSize: 1024}}
	svc := New(Params{
		DB:       conn,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Config:   cfg,
		QAConfig: config.NewStaticQAConfigHolder(config.DefaultQAConfig()),
		Farms:    farms,
		Events:   events,
		Store:    store,
		PDF:      pdf.New(),
	})

	inspector := authdomain.User{ID: node.Generate(), Email: "inspector@agrilink.local", Name: "Mike Inspector", Role: authdomain.RoleInspector, PasswordHash: "x"}
	require.NoError(t, conn.Create(&inspector).Error)

	return &fixture{svc: svc, farms: farms, events: events, clock: fake, conn: conn, root: root, inspector: inspector.Identity()}
}

func (f *fixture) lot(t *testing.T, farmName, publicID string) *farmdomain.Lot {
	t.Helper()
	ctx := context.Background()
	farm, err := f.farms.CreateFarm(ctx, farmdomain.CreateFarmRequest{Name: farmName, OwnerID: 1})
	require.NoError(t, err)
	lot, err := f.farms.CreateLot(ctx, farmdomain.CreateLotRequest{FarmID: farm.ID.String(), Produce: "Tomatoes", PublicID: publicID})
	require.NoError(t, err)
	return lot
}

func (f *fixture) reading(t *testing.T, lotID snowflake.ID, temp float64, at time.Time) {
	t.Helper()
	_, err := f.events.Append(context.Background(), lotevent.AppendRequest{LotID: lotID, Type: lotevent.TypeSensor, Temp: &temp, At: &at})
	require.NoError(t, err)
}

func intPtr(v int) *int { return &v }

func TestKPIForDemoLot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.lot(t, "Green Valley Farm", "DEMOLOT")

	at := f.clock.Now().Add(-2 * time.Hour)
	for _, v := range []float64{5, 9, 12} {
		f.reading(t, lot.ID, v, at)
	}

	report, err := f.svc.KPI(ctx, qadomain.KPIQuery{LotPublicID: "DEMOLOT", TempThreshold: "8"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.KPIs.TempExcursions)
	assert.Equal(t, 8.67, report.KPIs.AvgTemp)
	assert.Equal(t, 8.0, report.KPIs.TempThreshold)
	require.Len(t, report.Lots, 1)
	assert.Equal(t, "DEMOLOT", report.Lots[0].PublicID)
	assert.Equal(t, "Green Valley Farm", report.Lots[0].FarmName)
	assert.True(t, report.Period.To.Equal(f.clock.Now()))
	assert.True(t, report.Period.From.Equal(f.clock.Now().Add(-30*24*time.Hour)))
}

func TestKPIWithNoData(t *testing.T) {
	f := newFixture(t)
	f.lot(t, "Organic Hills", "EMPTYLOT")

	report, err := f.svc.KPI(context.Background(), qadomain.KPIQuery{LotPublicID: "EMPTYLOT"})
	require.NoError(t, err)
	assert.Zero(t, report.KPIs.DefectRate)
	assert.Zero(t, report.KPIs.AvgTemp)
	assert.Zero(t, report.KPIs.TempExcursions)
	assert.Equal(t, 8.0, report.KPIs.TempThreshold)
	assert.Empty(t, report.Series)
}

func TestKPIRespectsRange(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "Green Valley Farm", "DEMOLOT")
	f.reading(t, lot.ID, 30, time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))
	f.reading(t, lot.ID, 10, time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC))
	f.reading(t, lot.ID, 40, time.Date(2025, 6, 3, 0, 0, 1, 0, time.UTC))

	report, err := f.svc.KPI(context.Background(), qadomain.KPIQuery{LotPublicID: "DEMOLOT", From: "2025-06-01", To: "2025-06-02"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, report.KPIs.AvgTemp)
	require.Len(t, report.Series, 1)
	assert.Equal(t, "2025-06-02", report.Series[0].Date)
}

func TestKPISelectors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.KPI(ctx, qadomain.KPIQuery{LotPublicID: "NOPE-LOT"})
	assert.ErrorIs(t, err, farmdomain.ErrLotNotFound)

	_, err = f.svc.KPI(ctx, qadomain.KPIQuery{FarmID: "424242"})
	assert.ErrorIs(t, err, farmdomain.ErrFarmNotFound)

	_, err = f.svc.KPI(ctx, qadomain.KPIQuery{})
	verrs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "lotPublicId", verrs.Violations[0].Field)

	_, err = f.svc.KPI(ctx, qadomain.KPIQuery{LotPublicID: "DEMOLOT", From: "yesterday"})
	verrs, ok = validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "from", verrs.Violations[0].Field)

	_, err = f.svc.KPI(ctx, qadomain.KPIQuery{LotPublicID: "DEMOLOT", TempThreshold: "hot"})
	verrs, ok = validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "tempThreshold", verrs.Violations[0].Field)

	farm, err := f.farms.CreateFarm(ctx, farmdomain.CreateFarmRequest{Name: "Empty Acres", OwnerID: 1})
	require.NoError(t, err)
	report, err := f.svc.KPI(ctx, qadomain.KPIQuery{FarmID: farm.ID.String()})
	require.NoError(t, err)
	assert.Empty(t, report.Lots)
	assert.Empty(t, report.Series)
}

func TestKPIFarmAggregatesAllLots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	farm, err := f.farms.CreateFarm(ctx, farmdomain.CreateFarmRequest{Name: "Organic Hills", OwnerID: 1})
	require.NoError(t, err)
	at := f.clock.Now().Add(-time.Hour)
	for _, produce := range []string{"Lettuce", "Carrots"} {
		lot, err := f.farms.CreateLot(ctx, farmdomain.CreateLotRequest{FarmID: farm.ID.String(), Produce: produce})
		require.NoError(t, err)
		f.reading(t, lot.ID, 10, at)
		_, err = f.svc.CreateInspection(ctx, f.inspector, qadomain.CreateInspectionRequest{LotID: lot.ID.String(), Defects: intPtr(2), Grade: "B"})
		require.NoError(t, err)
	}

	f.clock.Advance(time.Minute)
	report, err := f.svc.KPI(ctx, qadomain.KPIQuery{FarmID: farm.ID.String()})
	require.NoError(t, err)
	assert.Len(t, report.Lots, 2)
	assert.Equal(t, 2, report.KPIs.TotalInspections)
	assert.Equal(t, 4, report.KPIs.TotalDefects)
	assert.Equal(t, 2.0, report.KPIs.DefectRate)
	assert.Equal(t, 2, report.KPIs.TempExcursions)
}

func TestCreateInspection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.lot(t, "Green Valley Farm", "DEMOLOT")

	resp, err := f.svc.CreateInspection(ctx, f.inspector, qadomain.CreateInspectionRequest{
		LotPublicID: "DEMOLOT",
		Defects:     intPtr(1),
		Grade:       "A",
		Notes:       " minor bruising ",
		Images:      []string{"https://img.example/1.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, lot.ID, resp.LotID)
	assert.Equal(t, "DEMOLOT", resp.LotPublicID)
	assert.Equal(t, "Mike Inspector", resp.Inspector.Name)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, "minor bruising", *resp.Notes)

	var stored qadomain.Inspection
	require.NoError(t, f.conn.First(&stored, "id = ?", resp.ID).Error)
	assert.Equal(t, []string{"https://img.example/1.jpg"}, []string(stored.Images))

	_, err = f.svc.CreateInspection(ctx, f.inspector, qadomain.CreateInspectionRequest{LotPublicID: "DEMOLOT", Defects: intPtr(-1), Grade: "A"})
	_, ok := validation.AsErrors(err)
	assert.True(t, ok)

	_, err = f.svc.CreateInspection(ctx, f.inspector, qadomain.CreateInspectionRequest{LotPublicID: "DEMOLOT", Defects: intPtr(0), Grade: "D"})
	_, ok = validation.AsErrors(err)
	assert.True(t, ok)

	_, err = f.svc.CreateInspection(ctx, f.inspector, qadomain.CreateInspectionRequest{LotPublicID: "MISSING", Defects: intPtr(0), Grade: "C"})
	assert.ErrorIs(t, err, farmdomain.ErrLotNotFound)
}

func TestUploadAndListCertificates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.lot(t, "Green Valley Farm", "DEMOLOT")

	body := []byte("%PDF-1.4 fake")
	cert, err := f.svc.UploadCertificate(ctx, qadomain.UploadCertificateRequest{
		LotPublicID: "DEMOLOT",
		Type:        "GlobalG.A.P.",
		Issuer:      "Control Union",
		IssuedAt:    "2025-01-15",
		ExpiresAt:   "2026-01-15T00:00:00Z",
	}, qadomain.FileUpload{Filename: "cert.PDF", ContentType: "application/pdf", Size: int64(len(body)), Body: bytes.NewReader(body)})
	require.NoError(t, err)
	assert.Equal(t, lot.FarmID, cert.Farm.ID)
	assert.Equal(t, "Green Valley Farm", cert.Farm.Name)
	require.NotNil(t, cert.Lot)
	assert.Equal(t, "DEMOLOT", cert.Lot.PublicID)
	assert.True(t, strings.HasPrefix(cert.FileURL, "/uploads/certificates/"))
	assert.True(t, strings.HasSuffix(cert.FileURL, ".pdf"))

	stored, err := os.ReadFile(filepath.Join(f.root, strings.TrimPrefix(cert.FileURL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, body, stored)

	farmCert, err := f.svc.UploadCertificate(ctx, qadomain.UploadCertificateRequest{
		FarmID:   lot.FarmID.String(),
		Type:     "Organic",
		Issuer:   "ACT",
		IssuedAt: "2025-02-01",
	}, qadomain.FileUpload{Filename: "organic.png", ContentType: "image/png", Size: 3, Body: bytes.NewReader([]byte("png"))})
	require.NoError(t, err)
	assert.Nil(t, farmCert.Lot)

	byLot, err := f.svc.ListCertificates(ctx, qadomain.CertificateFilter{LotPublicID: "DEMOLOT"})
	require.NoError(t, err)
	require.Len(t, byLot, 1)
	assert.Equal(t, cert.ID, byLot[0].ID)

	f.clock.Advance(time.Minute)
	byFarm, err := f.svc.ListCertificates(ctx, qadomain.CertificateFilter{FarmID: lot.FarmID.String()})
	require.NoError(t, err)
	assert.Len(t, byFarm, 2)

	_, err = f.svc.ListCertificates(ctx, qadomain.CertificateFilter{LotPublicID: "MISSING"})
	assert.ErrorIs(t, err, farmdomain.ErrLotNotFound)

	all, err := f.svc.ListCertificates(ctx, qadomain.CertificateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListCertificates(ctx, qadomain.CertificateFilter{FarmID: "not-a-number"})
	_, ok := validation.AsErrors(err)
	assert.True(t, ok)
}

func TestUploadCertificateRejectsBadFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.lot(t, "Green Valley Farm", "DEMOLOT")
	req := qadomain.UploadCertificateRequest{LotPublicID: "DEMOLOT", Type: "Organic", Issuer: "ACT", IssuedAt: "2025-02-01"}

	cases := map[string]qadomain.FileUpload{
		"missing":   {},
		"extension": {Filename: "run.exe", ContentType: "application/octet-stream", Size: 2, Body: strings.NewReader("MZ")},
		"mime":      {Filename: "cert.pdf", ContentType: "text/html", Size: 2, Body: strings.NewReader("<>")},
		"too large": {Filename: "cert.pdf", ContentType: "application/pdf", Size: 4096, Body: bytes.NewReader(make([]byte, 4096))},
	}
	for name, file := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.UploadCertificate(ctx, req, file)
			verrs, ok := validation.AsErrors(err)
			require.True(t, ok)
			assert.Equal(t, "file", verrs.Violations[0].Field)
		})
	}

	_, err := f.svc.UploadCertificate(ctx, qadomain.UploadCertificateRequest{Type: "Organic", Issuer: "ACT", IssuedAt: "2025-02-01"},
		qadomain.FileUpload{Filename: "a.pdf", Size: 1, Body: strings.NewReader("x")})
	verrs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "farmId", verrs.Violations[0].Field)

	entries, err := os.ReadDir(f.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestKPIReportPDF(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "Green Valley Farm", "DEMOLOT")
	f.reading(t, lot.ID, 12, f.clock.Now().Add(-time.Hour))

	out, err := f.svc.KPIReportPDF(context.Background(), qadomain.KPIQuery{LotPublicID: "DEMOLOT"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
