package service

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
	"time"

	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	qadomain "github.com/agrilink/agrilink/internal/qa/domain"
	"github.com/agrilink/agrilink/pkg/repository"
	"github.com/agrilink/agrilink/pkg/validation"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

const certificatePrefix = "certificates/"

var certificateTypes = map[string][]string{
	".jpeg": {"image/jpeg"},
	".jpg":  {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

// ListCertificates returns every certificate when no filter is given.
func (s *Service) ListCertificates(ctx context.Context, filter qadomain.CertificateFilter) ([]qadomain.CertificateResponse, error) {
	opts := []repository.QueryOption{
		repository.WithPreload("Farm"),
		repository.WithPreload("Lot"),
		repository.WithOrder("created_at DESC"),
	}

	switch {
	case strings.TrimSpace(filter.LotPublicID) != "":
		lot, err := s.farms.GetLotByPublicID(ctx, filter.LotPublicID)
		if err != nil {
			return nil, err
		}
		opts = append(opts, repository.WithWhere("lot_id = ?", lot.ID))
	case strings.TrimSpace(filter.FarmID) != "":
		farmID, err := snowflake.ParseString(strings.TrimSpace(filter.FarmID))
		if err != nil {
			return nil, validation.NewError("farmId", "invalid", "farmId is invalid")
		}
		opts = append(opts, repository.WithWhere("farm_id = ?", farmID))
	}

	rows, err := s.certificaterepo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]qadomain.CertificateResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, certificateResponse(row))
	}
	return out, nil
}

func (s *Service) UploadCertificate(ctx context.Context, req qadomain.UploadCertificateRequest, file qadomain.FileUpload) (*qadomain.CertificateResponse, error) {
	if file.Body == nil {
		return nil, validation.NewError("file", "required", "file is required")
	}
	if res := validation.Validate(req); !res.OK() {
		return nil, res.Err()
	}
	if s.maxUploadSize > 0 && file.Size > s.maxUploadSize {
		return nil, validation.NewError("file", "max", "file exceeds the upload size limit")
	}
	ext, contentType, ok := certificateFileType(file.Filename, file.ContentType)
	if !ok {
		return nil, validation.NewError("file", "invalid_type", "file must be one of jpeg, jpg, png, gif, pdf, doc, docx")
	}

	issuedAt, err := validation.ParseTime(req.IssuedAt)
	if err != nil {
		return nil, validation.NewError("issuedAt", "isotime", "issuedAt must be an ISO-8601 datetime")
	}
	var expiresAt *time.Time
	if strings.TrimSpace(req.ExpiresAt) != "" {
		parsed, err := validation.ParseTime(req.ExpiresAt)
		if err != nil {
			return nil, validation.NewError("expiresAt", "isotime", "expiresAt must be an ISO-8601 datetime")
		}
		expiresAt = &parsed
	}

	farm, lot, err := s.certificateOwner(ctx, req)
	if err != nil {
		return nil, err
	}

	id := s.genID.Generate()
	obj, err := s.store.Put(ctx, certificatePrefix+id.String()+ext, file.Body, file.Size, contentType)
	if err != nil {
		return nil, err
	}

	cert := &qadomain.Certificate{
		ID:        id,
		FarmID:    farm.ID,
		Type:      strings.TrimSpace(req.Type),
		Issuer:    strings.TrimSpace(req.Issuer),
		FileKey:   obj.Key,
		FileURL:   obj.URL,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		CreatedAt: s.clock.Now(),
	}
	if lot != nil {
		cert.LotID = &lot.ID
	}
	if err := s.certificaterepo.Create(ctx, cert); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), obj.Key); delErr != nil {
			s.log.Warn("orphaned certificate file", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, err
	}

	cert.Farm = farm
	cert.Lot = lot
	s.log.Info("certificate uploaded",
		zap.String("certificate_id", cert.ID.String()),
		zap.String("farm_id", farm.ID.String()),
		zap.String("storage", s.store.Driver()),
	)

	resp := certificateResponse(cert)
	return &resp, nil
}

// certificateOwner resolves the farm, deriving it from the lot when one is named.
func (s *Service) certificateOwner(ctx context.Context, req qadomain.UploadCertificateRequest) (*farmdomain.Farm, *farmdomain.Lot, error) {
	if strings.TrimSpace(req.LotID) != "" || strings.TrimSpace(req.LotPublicID) != "" {
		lot, err := s.farms.ResolveLot(ctx, req.LotID, req.LotPublicID)
		if err != nil {
			return nil, nil, err
		}
		if lot.Farm != nil {
			return lot.Farm, lot, nil
		}
		farm, err := s.farms.GetFarm(ctx, lot.FarmID)
		if err != nil {
			return nil, nil, err
		}
		return farm, lot, nil
	}

	farmID, err := snowflake.ParseString(strings.TrimSpace(req.FarmID))
	if err != nil {
		return nil, nil, farmdomain.ErrFarmNotFound
	}
	farm, err := s.farms.GetFarm(ctx, farmID)
	if err != nil {
		return nil, nil, err
	}
	return farm, nil, nil
}

// certificateFileType checks the extension and the declared media type against
// the allowed document kinds.
func certificateFileType(filename, contentType string) (string, string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed, ok := certificateTypes[ext]
	if !ok {
		return "", "", false
	}

	declared := ""
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			declared = parsed
		}
	}
	if declared == "" || declared == "application/octet-stream" {
		return ext, allowed[0], true
	}
	for _, candidate := range allowed {
		if declared == candidate {
			return ext, candidate, true
		}
	}
	return "", "", false
}

func certificateResponse(c *qadomain.Certificate) qadomain.CertificateResponse {
	resp := qadomain.CertificateResponse{
		ID:        c.ID,
		Type:      c.Type,
		Issuer:    c.Issuer,
		FileURL:   c.FileURL,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
		Farm:      qadomain.FarmRef{ID: c.FarmID},
		CreatedAt: c.CreatedAt,
	}
	if c.Farm != nil {
		resp.Farm.Name = c.Farm.Name
	}
	if c.Lot != nil {
		resp.Lot = &qadomain.LotRef{ID: c.Lot.ID, PublicID: c.Lot.PublicID, Produce: c.Lot.Produce}
	}
	return resp
}
