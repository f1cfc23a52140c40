package domain

import (
	"context"
	"errors"
	"io"
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/bwmarrin/snowflake"
)

type Service interface {
	KPI(ctx context.Context, query KPIQuery) (*KPIReport, error)
	KPIReportPDF(ctx context.Context, query KPIQuery) ([]byte, error)

	CreateInspection(ctx context.Context, inspector authdomain.Identity, req CreateInspectionRequest) (*InspectionResponse, error)

	ListCertificates(ctx context.Context, filter CertificateFilter) ([]CertificateResponse, error)
	UploadCertificate(ctx context.Context, req UploadCertificateRequest, file FileUpload) (*CertificateResponse, error)
}

type CreateInspectionRequest struct {
	LotID       string   `json:"lotId" validate:"required_without=LotPublicID"`
	LotPublicID string   `json:"lotPublicId"`
	Defects     *int     `json:"defects" validate:"required,gte=0"`
	Grade       string   `json:"grade" validate:"required,oneof=A B C REJECT"`
	Notes       string   `json:"notes" validate:"omitempty,max=2000"`
	Images      []string `json:"images" validate:"omitempty,max=20,dive,max=500"`
}

type InspectorRef struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
}

type InspectionResponse struct {
	ID          snowflake.ID `json:"id"`
	LotID       snowflake.ID `json:"lotId"`
	LotPublicID string       `json:"lotPublicId"`
	Defects     int          `json:"defects"`
	Grade       Grade        `json:"grade"`
	Notes       *string      `json:"notes"`
	Images      []string     `json:"images"`
	Inspector   InspectorRef `json:"inspector"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type CertificateFilter struct {
	LotPublicID string `json:"lotPublicId" form:"lotPublicId"`
	FarmID      string `json:"farmId" form:"farmId"`
}

type UploadCertificateRequest struct {
	FarmID      string `json:"farmId" form:"farmId" validate:"required_without_all=LotID LotPublicID"`
	LotID       string `json:"lotId" form:"lotId"`
	LotPublicID string `json:"lotPublicId" form:"lotPublicId"`
	Type        string `json:"type" form:"type" validate:"required,max=120"`
	Issuer      string `json:"issuer" form:"issuer" validate:"required,max=200"`
	IssuedAt    string `json:"issuedAt" form:"issuedAt" validate:"required,isotime"`
	ExpiresAt   string `json:"expiresAt" form:"expiresAt" validate:"omitempty,isotime"`
}

// FileUpload is the attached certificate document.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type FarmRef struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
}

type LotRef struct {
	ID       snowflake.ID `json:"id"`
	PublicID string       `json:"publicId"`
	Produce  string       `json:"produce"`
}

type CertificateResponse struct {
	ID        snowflake.ID `json:"id"`
	Type      string       `json:"type"`
	Issuer    string       `json:"issuer"`
	FileURL   string       `json:"fileUrl"`
	IssuedAt  time.Time    `json:"issuedAt"`
	ExpiresAt *time.Time   `json:"expiresAt"`
	Farm      FarmRef      `json:"farm"`
	Lot       *LotRef      `json:"lot"`
	CreatedAt time.Time    `json:"createdAt"`
}

var (
	ErrInspectorRequired = errors.New("inspector_required")
)
